package vm

import "sync"

// Knuth's lagged-Fibonacci generator (ran_array, TAOCP vol. 2, 3.6) on 62
// bits: x[n] = (x[n-100] - x[n-37]) mod 2^62. Batches of 1009 are computed
// and only the first 100 of each batch are consumed, per Knuth's usage
// note. The generator is shared process-wide; every Runtime draws from the
// same stream unless reseeded.

const (
	rngKK      = 100 // the long lag
	rngLL      = 37  // the short lag
	rngMM      = int64(1) << 62
	rngTT      = 70 // guaranteed separation between streams
	rngQuality = 1009
)

func modDiff(x, y int64) int64 {
	return (x - y) & (rngMM - 1)
}

// Rand is a single generator stream. Safe for concurrent use.
type Rand struct {
	mu  sync.Mutex
	x   [rngKK]int64
	buf [rngQuality]int64
	ptr int
}

// NewRand returns a generator seeded with the given value.
func NewRand(seed int64) *Rand {
	r := &Rand{}
	r.seed(seed)
	return r
}

// Seed reinitializes the stream. Distinct seeds in [0, 2^62-2) give
// streams guaranteed to differ.
func (r *Rand) Seed(seed int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seed(seed)
}

func (r *Rand) seed(seed int64) {
	var x [rngKK + rngKK - 1]int64

	ss := (seed + 2) & (rngMM - 2)
	for j := 0; j < rngKK; j++ {
		x[j] = ss
		ss <<= 1
		if ss >= rngMM {
			ss -= rngMM - 2
		}
	}
	for j := rngKK; j < rngKK+rngKK-1; j++ {
		x[j] = 0
	}
	x[1]++

	ss = seed & (rngMM - 1)
	t := rngTT - 1
	for t > 0 {
		for j := rngKK - 1; j > 0; j-- { // square
			x[j+j] = x[j]
			x[j+j-1] = 0
		}
		for j := rngKK + rngKK - 2; j >= rngKK; j-- {
			x[j-(rngKK-rngLL)] = modDiff(x[j-(rngKK-rngLL)], x[j])
			x[j-rngKK] = modDiff(x[j-rngKK], x[j])
		}
		if ss&1 != 0 { // multiply by z
			for j := rngKK; j > 0; j-- {
				x[j] = x[j-1]
			}
			x[0] = x[rngKK]
			x[rngLL] = modDiff(x[rngLL], x[rngKK])
		}
		if ss != 0 {
			ss >>= 1
		} else {
			t--
		}
	}

	for j := 0; j < rngLL; j++ {
		r.x[j+rngKK-rngLL] = x[j]
	}
	for j := rngLL; j < rngKK; j++ {
		r.x[j-rngLL] = x[j]
	}

	var warm [rngKK + rngKK - 1]int64
	for i := 0; i < 10; i++ {
		r.fill(warm[:])
	}
	r.ptr = rngKK // force a refill on the next draw
}

// fill runs the recurrence into aa and advances the state.
func (r *Rand) fill(aa []int64) {
	n := len(aa)
	var j int
	for j = 0; j < rngKK; j++ {
		aa[j] = r.x[j]
	}
	for ; j < n; j++ {
		aa[j] = modDiff(aa[j-rngKK], aa[j-rngLL])
	}
	var i int
	for i = 0; i < rngLL; i, j = i+1, j+1 {
		r.x[i] = modDiff(aa[j-rngKK], aa[j-rngLL])
	}
	for ; i < rngKK; i, j = i+1, j+1 {
		r.x[i] = modDiff(aa[j-rngKK], r.x[i-rngLL])
	}
}

// Next returns the next value in [0, 2^62).
func (r *Rand) Next() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ptr >= rngKK {
		r.fill(r.buf[:])
		r.ptr = 0
	}
	v := r.buf[r.ptr]
	r.ptr++
	return v
}

// Range returns a value in [0, max). Panics on max < 1.
func (r *Rand) Range(max int64) int64 {
	if max < 1 {
		panic("vm: Rand.Range with max < 1")
	}
	return r.Next() % max
}

// Float returns a value in [0, 1).
func (r *Rand) Float() float64 {
	return float64(r.Next()) / float64(rngMM)
}

// defaultRand is the process-wide stream, seeded like a fresh interpreter.
var defaultRand = NewRand(0)
