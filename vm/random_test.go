package vm

import "testing"

// Golden sequence for seed 314159, fixed by the generator's definition.
var randomGolden = []int64{
	436222550683952583,
	144641631298686125,
	3946042877991205406,
	2053049663369250309,
	368691625852159405,
	511318614643391798,
	943747987062994223,
	2716175967267593423,
	4227440946131467996,
	1109037437094559222,
}

func TestRandomGoldenSequence(t *testing.T) {
	r := NewRand(314159)
	for i, want := range randomGolden {
		if got := r.Next(); got != want {
			t.Fatalf("value %d = %d, want %d", i, got, want)
		}
	}
}

// Values straddling batch refills: only the first 100 of each 1009-entry
// batch are served, so these catch an off-by-one in the refill logic.
func TestRandomBatchBoundaries(t *testing.T) {
	r := NewRand(314159)
	seq := make([]int64, 201)
	for i := range seq {
		seq[i] = r.Next()
	}
	checks := map[int]int64{
		100: 1169163631593728368,
		150: 3793786197692136883,
		200: 2875794660577507005,
	}
	for idx, want := range checks {
		if seq[idx] != want {
			t.Errorf("value %d = %d, want %d", idx, seq[idx], want)
		}
	}
}

func TestRandomReseedRepeats(t *testing.T) {
	r := NewRand(314159)
	first := r.Next()
	r.Seed(314159)
	if got := r.Next(); got != first {
		t.Errorf("reseed did not restart the stream: %d vs %d", got, first)
	}
	r.Seed(271828)
	if got := r.Next(); got == first {
		t.Error("different seeds should give different streams")
	}
}

func TestRandomRangeAndFloat(t *testing.T) {
	r := NewRand(1)
	for i := 0; i < 1000; i++ {
		if v := r.Range(7); v < 0 || v >= 7 {
			t.Fatalf("Range(7) = %d", v)
		}
		if f := r.Float(); f < 0 || f >= 1 {
			t.Fatalf("Float() = %v", f)
		}
	}
}

func TestRandomNatives(t *testing.T) {
	rt := NewRuntime()
	mustRun(t, rt, "set-random 314159")
	wantInt(t, mustRun(t, rt, "random-int"), randomGolden[0])
	wantInt(t, mustRun(t, rt, "random-int"), randomGolden[1])

	mustRun(t, rt, "set-random 314159")
	out := mustRun(t, rt, "random 1000000")
	want := randomGolden[0]%1000000 + 1
	wantInt(t, out, want)
}
