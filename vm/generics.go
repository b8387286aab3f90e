package vm

import "math"

// Per-heart handlers for the generic verbs. Integer and decimal mix freely
// in arithmetic (the integer side is promoted); everything else stays in
// its own heart.

func (rt *Runtime) bootGenerics() {
	for _, h := range []Heart{HeartInteger, HeartDecimal, HeartPair} {
		rt.RegisterGeneric(SymID{n: symAdd}, h, genericAdd)
		rt.RegisterGeneric(SymID{n: symSubtract}, h, genericSubtract)
		rt.RegisterGeneric(SymID{n: symMultiply}, h, genericMultiply)
		rt.RegisterGeneric(SymID{n: symDivide}, h, genericDivide)
		rt.RegisterGeneric(SymID{n: symNegate}, h, genericNegate)
	}

	for _, h := range []Heart{HeartInteger, HeartDecimal, HeartRune, HeartText} {
		rt.RegisterGeneric(SymID{n: symCompare}, h, genericCompare)
	}

	for _, h := range []Heart{HeartBlock, HeartGroup, HeartText, HeartBinary} {
		rt.RegisterGeneric(SymID{n: symLength}, h, genericLength)
		rt.RegisterGeneric(SymID{n: symCopy}, h, genericCopy)
	}
	for _, h := range []Heart{HeartBlock, HeartGroup} {
		rt.RegisterGeneric(SymID{n: symPick}, h, genericPickArray)
		rt.RegisterGeneric(SymID{n: symPoke}, h, genericPokeArray)
	}
	for _, h := range []Heart{HeartText, HeartBinary} {
		rt.RegisterGeneric(SymID{n: symPick}, h, genericPickBytes)
	}

	rt.RegisterGeneric(SymID{n: symRandomV}, HeartInteger, genericRandomInt)
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

// numericPair extracts both operands as decimals when either side is a
// decimal, or as integers when both are. Pair operands never mix.
func numericPair(a, b Cell) (x, y float64, isDecimal bool, err error) {
	if a.Heart() == HeartPair || b.Heart() == HeartPair {
		if a.Heart() != b.Heart() {
			return 0, 0, false, ErrBadArgType
		}
		return 0, 0, false, nil
	}
	if a.Heart() == HeartDecimal || b.Heart() == HeartDecimal {
		return asDecimal(a), asDecimal(b), true, nil
	}
	return 0, 0, false, nil
}

func asDecimal(c Cell) float64 {
	if c.Heart() == HeartInteger {
		return float64(c.Int64())
	}
	return c.Float64()
}

func genericAdd(rt *Runtime, args []Cell) Bounce {
	a, b := args[0], args[1]
	x, y, dec, err := numericPair(a, b)
	if err != nil {
		return rt.FailWith(err)
	}
	switch {
	case a.Heart() == HeartPair:
		ax, ay := a.Pair()
		bx, by := b.Pair()
		return Out(PairCell(ax+bx, ay+by))
	case dec:
		return Out(DecimalCell(x + y))
	default:
		return Out(IntegerCell(a.Int64() + b.Int64()))
	}
}

func genericSubtract(rt *Runtime, args []Cell) Bounce {
	a, b := args[0], args[1]
	x, y, dec, err := numericPair(a, b)
	if err != nil {
		return rt.FailWith(err)
	}
	switch {
	case a.Heart() == HeartPair:
		ax, ay := a.Pair()
		bx, by := b.Pair()
		return Out(PairCell(ax-bx, ay-by))
	case dec:
		return Out(DecimalCell(x - y))
	default:
		return Out(IntegerCell(a.Int64() - b.Int64()))
	}
}

func genericMultiply(rt *Runtime, args []Cell) Bounce {
	a, b := args[0], args[1]
	x, y, dec, err := numericPair(a, b)
	if err != nil {
		return rt.FailWith(err)
	}
	switch {
	case a.Heart() == HeartPair:
		ax, ay := a.Pair()
		bx, by := b.Pair()
		return Out(PairCell(ax*bx, ay*by))
	case dec:
		return Out(DecimalCell(x * y))
	default:
		return Out(IntegerCell(a.Int64() * b.Int64()))
	}
}

func genericDivide(rt *Runtime, args []Cell) Bounce {
	a, b := args[0], args[1]
	x, y, dec, err := numericPair(a, b)
	if err != nil {
		return rt.FailWith(err)
	}
	switch {
	case a.Heart() == HeartPair:
		ax, ay := a.Pair()
		bx, by := b.Pair()
		if bx == 0 || by == 0 {
			return rt.FailWith(ErrZeroDivide)
		}
		return Out(PairCell(ax/bx, ay/by))
	case dec:
		if y == 0 {
			return rt.FailWith(ErrZeroDivide)
		}
		return Out(DecimalCell(x / y))
	default:
		if b.Int64() == 0 {
			return rt.FailWith(ErrZeroDivide)
		}
		return Out(IntegerCell(a.Int64() / b.Int64()))
	}
}

func genericNegate(rt *Runtime, args []Cell) Bounce {
	a := args[0]
	switch a.Heart() {
	case HeartInteger:
		return Out(IntegerCell(-a.Int64()))
	case HeartDecimal:
		return Out(DecimalCell(-a.Float64()))
	default:
		x, y := a.Pair()
		return Out(PairCell(-x, -y))
	}
}

// ---------------------------------------------------------------------------
// Compare
// ---------------------------------------------------------------------------

// genericCompare returns -1, 0, or 1.
func genericCompare(rt *Runtime, args []Cell) Bounce {
	order, err := rt.compareCells(args[0], args[1])
	if err != nil {
		return rt.FailWith(err)
	}
	return Out(IntegerCell(int64(order)))
}

func (rt *Runtime) compareCells(a, b Cell) (int, error) {
	switch a.Heart() {
	case HeartInteger, HeartDecimal:
		if b.Heart() != HeartInteger && b.Heart() != HeartDecimal {
			return 0, ErrBadArgType
		}
		return orderFloat(asDecimal(a), asDecimal(b)), nil
	case HeartRune:
		if b.Heart() != HeartRune {
			return 0, ErrBadArgType
		}
		return orderFloat(float64(a.Rune()), float64(b.Rune())), nil
	case HeartText:
		if b.Heart() != HeartText {
			return 0, ErrBadArgType
		}
		ab, err := rt.BytesAccess(a)
		if err != nil {
			return 0, err
		}
		bb, err := rt.BytesAccess(b)
		if err != nil {
			return 0, err
		}
		return orderBytes(ab, bb), nil
	}
	return 0, ErrIllegalAction
}

func orderFloat(a, b float64) int {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		return 0
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func orderBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Series
// ---------------------------------------------------------------------------

func genericLength(rt *Runtime, args []Cell) Bounce {
	s := args[0]
	var total int
	if s.Heart().IsArrayLike() {
		n, err := rt.ArrayLen(s.Node())
		if err != nil {
			return rt.FailWith(err)
		}
		total = n
	} else {
		bytes, err := rt.BytesAccess(s.AtIndex(0))
		if err != nil {
			return rt.FailWith(err)
		}
		total = len(bytes)
	}
	remaining := total - s.Index()
	if remaining < 0 {
		remaining = 0
	}
	return Out(IntegerCell(int64(remaining)))
}

// genericPickArray: 1-based pick; out of range is null, not an error.
func genericPickArray(rt *Runtime, args []Cell) Bounce {
	s := args[0]
	n := args[1].Int64()
	c, err := rt.ArrayAt(s.Node(), s.Index()+int(n)-1)
	if err == ErrIndexOutOfRange || n < 1 {
		return Out(NullCell())
	}
	if err != nil {
		return rt.FailWith(err)
	}
	return Out(c)
}

func genericPickBytes(rt *Runtime, args []Cell) Bounce {
	s := args[0]
	n := args[1].Int64()
	bytes, err := rt.BytesAccess(s)
	if err != nil {
		return rt.FailWith(err)
	}
	if n < 1 || int(n) > len(bytes) {
		return Out(NullCell())
	}
	b := bytes[n-1]
	if s.Heart() == HeartBinary {
		return Out(IntegerCell(int64(b)))
	}
	return Out(RuneCell(rune(b)))
}

// genericPokeArray: 1-based poke, returns the stored value. The antiform
// storage ban fires inside ArraySet.
func genericPokeArray(rt *Runtime, args []Cell) Bounce {
	s := args[0]
	n := args[1].Int64()
	value := args[2]
	if n < 1 {
		return rt.FailWith(ErrIndexOutOfRange)
	}
	if err := rt.ArraySet(s.Node(), s.Index()+int(n)-1, value); err != nil {
		return rt.FailWith(err)
	}
	return Out(value)
}

func genericCopy(rt *Runtime, args []Cell) Bounce {
	s := args[0]
	if s.Heart().IsArrayLike() {
		src, err := rt.StubAccess(s.Node())
		if err != nil {
			return rt.FailWith(err)
		}
		cells := append([]Cell(nil), src.cells[min(s.Index(), len(src.cells)):]...)
		id := rt.AllocStub(FlavorCells, len(cells))
		dst := rt.stub(id)
		dst.cells = append(dst.cells, cells...)
		rt.Manage(id)
		out := s.AtIndex(0)
		out.node = id
		return Out(out)
	}

	bytes, err := rt.BytesAccess(s)
	if err != nil {
		return rt.FailWith(err)
	}
	buf := append([]byte(nil), bytes...)
	id := rt.AllocStub(FlavorBytes, len(buf))
	dst := rt.stub(id)
	dst.bytes = append(dst.bytes, buf...)
	rt.Manage(id)
	out := s.AtIndex(0)
	out.node = id
	return Out(out)
}

func genericRandomInt(rt *Runtime, args []Cell) Bounce {
	max := args[0].Int64()
	if max < 1 {
		return rt.FailWith(ErrIndexOutOfRange)
	}
	return Out(IntegerCell(rt.rng.Range(max) + 1))
}
