package vm

import (
	"errors"
	"testing"
)

func TestWireRoundTrip(t *testing.T) {
	rt := NewRuntime()

	block, err := rt.Scan(`x: add 1 2.5 ["nested" #{CAFE} 'quoted 3x4 _ ,]`)
	if err != nil {
		t.Fatal(err)
	}

	data, err := rt.MarshalCell(block)
	if err != nil {
		t.Fatalf("MarshalCell: %v", err)
	}
	back, err := rt.UnmarshalCell(data)
	if err != nil {
		t.Fatalf("UnmarshalCell: %v", err)
	}

	// Mold is a faithful rendering of everything the codec carries.
	if rt.Mold(back) != rt.Mold(block) {
		t.Errorf("round trip changed value:\n in: %s\nout: %s",
			rt.Mold(block), rt.Mold(back))
	}
}

func TestWireCanonical(t *testing.T) {
	rt := NewRuntime()
	a, err := rt.MarshalCell(IntegerCell(7))
	if err != nil {
		t.Fatal(err)
	}
	b, err := rt.MarshalCell(IntegerCell(7))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("equal values must encode to equal bytes")
	}
}

func TestWireRejectsAntiforms(t *testing.T) {
	rt := NewRuntime()
	if _, err := rt.MarshalCell(NullCell()); !errors.Is(err, ErrWireUnstable) {
		t.Errorf("marshaling antiform = %v, want ErrWireUnstable", err)
	}

	// Meta-quotified, the same value travels.
	meta := NullCell()
	if err := meta.MetaQuotify(); err != nil {
		t.Fatal(err)
	}
	data, err := rt.MarshalCell(meta)
	if err != nil {
		t.Fatalf("marshaling meta form: %v", err)
	}
	back, err := rt.UnmarshalCell(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := back.MetaUnquotify(); err != nil {
		t.Fatal(err)
	}
	if !back.IsNull() {
		t.Error("meta round trip should recover null")
	}
}

func TestWireRejectsRuntimeHearts(t *testing.T) {
	rt := NewRuntime()
	errCell := rt.MakeError("demo", "demo")
	if _, err := rt.MarshalCell(errCell); !errors.Is(err, ErrWireHeart) {
		t.Errorf("marshaling error cell = %v, want ErrWireHeart", err)
	}
	if _, err := rt.MarshalCell(ActionCell(0)); !errors.Is(err, ErrWireHeart) {
		t.Errorf("marshaling action = %v, want ErrWireHeart", err)
	}
}

func TestWireQuoteAndQuasiSurvive(t *testing.T) {
	rt := NewRuntime()
	c := WordCell(rt.Intern("deco"))
	if err := c.Quotify(3); err != nil {
		t.Fatal(err)
	}
	data, err := rt.MarshalCell(c)
	if err != nil {
		t.Fatal(err)
	}
	back, err := rt.UnmarshalCell(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.QuoteLevel() != 3 || back.Word().Spelling() != "deco" {
		t.Errorf("decoration lost: %s", rt.Mold(back))
	}

	q := WordCell(rt.Intern("quasi"))
	q.lift = LiftQuasi
	data, err = rt.MarshalCell(q)
	if err != nil {
		t.Fatal(err)
	}
	back, err = rt.UnmarshalCell(data)
	if err != nil {
		t.Fatal(err)
	}
	if !back.IsQuasiform() {
		t.Error("quasi state lost on the wire")
	}
}
