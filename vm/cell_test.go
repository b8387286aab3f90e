package vm

import "testing"

func TestQuotifyRoundTrip(t *testing.T) {
	c := IntegerCell(42)
	if err := c.Quotify(3); err != nil {
		t.Fatalf("Quotify: %v", err)
	}
	if c.QuoteLevel() != 3 {
		t.Errorf("quote level = %d, want 3", c.QuoteLevel())
	}
	if c.Int64() != 42 {
		t.Errorf("payload disturbed: %d", c.Int64())
	}
	if err := c.Unquotify(3); err != nil {
		t.Fatalf("Unquotify: %v", err)
	}
	if c.QuoteLevel() != 0 || c.Int64() != 42 {
		t.Errorf("round trip lost state: level %d value %d", c.QuoteLevel(), c.Int64())
	}
}

func TestQuotifyBounds(t *testing.T) {
	c := BlankCell()
	if err := c.Quotify(MaxQuoteDepth); err != nil {
		t.Fatalf("Quotify to max: %v", err)
	}
	if err := c.Quotify(1); err != ErrQuoteOverflow {
		t.Errorf("Quotify past max = %v, want ErrQuoteOverflow", err)
	}
	if c.QuoteLevel() != MaxQuoteDepth {
		t.Errorf("failed Quotify changed level to %d", c.QuoteLevel())
	}

	d := BlankCell()
	if err := d.Unquotify(1); err != ErrQuoteUnderflow {
		t.Errorf("Unquotify below zero = %v, want ErrQuoteUnderflow", err)
	}
}

func TestMetaQuotify(t *testing.T) {
	// Null becomes blank.
	n := NullCell()
	if err := n.MetaQuotify(); err != nil {
		t.Fatalf("MetaQuotify null: %v", err)
	}
	if n.Heart() != HeartBlank || n.QuoteLevel() != 0 {
		t.Errorf("meta of null = %s'%d, want blank", n.Heart(), n.QuoteLevel())
	}
	if err := n.MetaUnquotify(); err != nil {
		t.Fatalf("MetaUnquotify blank: %v", err)
	}
	if !n.IsNull() {
		t.Error("unmeta of blank should be null")
	}

	// Antiform becomes quasiform.
	l := LogicCell(true)
	if err := l.MetaQuotify(); err != nil {
		t.Fatalf("MetaQuotify logic: %v", err)
	}
	if !l.IsQuasiform() {
		t.Error("meta of antiform should be quasiform")
	}
	if err := l.MetaUnquotify(); err != nil {
		t.Fatalf("MetaUnquotify quasiform: %v", err)
	}
	if v, ok := l.IsLogic(); !ok || !v {
		t.Error("unmeta should restore the true antiform")
	}

	// Plain values gain a quote.
	i := IntegerCell(7)
	if err := i.MetaQuotify(); err != nil {
		t.Fatalf("MetaQuotify integer: %v", err)
	}
	if i.QuoteLevel() != 1 {
		t.Errorf("meta of plain = quote %d, want 1", i.QuoteLevel())
	}
}

func TestMetaUnquotifyRaised(t *testing.T) {
	rt := NewRuntime()
	cell := rt.MakeError("demo", "demo failure")
	cell.Raisify()
	if !cell.IsRaised() {
		t.Fatal("Raisify did not raise")
	}

	if err := cell.MetaQuotify(); err != nil {
		t.Fatalf("MetaQuotify raised: %v", err)
	}
	if !cell.IsQuasiform() {
		t.Fatal("meta of raised error should be quasiform")
	}

	// Implicit reversal is refused; the explicit path works.
	probe := cell
	if err := probe.MetaUnquotify(); err != ErrUnacknowledgedRaise {
		t.Errorf("MetaUnquotify quasi error = %v, want ErrUnacknowledgedRaise", err)
	}
	if err := cell.MetaUnquotifyRaised(); err != nil {
		t.Fatalf("MetaUnquotifyRaised: %v", err)
	}
	if !cell.IsRaised() {
		t.Error("explicit acknowledgment should restore the raised state")
	}
}

func TestIsTruthy(t *testing.T) {
	rt := NewRuntime()
	raised := rt.MakeError("demo", "demo")
	raised.Raisify()

	tests := []struct {
		name    string
		cell    Cell
		truthy  bool
		wantErr error
	}{
		{"integer", IntegerCell(0), true, nil},
		{"blank", BlankCell(), true, nil},
		{"text word", WordCell(rt.Intern("x")), true, nil},
		{"true", LogicCell(true), true, nil},
		{"false", LogicCell(false), false, nil},
		{"null", NullCell(), false, nil},
		{"void", VoidCell(), false, ErrVoidConditional},
		{"raised", raised, false, ErrRaisedConditional},
	}
	for _, tt := range tests {
		got, err := tt.cell.IsTruthy()
		if err != tt.wantErr {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.truthy {
			t.Errorf("%s: truthy = %v, want %v", tt.name, got, tt.truthy)
		}
	}
}

func TestDecay(t *testing.T) {
	rt := NewRuntime()
	raised := rt.MakeError("demo", "demo")
	raised.Raisify()

	other := WordCell(rt.Intern("splice"))
	other.lift = LiftAnti

	tests := []struct {
		name    string
		cell    Cell
		wantErr error
	}{
		{"plain", IntegerCell(1), nil},
		{"null", NullCell(), nil},
		{"void", VoidCell(), nil},
		{"logic", LogicCell(false), nil},
		{"raised", raised, ErrRaisedDecay},
		{"other antiform", other, ErrAntiformDecay},
	}
	for _, tt := range tests {
		c := tt.cell
		if err := c.Decay(); err != tt.wantErr {
			t.Errorf("%s: Decay = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestNonBindableBindingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("binding an integer should panic")
		}
	}()
	c := IntegerCell(1)
	c.SetBinding(Binding{target: StubID{idx: 1, gen: 1}})
}
