package vm

import "testing"

func TestVarListSlots(t *testing.T) {
	rt := NewRuntime()
	name := rt.Intern("name")
	size := rt.Intern("size")
	ctx, err := rt.NewVarList(name, size)
	if err != nil {
		t.Fatal(err)
	}

	// Bound but unset is its own condition.
	if _, err := rt.GetSlot(ctx, 0); err != ErrUnsetWord {
		t.Errorf("unset slot read = %v, want ErrUnsetWord", err)
	}

	if err := rt.SetSlot(ctx, 1, IntegerCell(42)); err != nil {
		t.Fatal(err)
	}
	got, err := rt.GetSlot(ctx, 1)
	if err != nil || got.Int64() != 42 {
		t.Errorf("slot 1 = %v, %v", got, err)
	}

	// Case-insensitive key lookup.
	if idx, ok := rt.FindKey(ctx, rt.Intern("SIZE")); !ok || idx != 1 {
		t.Errorf("FindKey(SIZE) = %d, %v", idx, ok)
	}
	if _, ok := rt.FindKey(ctx, rt.Intern("absent")); ok {
		t.Error("FindKey should miss on unknown keys")
	}
}

func TestVarListDupKeys(t *testing.T) {
	rt := NewRuntime()
	if _, err := rt.NewVarList(rt.Intern("a"), rt.Intern("A")); err != ErrDupKey {
		t.Errorf("case-duplicate keys = %v, want ErrDupKey", err)
	}
}

func TestVarListSlotDecay(t *testing.T) {
	rt := NewRuntime()
	ctx, err := rt.NewVarList(rt.Intern("v"))
	if err != nil {
		t.Fatal(err)
	}

	// Stable antiforms are legal variable contents.
	if err := rt.SetSlot(ctx, 0, NullCell()); err != nil {
		t.Errorf("storing null in a variable: %v", err)
	}

	raised := rt.MakeError("demo", "demo")
	raised.Raisify()
	if err := rt.SetSlot(ctx, 0, raised); err != ErrRaisedDecay {
		t.Errorf("storing raised error = %v, want ErrRaisedDecay", err)
	}
}

func TestBindWordAndFetch(t *testing.T) {
	rt := NewRuntime()
	ctx, err := rt.NewVarList(rt.Intern("score"))
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.SetSlot(ctx, 0, IntegerCell(99)); err != nil {
		t.Fatal(err)
	}

	word := WordCell(rt.Intern("score"))
	if _, err := rt.FetchWord(word); err != ErrUnboundWord {
		t.Errorf("unbound fetch = %v, want ErrUnboundWord", err)
	}

	if err := rt.BindWord(&word, ctx); err != nil {
		t.Fatal(err)
	}
	got, err := rt.FetchWord(word)
	if err != nil || got.Int64() != 99 {
		t.Errorf("bound fetch = %v, %v", got, err)
	}

	if err := rt.StoreWord(word, IntegerCell(100)); err != nil {
		t.Fatal(err)
	}
	got, _ = rt.GetSlot(ctx, 0)
	if got.Int64() != 100 {
		t.Errorf("store through binding = %d", got.Int64())
	}

	other := WordCell(rt.Intern("missing"))
	if err := rt.BindWord(&other, ctx); err != ErrUnboundWord {
		t.Errorf("binding unknown word = %v, want ErrUnboundWord", err)
	}
}

func TestSeaDeclareAndLookup(t *testing.T) {
	rt := NewRuntime()
	sea := rt.NewSea()
	alpha := rt.Intern("alpha")

	if _, err := rt.SeaGet(sea, alpha); err != ErrUnboundWord {
		t.Errorf("undeclared get = %v, want ErrUnboundWord", err)
	}

	if _, err := rt.SeaDeclare(sea, alpha, IntegerCell(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.SeaDeclare(sea, alpha, IntegerCell(2)); err != ErrDupKey {
		t.Errorf("double declare = %v, want ErrDupKey", err)
	}

	got, err := rt.SeaGet(sea, alpha)
	if err != nil || got.Int64() != 1 {
		t.Errorf("SeaGet = %v, %v", got, err)
	}

	if err := rt.SeaSet(sea, alpha, IntegerCell(3)); err != nil {
		t.Fatal(err)
	}
	got, _ = rt.SeaGet(sea, alpha)
	if got.Int64() != 3 {
		t.Errorf("after SeaSet = %d", got.Int64())
	}
}

func TestSeaHitchChainAcrossModules(t *testing.T) {
	rt := NewRuntime()
	seaA := rt.NewSea()
	seaB := rt.NewSea()
	shared := rt.Intern("shared-name")

	if _, err := rt.SeaDeclare(seaA, shared, IntegerCell(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.SeaDeclare(seaB, shared, IntegerCell(2)); err != nil {
		t.Fatal(err)
	}

	a, err := rt.SeaGet(seaA, shared)
	if err != nil || a.Int64() != 1 {
		t.Errorf("seaA = %v, %v", a, err)
	}
	b, err := rt.SeaGet(seaB, shared)
	if err != nil || b.Int64() != 2 {
		t.Errorf("seaB = %v, %v", b, err)
	}
}

func TestVirtualBindOverlay(t *testing.T) {
	rt := NewRuntime()
	if err := rt.Declare("shadowed", IntegerCell(1)); err != nil {
		t.Fatal(err)
	}

	block, err := rt.Scan("add shadowed 0")
	if err != nil {
		t.Fatal(err)
	}

	// Unshadowed: the user context value.
	out, err := rt.Run(block)
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, out, 1)

	// Overlaid: the same block sees the overlay's value; the block's stub
	// is untouched.
	patch, err := rt.MakeOverlay(rt.Intern("shadowed"), IntegerCell(100), StubID{})
	if err != nil {
		t.Fatal(err)
	}
	shadowedView := rt.VirtualBind(block, patch)
	out, err = rt.DoBlock(shadowedView)
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, out, 100)

	// And the original still resolves through the user context.
	out, err = rt.DoBlock(block)
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, out, 1)
}
