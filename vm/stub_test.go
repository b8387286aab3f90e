package vm

import "testing"

func TestAllocAndFreeUnmanaged(t *testing.T) {
	rt := NewRuntime()
	before := rt.LiveStubs()

	id := rt.AllocStub(FlavorCells, 4)
	if rt.LiveStubs() != before+1 {
		t.Fatalf("live = %d, want %d", rt.LiveStubs(), before+1)
	}
	if err := rt.FreeUnmanaged(id); err != nil {
		t.Fatalf("FreeUnmanaged: %v", err)
	}
	if rt.LiveStubs() != before {
		t.Errorf("live after free = %d, want %d", rt.LiveStubs(), before)
	}
}

func TestFreeManagedRefused(t *testing.T) {
	rt := NewRuntime()
	id := rt.AllocStub(FlavorCells, 1)
	rt.Manage(id)
	if err := rt.FreeUnmanaged(id); err != ErrStubManaged {
		t.Errorf("FreeUnmanaged on managed = %v, want ErrStubManaged", err)
	}
}

func TestStaleHandlePanics(t *testing.T) {
	rt := NewRuntime()
	id := rt.AllocStub(FlavorCells, 1)
	if err := rt.FreeUnmanaged(id); err != nil {
		t.Fatal(err)
	}
	// Reuse the slot.
	id2 := rt.AllocStub(FlavorCells, 1)
	if id2.idx != id.idx {
		t.Skipf("free list did not reuse slot %d", id.idx)
	}
	defer func() {
		if recover() == nil {
			t.Error("resolving a stale handle should panic")
		}
	}()
	rt.stub(id)
}

func TestDecommissionReadsFail(t *testing.T) {
	rt := NewRuntime()
	text := rt.NewText("doomed")
	guard := rt.PushGuard(text.Node())
	defer rt.DropGuards(guard)

	rt.Decommission(text.Node())

	if _, err := rt.BytesAccess(text); err != ErrSeriesFreed {
		t.Errorf("BytesAccess after decommission = %v, want ErrSeriesFreed", err)
	}
	if _, err := rt.StubAccess(text.Node()); err != ErrSeriesFreed {
		t.Errorf("StubAccess after decommission = %v, want ErrSeriesFreed", err)
	}
}

func TestExpandNeverTruncates(t *testing.T) {
	rt := NewRuntime()
	id := rt.AllocStub(FlavorCells, 2)
	for i := 0; i < 4; i++ {
		if err := rt.ArrayAppend(id, IntegerCell(int64(i))); err != nil {
			t.Fatal(err)
		}
	}
	if err := rt.ExpandStub(id, 2); err != ErrStubCapacity {
		t.Errorf("shrinking expand = %v, want ErrStubCapacity", err)
	}
	if err := rt.ExpandStub(id, 64); err != nil {
		t.Fatalf("growing expand: %v", err)
	}
	c, err := rt.ArrayAt(id, 3)
	if err != nil || c.Int64() != 3 {
		t.Errorf("data lost across expand: %v %v", c, err)
	}
}

func TestAntiformStorageRejected(t *testing.T) {
	rt := NewRuntime()
	id := rt.AllocStub(FlavorCells, 2)

	if err := rt.ArrayAppend(id, NullCell()); err != ErrAntiformStore {
		t.Errorf("append null antiform = %v, want ErrAntiformStore", err)
	}
	if err := rt.ArrayAppend(id, IntegerCell(1)); err != nil {
		t.Fatal(err)
	}
	if err := rt.ArraySet(id, 0, LogicCell(true)); err != ErrAntiformStore {
		t.Errorf("set logic antiform = %v, want ErrAntiformStore", err)
	}

	// Meta-quotified, the same value stores fine and is distinguishable.
	meta := LogicCell(true)
	if err := meta.MetaQuotify(); err != nil {
		t.Fatal(err)
	}
	if err := rt.ArraySet(id, 0, meta); err != nil {
		t.Fatalf("storing meta-quotified antiform: %v", err)
	}
	back, err := rt.ArrayAt(id, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !back.IsQuasiform() {
		t.Error("stored form should read back as quasiform, not antiform")
	}
	if err := back.MetaUnquotify(); err != nil {
		t.Fatal(err)
	}
	if v, ok := back.IsLogic(); !ok || !v {
		t.Error("unmeta should recover the original antiform")
	}
}

func TestFrozenStubRejectsWrites(t *testing.T) {
	rt := NewRuntime()
	id := rt.AllocStub(FlavorCells, 1)
	if err := rt.ArrayAppend(id, IntegerCell(1)); err != nil {
		t.Fatal(err)
	}
	rt.Freeze(id)
	if err := rt.ArraySet(id, 0, IntegerCell(2)); err != ErrStubFrozen {
		t.Errorf("write to frozen = %v, want ErrStubFrozen", err)
	}
	if err := rt.ArrayAppend(id, IntegerCell(2)); err != ErrStubFrozen {
		t.Errorf("append to frozen = %v, want ErrStubFrozen", err)
	}
}

func TestTextContent(t *testing.T) {
	rt := NewRuntime()
	c := rt.NewText("hello")
	if got := rt.TextContent(c); got != "hello" {
		t.Errorf("TextContent = %q", got)
	}
	tail := c.AtIndex(3)
	if got := rt.TextContent(tail); got != "lo" {
		t.Errorf("TextContent at 3 = %q", got)
	}
}
