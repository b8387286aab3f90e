package vm

// Stub is a variable-size heap allocation backing every compound Rill
// value: cell arrays for blocks and groups, byte buffers for text and
// binary, varlists for objects and frames, and the patch/sea flavors of
// the module system. Stubs are owned by the arena and addressed through
// generation-checked StubIDs; no Go pointer to a Stub outlives the call
// that fetched it, because expansion and sweep may reuse slots.
type Stub struct {
	flavor Flavor
	flags  stubFlags
	gen    uint32

	cells []Cell    // FlavorCells, FlavorVarList, FlavorPatch (single cell)
	bytes []byte    // FlavorBytes
	syms  []*Symbol // FlavorKeyList

	// Two auxiliary links, reused per flavor:
	//   varlist: link = keylist
	//   patch:   link = next patch in override chain, misc = owning sea
	//   sea:     link = first patch (iteration order is unspecified)
	link StubID
	misc StubID

	sym   *Symbol // patch: the symbol this patch stores
	hitch StubID  // patch: next patch for the same symbol in another sea
}

// Flavor tags what a stub's payload means.
type Flavor uint8

const (
	FlavorNone Flavor = iota

	FlavorCells   // array of cells (block/group storage)
	FlavorBytes   // byte buffer (text/binary storage)
	FlavorVarList // context variable slots, link -> keylist
	FlavorKeyList // parallel symbol list for a varlist
	FlavorPatch   // single-variable storage for module/virtual binding
	FlavorSea     // sparse module context (SeaOfVars)
)

type stubFlags uint8

const (
	flagManaged stubFlags = 1 << iota
	flagMarked
	flagFrozen
	flagInaccessible
)

// IsManaged returns true once the stub has been handed to the GC.
func (s *Stub) IsManaged() bool { return s.flags&flagManaged != 0 }

// IsFrozen returns true if the stub's data may no longer be mutated.
func (s *Stub) IsFrozen() bool { return s.flags&flagFrozen != 0 }

// IsInaccessible returns true if the stub's data was externally released.
func (s *Stub) IsInaccessible() bool { return s.flags&flagInaccessible != 0 }

// Flavor returns the stub's payload kind.
func (s *Stub) Flavor() Flavor { return s.flavor }

// Len returns the element count: cells, bytes, or keys per flavor.
func (s *Stub) Len() int {
	switch s.flavor {
	case FlavorBytes:
		return len(s.bytes)
	case FlavorKeyList:
		return len(s.syms)
	default:
		return len(s.cells)
	}
}

// StubID is a generation-checked handle into the arena. The zero StubID is
// the null handle. A stale handle (generation mismatch after the slot was
// reclaimed) is a core bug and panics rather than aliasing a new stub.
type StubID struct {
	idx uint32
	gen uint32
}

// IsZero returns true for the null handle.
func (id StubID) IsZero() bool { return id == StubID{} }

// ---------------------------------------------------------------------------
// Arena
// ---------------------------------------------------------------------------

// arena is the slot table all stubs live in. Slot 0 is reserved so the
// zero StubID never resolves.
type arena struct {
	slots []Stub
	free  []uint32
	live  int
}

func newArena() *arena {
	a := &arena{slots: make([]Stub, 1, 256)}
	return a
}

// Live returns the number of allocated (not yet reclaimed) stubs.
func (a *arena) Live() int { return a.live }

// ---------------------------------------------------------------------------
// Runtime allocation API
// ---------------------------------------------------------------------------

// AllocStub creates a new unmanaged stub of the given flavor with room for
// capacity elements. The caller must either FreeUnmanaged it before its
// scope ends or promote it with Manage; an unmanaged stub is invisible to
// the collector and will never be swept.
//
// Allocation charges the GC ballast; when the ballast runs out a recycle
// is requested through the signal mechanism, to be serviced at the next
// trampoline safe point (never here, mid-construction).
func (rt *Runtime) AllocStub(flavor Flavor, capacity int) StubID {
	if capacity < 0 {
		panic("vm: AllocStub with negative capacity")
	}

	a := rt.arena
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, Stub{})
		idx = uint32(len(a.slots) - 1)
	}

	s := &a.slots[idx]
	gen := s.gen + 1
	*s = Stub{flavor: flavor, gen: gen}
	switch flavor {
	case FlavorBytes:
		s.bytes = make([]byte, 0, capacity)
	case FlavorKeyList:
		s.syms = make([]*Symbol, 0, capacity)
	default:
		s.cells = make([]Cell, 0, capacity)
	}
	a.live++

	rt.gc.ballast--
	if rt.gc.ballast <= 0 {
		rt.RequestRecycle()
	}

	return StubID{idx: idx, gen: gen}
}

// stub resolves a handle without an accessibility check. Used internally
// where the caller knows the stub is alive; a stale generation is a core
// bug and panics.
func (rt *Runtime) stub(id StubID) *Stub {
	if id.IsZero() {
		panic("vm: null stub handle")
	}
	a := rt.arena
	if int(id.idx) >= len(a.slots) {
		panic("vm: stub handle out of range")
	}
	s := &a.slots[id.idx]
	if s.gen != id.gen {
		panic("vm: stale stub handle")
	}
	return s
}

// StubAccess resolves a handle for reading series data. Returns
// ErrSeriesFreed if the stub was made inaccessible, so callers surface a
// defined error instead of dereferencing freed data.
func (rt *Runtime) StubAccess(id StubID) (*Stub, error) {
	s := rt.stub(id)
	if s.IsInaccessible() {
		return nil, ErrSeriesFreed
	}
	return s, nil
}

// Manage hands a stub to the garbage collector. Irreversible: from here on
// only the sweep may free it. Managing an already-managed stub is a no-op.
func (rt *Runtime) Manage(id StubID) {
	s := rt.stub(id)
	s.flags |= flagManaged
}

// FreeUnmanaged releases a stub that was never managed. Exactly one call
// is allowed; freeing a managed stub is refused.
func (rt *Runtime) FreeUnmanaged(id StubID) error {
	s := rt.stub(id)
	if s.IsManaged() {
		return ErrStubManaged
	}
	rt.releaseSlot(id.idx, s)
	return nil
}

// releaseSlot reclaims a slot and bumps its generation so outstanding
// handles go stale instead of aliasing the next tenant.
func (rt *Runtime) releaseSlot(idx uint32, s *Stub) {
	gen := s.gen
	*s = Stub{gen: gen}
	rt.arena.free = append(rt.arena.free, idx)
	rt.arena.live--
}

// Decommission marks a stub's data as externally released. The slot stays
// allocated (handles remain valid) but every data access reports
// ErrSeriesFreed from now on.
func (rt *Runtime) Decommission(id StubID) {
	s := rt.stub(id)
	s.cells = nil
	s.bytes = nil
	s.syms = nil
	s.flags |= flagInaccessible
}

// Freeze makes a stub's data immutable.
func (rt *Runtime) Freeze(id StubID) {
	rt.stub(id).flags |= flagFrozen
}

// ExpandStub grows a stub's capacity. Existing data is never truncated:
// a new capacity below the current length is refused. The backing slice
// may relocate; any Go pointer into the old data is invalid afterward and
// element access must go back through the handle.
func (rt *Runtime) ExpandStub(id StubID, newCapacity int) error {
	s, err := rt.StubAccess(id)
	if err != nil {
		return err
	}
	if s.IsFrozen() {
		return ErrStubFrozen
	}
	if newCapacity < s.Len() {
		return ErrStubCapacity
	}
	switch s.flavor {
	case FlavorBytes:
		if newCapacity > cap(s.bytes) {
			grown := make([]byte, len(s.bytes), newCapacity)
			copy(grown, s.bytes)
			s.bytes = grown
		}
	case FlavorKeyList:
		if newCapacity > cap(s.syms) {
			grown := make([]*Symbol, len(s.syms), newCapacity)
			copy(grown, s.syms)
			s.syms = grown
		}
	default:
		if newCapacity > cap(s.cells) {
			grown := make([]Cell, len(s.cells), newCapacity)
			copy(grown, s.cells)
			s.cells = grown
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Cell-array element access
// ---------------------------------------------------------------------------

// ArrayLen returns the element count of a cell-array stub.
func (rt *Runtime) ArrayLen(id StubID) (int, error) {
	s, err := rt.StubAccess(id)
	if err != nil {
		return 0, err
	}
	return len(s.cells), nil
}

// ArrayAt fetches the cell at index (0-based) by value.
func (rt *Runtime) ArrayAt(id StubID, index int) (Cell, error) {
	s, err := rt.StubAccess(id)
	if err != nil {
		return Cell{}, err
	}
	if index < 0 || index >= len(s.cells) {
		return Cell{}, ErrIndexOutOfRange
	}
	return s.cells[index], nil
}

// ArraySet stores a cell at index. This is a storage boundary: antiforms
// are rejected here, not at some outer layer, so no code path can smuggle
// an unstable value into compound data.
func (rt *Runtime) ArraySet(id StubID, index int, c Cell) error {
	s, err := rt.StubAccess(id)
	if err != nil {
		return err
	}
	if s.IsFrozen() {
		return ErrStubFrozen
	}
	if c.IsAntiform() {
		return ErrAntiformStore
	}
	if index < 0 || index >= len(s.cells) {
		return ErrIndexOutOfRange
	}
	s.cells[index] = c
	return nil
}

// ArrayAppend appends a cell, growing the stub as needed. Same antiform
// boundary as ArraySet.
func (rt *Runtime) ArrayAppend(id StubID, c Cell) error {
	s, err := rt.StubAccess(id)
	if err != nil {
		return err
	}
	if s.IsFrozen() {
		return ErrStubFrozen
	}
	if c.IsAntiform() {
		return ErrAntiformStore
	}
	s.cells = append(s.cells, c)
	return nil
}

// NewBlock allocates a managed block from the given cells. Antiforms in
// the input are rejected.
func (rt *Runtime) NewBlock(cells ...Cell) (Cell, error) {
	id := rt.AllocStub(FlavorCells, len(cells))
	for _, c := range cells {
		if err := rt.ArrayAppend(id, c); err != nil {
			ferr := rt.FreeUnmanaged(id)
			_ = ferr
			return Cell{}, err
		}
	}
	rt.Manage(id)
	return BlockCell(id), nil
}

// MustNewBlock is NewBlock for construction sites that only pass stable
// cells; an antiform there is a core bug.
func (rt *Runtime) MustNewBlock(cells ...Cell) Cell {
	c, err := rt.NewBlock(cells...)
	if err != nil {
		panic("vm: MustNewBlock: " + err.Error())
	}
	return c
}

// ---------------------------------------------------------------------------
// Byte-buffer access (text and binary)
// ---------------------------------------------------------------------------

// NewText allocates a managed text value with the given content.
func (rt *Runtime) NewText(content string) Cell {
	id := rt.AllocStub(FlavorBytes, len(content))
	s := rt.stub(id)
	s.bytes = append(s.bytes, content...)
	rt.Manage(id)
	return TextCell(id)
}

// NewBinary allocates a managed binary value with a copy of the bytes.
func (rt *Runtime) NewBinary(content []byte) Cell {
	id := rt.AllocStub(FlavorBytes, len(content))
	s := rt.stub(id)
	s.bytes = append(s.bytes, content...)
	rt.Manage(id)
	return BinaryCell(id)
}

// TextContent returns the string content of a text cell from its position
// to the tail. Panics on the wrong heart; returns "" for freed data (the
// caller paths that care use BytesAccess).
func (rt *Runtime) TextContent(c Cell) string {
	if c.heart != HeartText {
		panic("vm: TextContent on " + c.heart.String())
	}
	s, err := rt.StubAccess(c.node)
	if err != nil {
		return ""
	}
	if c.index >= len(s.bytes) {
		return ""
	}
	return string(s.bytes[c.index:])
}

// BytesAccess returns the byte payload of a text or binary cell from its
// position, with a defined error for freed data.
func (rt *Runtime) BytesAccess(c Cell) ([]byte, error) {
	if c.heart != HeartText && c.heart != HeartBinary {
		panic("vm: BytesAccess on " + c.heart.String())
	}
	s, err := rt.StubAccess(c.node)
	if err != nil {
		return nil, err
	}
	if c.index > len(s.bytes) {
		return nil, ErrIndexOutOfRange
	}
	return s.bytes[c.index:], nil
}
