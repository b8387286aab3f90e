package vm

// Cooperative mark-and-sweep over the stub arena. Collection only ever runs
// at a trampoline safe point: allocation sites request it through the
// signal mechanism and keep going, so the mark phase never observes a
// half-constructed stub that a builder is still filling in. Builders keep
// new stubs unmanaged or guarded until they are fully formed.

type gcState struct {
	ballast    int // allocations remaining until a recycle is requested
	ballastMax int
	disabled   int  // nesting depth of DisableRecycle
	deferred   bool // a recycle was requested while disabled

	guards []StubID

	recycles  uint64
	lastSwept int
}

const defaultBallast = 10_000

// ---------------------------------------------------------------------------
// Guards
// ---------------------------------------------------------------------------

// PushGuard roots a stub against collection until the matching DropGuards.
// This is the builder protocol: a managed stub that is reachable only from
// Go locals must be guarded across any call that may hit a safe point.
func (rt *Runtime) PushGuard(id StubID) int {
	rt.gc.guards = append(rt.gc.guards, id)
	return len(rt.gc.guards) - 1
}

// DropGuards pops guards down to a mark previously returned by PushGuard.
func (rt *Runtime) DropGuards(mark int) {
	if mark < 0 || mark > len(rt.gc.guards) {
		panic("vm: DropGuards with bad mark")
	}
	rt.gc.guards = rt.gc.guards[:mark]
}

// ---------------------------------------------------------------------------
// Enable/disable
// ---------------------------------------------------------------------------

// DisableRecycle suspends collection. Nests; each call must be paired with
// EnableRecycle. A recycle requested while disabled is deferred, not
// dropped: it fires at the first safe point after re-enabling.
func (rt *Runtime) DisableRecycle() {
	rt.gc.disabled++
}

// EnableRecycle re-enables collection after DisableRecycle.
func (rt *Runtime) EnableRecycle() {
	if rt.gc.disabled == 0 {
		panic("vm: EnableRecycle without DisableRecycle")
	}
	rt.gc.disabled--
	if rt.gc.disabled == 0 && rt.gc.deferred {
		rt.gc.deferred = false
		rt.RequestRecycle()
	}
}

// ---------------------------------------------------------------------------
// Recycle
// ---------------------------------------------------------------------------

// Recycle runs a full mark-and-sweep and returns the number of stubs
// reclaimed. When collection is disabled the request is deferred and 0 is
// returned. Callers outside the trampoline must be sure no unguarded
// managed stub is in flight.
func (rt *Runtime) Recycle() int {
	if rt.gc.disabled > 0 {
		rt.gc.deferred = true
		return 0
	}

	rt.markRoots()
	swept := rt.sweep()

	rt.gc.ballast = rt.gc.ballastMax
	rt.gc.recycles++
	rt.gc.lastSwept = swept
	log.Debugf("recycle #%d: swept %d stubs, %d live", rt.gc.recycles, swept, rt.arena.Live())
	return swept
}

func (rt *Runtime) markRoots() {
	// Guard stack.
	for _, id := range rt.gc.guards {
		rt.markStub(id)
	}

	// Level stack: out cells, argument slots, feed arrays.
	for lvl := rt.top; lvl != nil; lvl = lvl.prior {
		lvl.eachRoot(rt.markCell)
	}

	// Module system: every declared patch, and through it its sea.
	for _, patch := range rt.hitches {
		for !patch.IsZero() {
			rt.markStub(patch)
			patch = rt.stub(patch).hitch
		}
	}

	// Shared error shape and the user context.
	rt.markStub(rt.errKeylist)
	rt.markStub(rt.userSea)
}

func (rt *Runtime) markCell(c Cell) {
	if c.Heart() == HeartNone {
		return
	}
	switch c.Heart() {
	case HeartText, HeartBinary, HeartBlock, HeartGroup, HeartObject,
		HeartError, HeartPort:
		rt.markStub(c.node)
	}
	rt.markStub(c.Binding().target)
}

func (rt *Runtime) markStub(id StubID) {
	if id.IsZero() {
		return
	}
	s := rt.stub(id)
	if s.flags&flagMarked != 0 || s.IsInaccessible() {
		return
	}
	s.flags |= flagMarked

	for i := range s.cells {
		rt.markCell(s.cells[i])
	}
	rt.markStub(s.link)
	rt.markStub(s.misc)
	rt.markStub(s.hitch)
}

func (rt *Runtime) sweep() int {
	swept := 0
	a := rt.arena
	for idx := 1; idx < len(a.slots); idx++ {
		s := &a.slots[idx]
		if s.flavor == FlavorNone {
			continue // free slot
		}
		if !s.IsManaged() {
			// Caller-owned, never swept. The mark bit still comes off so
			// the next mark phase retraces this stub's references.
			s.flags &^= flagMarked
			continue
		}
		if s.IsInaccessible() {
			// Slot retained so stale reads keep a defined error.
			s.flags &^= flagMarked
			continue
		}
		if s.flags&flagMarked != 0 {
			s.flags &^= flagMarked
			continue
		}
		rt.releaseSlot(uint32(idx), s)
		swept++
	}
	return swept
}
