package vm

// Binding connects a word-like cell to storage for its variable. The zero
// Binding means unbound. The target's flavor decides how the index is
// interpreted:
//
//	FlavorVarList: index is the slot position in the varlist
//	FlavorPatch:   index is unused; the patch holds exactly one variable
//
// A binding is cached addressing, not ownership: the word's symbol is still
// authoritative, and rebinding just overwrites the cache.
type Binding struct {
	target StubID
	index  int
}

// IsZero returns true for the unbound state.
func (b Binding) IsZero() bool { return b == Binding{} }

// Target returns the stub the binding points into.
func (b Binding) Target() StubID { return b.target }

// BindWord attaches a word-like cell to a context so later fetches are O(1)
// slot addressing. The context may be a varlist (objects, frames) or a sea
// (modules). Returns ErrUnboundWord if the context has no variable for the
// word's symbol; the cell is left untouched in that case.
func (rt *Runtime) BindWord(word *Cell, context StubID) error {
	if !word.Heart().IsWordLike() {
		panic("vm: BindWord on " + word.Heart().String())
	}
	s, err := rt.StubAccess(context)
	if err != nil {
		return err
	}
	switch s.flavor {
	case FlavorVarList:
		index, ok := rt.FindKey(context, word.Word())
		if !ok {
			return ErrUnboundWord
		}
		word.SetBinding(Binding{target: context, index: index})
		return nil
	case FlavorSea:
		patch, ok := rt.SeaFind(context, word.Word())
		if !ok {
			return ErrUnboundWord
		}
		word.SetBinding(Binding{target: patch})
		return nil
	default:
		return ErrStubFlavor
	}
}

// BindBlockDeep walks a block's cells and binds every word-like cell whose
// symbol the context knows, recursing into nested arrays. Words the context
// does not know keep their current binding. This is the bulk-bind used when
// attaching code to an object or module.
func (rt *Runtime) BindBlockDeep(block Cell, context StubID) error {
	if !block.Heart().IsArrayLike() {
		panic("vm: BindBlockDeep on " + block.Heart().String())
	}
	s, err := rt.StubAccess(block.Node())
	if err != nil {
		return err
	}
	for i := range s.cells {
		c := s.cells[i]
		switch {
		case c.Heart().IsWordLike():
			if err := rt.BindWord(&c, context); err == nil {
				s.cells[i] = c
			} else if err != ErrUnboundWord {
				return err
			}
			s = rt.stub(block.Node()) // re-fetch, slot may have moved
		case c.Heart().IsArrayLike():
			if err := rt.BindBlockDeep(c, context); err != nil {
				return err
			}
			s = rt.stub(block.Node())
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Virtual binding
// ---------------------------------------------------------------------------

// MakeOverlay creates a virtual-bind patch: a single-variable overlay that
// shadows sym with value for any lookup that consults it, chaining to next
// (another overlay patch, or zero). The shared block being overlaid is
// never mutated; the overlay travels on the cell's binding instead.
func (rt *Runtime) MakeOverlay(sym *Symbol, value Cell, next StubID) (StubID, error) {
	if err := value.Decay(); err != nil {
		return StubID{}, err
	}
	patch := rt.AllocStub(FlavorPatch, 1)
	s := rt.stub(patch)
	s.sym = sym
	s.link = next
	s.cells = append(s.cells, Cell{})
	s.cells[0] = value
	rt.Manage(patch)
	return patch, nil
}

// VirtualBind returns a copy of an array cell whose binding is the overlay
// chain. Lookups through the copy see the overlay's variables first; the
// original cell and its stub are untouched.
func (rt *Runtime) VirtualBind(array Cell, overlay StubID) Cell {
	if !array.Heart().IsArrayLike() {
		panic("vm: VirtualBind on " + array.Heart().String())
	}
	out := array
	out.SetBinding(Binding{target: overlay})
	return out
}

// resolveOverlay walks an overlay chain for a symbol. Returns the patch
// holding it, or false if no overlay in the chain shadows the symbol.
func (rt *Runtime) resolveOverlay(chain StubID, sym *Symbol) (StubID, bool) {
	for !chain.IsZero() {
		s, err := rt.StubAccess(chain)
		if err != nil {
			return StubID{}, false
		}
		if s.flavor != FlavorPatch {
			return StubID{}, false
		}
		if rt.symbols.SynonymOf(s.sym, sym) {
			return chain, true
		}
		chain = s.link
	}
	return StubID{}, false
}

// ---------------------------------------------------------------------------
// Variable fetch and store through a binding
// ---------------------------------------------------------------------------

// FetchWord reads the variable a word is bound to. Distinguishes the two
// failure modes a caller may want to react to differently: ErrUnboundWord
// (no binding at all) and ErrUnsetWord (bound, but nothing stored yet).
func (rt *Runtime) FetchWord(word Cell) (Cell, error) {
	if !word.Heart().IsWordLike() {
		panic("vm: FetchWord on " + word.Heart().String())
	}
	b := word.Binding()
	if b.IsZero() {
		return Cell{}, ErrUnboundWord
	}
	s, err := rt.StubAccess(b.target)
	if err != nil {
		return Cell{}, err
	}
	var slot Cell
	switch s.flavor {
	case FlavorVarList:
		if b.index < 0 || b.index >= len(s.cells) {
			return Cell{}, ErrIndexOutOfRange
		}
		slot = s.cells[b.index]
	case FlavorPatch:
		slot = s.cells[0]
	default:
		return Cell{}, ErrStubFlavor
	}
	if slot.Heart() == HeartNone {
		return Cell{}, ErrUnsetWord
	}
	return slot, nil
}

// StoreWord writes the variable a word is bound to. The value is decayed
// first: stable antiforms (null, void, logic) are legal variable contents,
// raised errors and other unstable antiforms are refused.
func (rt *Runtime) StoreWord(word Cell, value Cell) error {
	if !word.Heart().IsWordLike() {
		panic("vm: StoreWord on " + word.Heart().String())
	}
	if err := value.Decay(); err != nil {
		return err
	}
	b := word.Binding()
	if b.IsZero() {
		return ErrUnboundWord
	}
	s, err := rt.StubAccess(b.target)
	if err != nil {
		return err
	}
	if s.IsFrozen() {
		return ErrStubFrozen
	}
	switch s.flavor {
	case FlavorVarList:
		if b.index < 0 || b.index >= len(s.cells) {
			return ErrIndexOutOfRange
		}
		s.cells[b.index] = value
	case FlavorPatch:
		s.cells[0] = value
	default:
		return ErrStubFlavor
	}
	return nil
}
