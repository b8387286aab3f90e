package vm

// Contexts come in two shapes. A varlist is the fixed-shape kind: a keylist
// of symbols parallel to a slot array, used for objects, frames, and error
// values. A sea is the sparse kind used for modules: no keylist, just one
// patch stub per declared variable, discoverable through the symbol's hitch
// chain. A varlist costs one stub for any number of variables; a sea costs
// one stub per variable but lets unrelated modules grow independently.

// ---------------------------------------------------------------------------
// VarList
// ---------------------------------------------------------------------------

// NewVarList allocates a managed varlist with the given keys, every slot
// unset. Duplicate keys (case-insensitive) are refused.
func (rt *Runtime) NewVarList(keys ...*Symbol) (StubID, error) {
	for i, a := range keys {
		for _, b := range keys[:i] {
			if rt.symbols.SynonymOf(a, b) {
				return StubID{}, ErrDupKey
			}
		}
	}

	keylist := rt.AllocStub(FlavorKeyList, len(keys))
	ks := rt.stub(keylist)
	ks.syms = append(ks.syms, keys...)

	varlist := rt.AllocStub(FlavorVarList, len(keys))
	vs := rt.stub(varlist)
	vs.link = keylist
	vs.cells = vs.cells[:0]
	for range keys {
		vs.cells = append(vs.cells, Cell{})
	}

	rt.Manage(keylist)
	rt.Manage(varlist)
	return varlist, nil
}

// FindKey returns the slot index of a symbol in a varlist's keylist, case
// insensitively.
func (rt *Runtime) FindKey(varlist StubID, sym *Symbol) (int, bool) {
	vs, err := rt.StubAccess(varlist)
	if err != nil || vs.flavor != FlavorVarList {
		return 0, false
	}
	ks, err := rt.StubAccess(vs.link)
	if err != nil {
		return 0, false
	}
	for i, key := range ks.syms {
		if rt.symbols.SynonymOf(key, sym) {
			return i, true
		}
	}
	return 0, false
}

// KeyAt returns the symbol of a varlist slot.
func (rt *Runtime) KeyAt(varlist StubID, index int) (*Symbol, error) {
	vs, err := rt.StubAccess(varlist)
	if err != nil {
		return nil, err
	}
	if vs.flavor != FlavorVarList {
		return nil, ErrStubFlavor
	}
	ks, err := rt.StubAccess(vs.link)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ks.syms) {
		return nil, ErrIndexOutOfRange
	}
	return ks.syms[index], nil
}

// GetSlot reads a varlist slot by index. ErrUnsetWord for a slot nothing
// was stored into yet.
func (rt *Runtime) GetSlot(varlist StubID, index int) (Cell, error) {
	vs, err := rt.StubAccess(varlist)
	if err != nil {
		return Cell{}, err
	}
	if vs.flavor != FlavorVarList {
		return Cell{}, ErrStubFlavor
	}
	if index < 0 || index >= len(vs.cells) {
		return Cell{}, ErrIndexOutOfRange
	}
	slot := vs.cells[index]
	if slot.Heart() == HeartNone {
		return Cell{}, ErrUnsetWord
	}
	return slot, nil
}

// SetSlot writes a varlist slot by index. Same storage boundary as
// StoreWord: the value is decayed, so stable antiforms land as-is and
// unstable ones are refused.
func (rt *Runtime) SetSlot(varlist StubID, index int, value Cell) error {
	if err := value.Decay(); err != nil {
		return err
	}
	vs, err := rt.StubAccess(varlist)
	if err != nil {
		return err
	}
	if vs.flavor != FlavorVarList {
		return ErrStubFlavor
	}
	if vs.IsFrozen() {
		return ErrStubFrozen
	}
	if index < 0 || index >= len(vs.cells) {
		return ErrIndexOutOfRange
	}
	vs.cells[index] = value
	return nil
}

// ---------------------------------------------------------------------------
// SeaOfVars
// ---------------------------------------------------------------------------

// NewSea allocates a managed, empty module context.
func (rt *Runtime) NewSea() StubID {
	sea := rt.AllocStub(FlavorSea, 0)
	rt.Manage(sea)
	return sea
}

// SeaDeclare adds a variable to a sea, creating its patch stub and hooking
// it into both the sea's patch list and the symbol's hitch chain. Declaring
// a symbol twice in the same sea is refused.
func (rt *Runtime) SeaDeclare(sea StubID, sym *Symbol, value Cell) (StubID, error) {
	if err := value.Decay(); err != nil {
		return StubID{}, err
	}
	ss, err := rt.StubAccess(sea)
	if err != nil {
		return StubID{}, err
	}
	if ss.flavor != FlavorSea {
		return StubID{}, ErrStubFlavor
	}
	if _, exists := rt.SeaFind(sea, sym); exists {
		return StubID{}, ErrDupKey
	}

	patch := rt.AllocStub(FlavorPatch, 1)
	ps := rt.stub(patch)
	ps.sym = sym
	ps.misc = sea
	ps.cells = append(ps.cells, Cell{})
	ps.cells[0] = value

	ss = rt.stub(sea) // re-fetch, slot may have moved
	ps.link = ss.link
	ss.link = patch

	ps.hitch = rt.hitches[sym]
	rt.hitches[sym] = patch

	rt.Manage(patch)
	return patch, nil
}

// SeaFind locates the patch for a symbol in a sea by walking the symbol's
// hitch chain, checking each patch's owner. The chain only holds patches
// for this exact symbol and its ring, so the walk is proportional to how
// many modules declare the name, not to module size.
func (rt *Runtime) SeaFind(sea StubID, sym *Symbol) (StubID, bool) {
	for _, variant := range rt.symbolVariants(sym) {
		for patch := rt.hitches[variant]; !patch.IsZero(); {
			ps, err := rt.StubAccess(patch)
			if err != nil {
				break
			}
			if ps.misc == sea {
				return patch, true
			}
			patch = ps.hitch
		}
	}
	return StubID{}, false
}

// symbolVariants returns the symbol plus its interned case variants, so
// sea lookup honors the same case-insensitivity as keylist lookup.
func (rt *Runtime) symbolVariants(sym *Symbol) []*Symbol {
	variants := []*Symbol{sym}
	for syn := sym.synonym; syn != sym; syn = syn.synonym {
		variants = append(variants, syn)
	}
	return variants
}

// SeaGet reads a module variable.
func (rt *Runtime) SeaGet(sea StubID, sym *Symbol) (Cell, error) {
	patch, ok := rt.SeaFind(sea, sym)
	if !ok {
		return Cell{}, ErrUnboundWord
	}
	ps, err := rt.StubAccess(patch)
	if err != nil {
		return Cell{}, err
	}
	slot := ps.cells[0]
	if slot.Heart() == HeartNone {
		return Cell{}, ErrUnsetWord
	}
	return slot, nil
}

// SeaSet writes a module variable that was already declared.
func (rt *Runtime) SeaSet(sea StubID, sym *Symbol, value Cell) error {
	if err := value.Decay(); err != nil {
		return err
	}
	patch, ok := rt.SeaFind(sea, sym)
	if !ok {
		return ErrUnboundWord
	}
	ps, err := rt.StubAccess(patch)
	if err != nil {
		return err
	}
	if ps.IsFrozen() {
		return ErrStubFrozen
	}
	ps.cells[0] = value
	return nil
}
