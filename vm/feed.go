package vm

// Feed is a read cursor over the cell array being evaluated, plus the
// binding environment words picked out of it should resolve through. Levels
// that consume expressions from their caller's input (argument gathering,
// set-word assignment) share the same Feed pointer, so advancing it in one
// level is seen by all of them.
type Feed struct {
	array StubID
	index int
	env   Binding // overlay chain consulted before a word's own binding
}

// NewFeed creates a feed positioned at an array cell's index, inheriting
// the cell's binding as the environment.
func (rt *Runtime) NewFeed(array Cell) *Feed {
	if !array.Heart().IsArrayLike() {
		panic("vm: NewFeed on " + array.Heart().String())
	}
	return &Feed{
		array: array.Node(),
		index: array.Index(),
		env:   array.Binding(),
	}
}

// AtEnd returns true if no cells remain.
func (f *Feed) AtEnd(rt *Runtime) bool {
	n, err := rt.ArrayLen(f.array)
	if err != nil {
		return true
	}
	return f.index >= n
}

// Next returns the cell under the cursor and advances. ErrNeedsValue at
// end of input.
func (f *Feed) Next(rt *Runtime) (Cell, error) {
	c, err := rt.ArrayAt(f.array, f.index)
	if err != nil {
		if err == ErrIndexOutOfRange {
			return Cell{}, ErrNeedsValue
		}
		return Cell{}, err
	}
	f.index++
	return c, nil
}

// Peek returns the cell under the cursor without advancing, and false at
// end of input.
func (f *Feed) Peek(rt *Runtime) (Cell, bool) {
	c, err := rt.ArrayAt(f.array, f.index)
	if err != nil {
		return Cell{}, false
	}
	return c, true
}

// resolveWord resolves a word through the feed's environment first, then
// the word's own binding. The environment is an overlay chain from
// VirtualBind; a hit there shadows whatever the word was bound to.
func (rt *Runtime) resolveWord(f *Feed, word Cell) (Cell, error) {
	if f != nil && !f.env.IsZero() {
		if patch, ok := rt.resolveOverlay(f.env.target, word.Word()); ok {
			shadow := word
			shadow.SetBinding(Binding{target: patch})
			return rt.FetchWord(shadow)
		}
	}
	value, err := rt.FetchWord(word)
	if err == ErrUnboundWord {
		// Unbound words fall back to the user context, the way natives and
		// script variables are found without an explicit bind pass.
		return rt.SeaGet(rt.userSea, word.Word())
	}
	return value, err
}

// storeWord stores through the feed's environment first, mirroring
// resolveWord.
func (rt *Runtime) storeWord(f *Feed, word Cell, value Cell) error {
	if f != nil && !f.env.IsZero() {
		if patch, ok := rt.resolveOverlay(f.env.target, word.Word()); ok {
			shadow := word
			shadow.SetBinding(Binding{target: patch})
			return rt.StoreWord(shadow, value)
		}
	}
	err := rt.StoreWord(word, value)
	if err == ErrUnboundWord {
		// A set-word with no binding declares in the user context.
		sym := word.Word()
		if _, ok := rt.SeaFind(rt.userSea, sym); ok {
			return rt.SeaSet(rt.userSea, sym, value)
		}
		_, derr := rt.SeaDeclare(rt.userSea, sym, value)
		return derr
	}
	return err
}
