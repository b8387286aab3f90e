package vm

// Level is one activation frame of the trampoline. Levels are Go-heap
// allocated and linked through prior, so Rill-level nesting depth costs
// heap, never Go stack. A dispatcher never calls another dispatcher; it
// returns a Bounce and the trampoline does the walking.
type Level struct {
	out  Cell  // result of this level once it completes
	dest *Cell // where the trampoline writes out on completion

	feed  *Feed
	disp  Dispatcher
	phase int

	native *Native // set for action application levels
	args   []Cell
	spare  Cell // scratch slot: caught throw payloads, loop state

	// catch/rescue markers consulted during unwinding
	catchSym *Symbol // non-nil: this level catches throws with this label
	traps    bool    // true: this level rescues raised errors

	prior *Level
}

// Dispatcher is the Go function driving one level. It is re-entered by the
// trampoline after every Continue it issues, with phase telling it where it
// left off.
type Dispatcher func(*Runtime, *Level) Bounce

// Arg returns a collected argument of an action application level.
func (l *Level) Arg(i int) Cell {
	if i < 0 || i >= len(l.args) {
		panic("vm: Level.Arg out of range")
	}
	return l.args[i]
}

// eachRoot reports every cell the GC must treat as reachable from this
// level. The feed's array is reported as a synthetic block cell so the
// mark phase only has one kind of root to understand.
func (l *Level) eachRoot(fn func(Cell)) {
	fn(l.out)
	fn(l.spare)
	for _, a := range l.args {
		fn(a)
	}
	if l.feed != nil {
		arr := BlockCell(l.feed.array)
		arr.bind = l.feed.env
		fn(arr)
	}
}

// ---------------------------------------------------------------------------
// Level stack
// ---------------------------------------------------------------------------

// pushLevel makes lvl the running level. dest defaults to the level's own
// out cell when the caller did not redirect it.
func (rt *Runtime) pushLevel(lvl *Level) {
	if lvl.dest == nil {
		lvl.dest = &lvl.out
	}
	lvl.prior = rt.top
	rt.top = lvl
	rt.depth++
}

// dropLevel pops the running level.
func (rt *Runtime) dropLevel() *Level {
	lvl := rt.top
	if lvl == nil {
		panic("vm: dropLevel on empty stack")
	}
	rt.top = lvl.prior
	rt.depth--
	return lvl
}

// Depth returns the current level stack depth.
func (rt *Runtime) Depth() int { return rt.depth }
