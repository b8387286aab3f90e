package vm

// The trampoline is the only loop that runs dispatchers. Dispatchers never
// call each other; they return Bounces and this loop pushes, pops, and
// unwinds levels, so a hundred thousand Rill activations cost a hundred
// thousand heap Levels and zero extra Go stack.

// phaseCaught is the phase the trampoline parks a level in when it delivers
// a caught throw or a trapped error into the level's spare slot.
const phaseCaught = -1

// Trampoline runs a level to completion and returns its result. A raised
// error that no Rescue trapped reaches the implicit top-level trap here and
// comes back as a *RaisedError; the runtime itself stays usable. A throw
// nothing caught is ErrNoCatch, except the reserved halt label which is
// ErrHalted.
func (rt *Runtime) Trampoline(base *Level) (Cell, error) {
	floor := rt.depth
	rt.pushLevel(base)

	var b Bounce
	for {
		if rt.checkSignals() {
			if sb, ok := rt.processSignals(); ok {
				b = sb
				goto unwind
			}
		}

		b = rt.top.disp(rt, rt.top)

	unwind:
		switch b.kind {
		case bounceOut:
			lvl := rt.dropLevel()
			*lvl.dest = b.value
			if rt.depth == floor {
				return b.value, nil
			}

		case bounceContinue:
			rt.pushLevel(b.next)

		case bounceDelegate:
			cur := rt.dropLevel()
			b.next.dest = cur.dest
			rt.pushLevel(b.next)

		case bounceThrown:
			isHalt := rt.symbols.SynonymOf(b.label.Word(), canonHalt)
			for rt.depth > floor {
				lvl := rt.top
				if !isHalt && lvl.catchSym != nil &&
					rt.symbols.SynonymOf(lvl.catchSym, b.label.Word()) {
					lvl.spare = b.value
					lvl.phase = phaseCaught
					break
				}
				rt.dropLevel()
			}
			if rt.depth == floor {
				if isHalt {
					return Cell{}, ErrHalted
				}
				return Cell{}, ErrNoCatch
			}

		case bounceFail:
			for rt.depth > floor {
				lvl := rt.top
				if lvl.traps {
					// Deliver the error as an inspectable plain value.
					cell := b.value
					cell.lift = LiftPlain
					lvl.spare = cell
					lvl.phase = phaseCaught
					break
				}
				rt.dropLevel()
			}
			if rt.depth == floor {
				// Implicit top-level trap: always installed, last to fire.
				return Cell{}, &RaisedError{
					Cell:     b.value,
					Rendered: rt.FormatError(b.value),
				}
			}
		}
	}
}

// DoBlock evaluates a block and returns the value of its last expression
// (void for an empty block). This is the host entry point.
func (rt *Runtime) DoBlock(block Cell) (Cell, error) {
	if !block.Heart().IsArrayLike() {
		panic("vm: DoBlock on " + block.Heart().String())
	}
	return rt.Trampoline(rt.evalLevel(block))
}
