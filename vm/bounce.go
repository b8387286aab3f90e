package vm

// Bounce is what a dispatcher hands back to the trampoline instead of
// calling deeper: a finished value, a request to run a sub-level and come
// back (Continue), a request to be replaced by a sub-level (Delegate), a
// labeled throw unwinding cooperatively, or a raised error unwinding to the
// nearest trap. The union keeps native Go stack depth flat no matter how
// deeply Rill code nests.
type Bounce struct {
	kind  bounceKind
	value Cell   // Out: result; Thrown: payload; Fail: raised ERROR!
	label Cell   // Thrown: the label word
	next  *Level // Continue/Delegate: the sub-level to run
}

type bounceKind uint8

const (
	bounceOut bounceKind = iota
	bounceContinue
	bounceDelegate
	bounceThrown
	bounceFail
)

// Out finishes the level with a result.
func Out(value Cell) Bounce {
	return Bounce{kind: bounceOut, value: value}
}

// Continue suspends the level, runs sub, and re-enters the same dispatcher
// (with whatever phase it advanced to) once sub completes. The sub-level's
// result lands in dest.
func Continue(sub *Level, dest *Cell) Bounce {
	sub.dest = dest
	return Bounce{kind: bounceContinue, next: sub}
}

// Delegate abandons the current level: sub takes over its place, result
// destination and all. The current dispatcher is never re-entered.
func Delegate(sub *Level) Bounce {
	return Bounce{kind: bounceDelegate, next: sub}
}

// Thrown starts a cooperative non-local exit labeled with a word. Levels
// unwind until one declares it catches that label.
func Thrown(label Cell, payload Cell) Bounce {
	if !label.Heart().IsWordLike() {
		panic("vm: Thrown with non-word label")
	}
	return Bounce{kind: bounceThrown, label: label, value: payload}
}

// FailWith raises a Go error as a Rill raised ERROR!, unwinding to the
// nearest trap.
func (rt *Runtime) FailWith(err error) Bounce {
	return Bounce{kind: bounceFail, value: rt.FailCell(err)}
}

// FailCellBounce raises an already-built ERROR! cell.
func (rt *Runtime) FailCellBounce(cell Cell) Bounce {
	if cell.Heart() != HeartError {
		panic("vm: FailCellBounce on " + cell.Heart().String())
	}
	cell.Raisify()
	return Bounce{kind: bounceFail, value: cell}
}
