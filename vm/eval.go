package vm

// Two dispatchers drive evaluation. evalDispatcher runs a whole feed of
// expressions, keeping the last value; evalOnceDispatcher evaluates exactly
// one expression from a (usually shared) feed. Argument gathering and
// set-word assignment reuse evalOnceDispatcher on the caller's feed, which
// is how `x: add 1 2` consumes the right number of items.

// evalDispatcher: run every expression in the feed, Out the last value
// (void if the feed was empty or all barriers).
func evalDispatcher(rt *Runtime, lvl *Level) Bounce {
	if lvl.phase == phaseCaught {
		// A throw this level catches (loop bodies catch `continue`).
		return Out(lvl.spare)
	}

	// Skip expression barriers between steps.
	for {
		item, ok := lvl.feed.Peek(rt)
		if !ok {
			return Out(lvl.out)
		}
		if item.Heart() != HeartComma || item.QuoteLevel() > 0 ||
			item.Lift() != LiftPlain {
			break
		}
		lvl.feed.index++
	}

	sub := &Level{feed: lvl.feed, disp: evalOnceDispatcher}
	return Continue(sub, &lvl.out)
}

// onceStoreWord is the re-entry phase of a set-word assignment: spare holds
// the set-word, out holds its freshly evaluated value.
const onceStoreWord = 1

// evalOnceDispatcher: evaluate one expression.
func evalOnceDispatcher(rt *Runtime, lvl *Level) Bounce {
	if lvl.phase == onceStoreWord {
		if err := rt.storeWord(lvl.feed, lvl.spare, lvl.out); err != nil {
			return rt.FailWith(err)
		}
		return Out(lvl.out)
	}

	item, err := lvl.feed.Next(rt)
	if err != nil {
		return rt.FailWith(err)
	}

	// Quoted: evaluation drops one quote level, payload untouched.
	if item.QuoteLevel() > 0 {
		if err := item.Unquotify(1); err != nil {
			return rt.FailWith(err)
		}
		return Out(item)
	}

	// Quasiform: evaluation produces the antiform.
	if item.IsQuasiform() {
		item.lift = LiftAnti
		return Out(item)
	}

	switch item.Heart() {
	case HeartWord:
		value, err := rt.resolveWord(lvl.feed, item)
		if err != nil {
			return rt.FailWith(err)
		}
		if value.Heart() == HeartAction {
			return Delegate(rt.applyLevel(value, lvl.feed))
		}
		return Out(value)

	case HeartGetWord:
		// Fetch without invoking: actions come back as values.
		plain := item
		plain.heart = HeartWord
		value, err := rt.resolveWord(lvl.feed, plain)
		if err != nil {
			return rt.FailWith(err)
		}
		return Out(value)

	case HeartSetWord:
		if lvl.feed.AtEnd(rt) {
			return rt.FailWith(ErrNeedsValue)
		}
		lvl.spare = item
		lvl.phase = onceStoreWord
		sub := &Level{feed: lvl.feed, disp: evalOnceDispatcher}
		return Continue(sub, &lvl.out)

	case HeartGroup:
		return Delegate(rt.evalLevel(item))

	case HeartAction:
		return Delegate(rt.applyLevel(item, lvl.feed))

	case HeartComma:
		// Barrier reached mid-expression: nothing was produced.
		return rt.FailWith(ErrNeedsValue)

	default:
		// Everything else is its own value.
		return Out(item)
	}
}

// evalLevel builds a whole-array evaluation level for a block or group.
func (rt *Runtime) evalLevel(array Cell) *Level {
	lvl := &Level{feed: rt.NewFeed(array), disp: evalDispatcher}
	lvl.out = VoidCell()
	return lvl
}

// applyLevel builds the activation level for an action, gathering its
// arguments from the given feed.
func (rt *Runtime) applyLevel(action Cell, feed *Feed) *Level {
	nat := rt.nativeAt(action.NativeIndex())
	return &Level{
		feed:   feed,
		disp:   applyDispatcher,
		native: nat,
		args:   make([]Cell, len(nat.params)),
	}
}

// applyDispatcher: phases 0..arity-1 gather one argument each, phase arity
// validates the parameter spec and enters the native body. Body phases
// start at arity; phaseCaught also goes to the body (catch and rescue use
// it).
func applyDispatcher(rt *Runtime, lvl *Level) Bounce {
	nat := lvl.native
	arity := len(nat.params)

	for lvl.phase >= 0 && lvl.phase < arity {
		p := lvl.phase
		if nat.params[p].literal {
			item, err := lvl.feed.Next(rt)
			if err != nil {
				return rt.FailWith(ErrBadArity)
			}
			lvl.args[p] = item
			lvl.phase = p + 1
			continue
		}
		if lvl.feed.AtEnd(rt) {
			return rt.FailWith(ErrBadArity)
		}
		lvl.phase = p + 1
		sub := &Level{feed: lvl.feed, disp: evalOnceDispatcher}
		return Continue(sub, &lvl.args[p])
	}

	if lvl.phase == arity {
		if err := nat.checkArgs(lvl.args); err != nil {
			return rt.FailWith(err)
		}
	}
	return nat.body(rt, lvl)
}
