package vm

// The boot native set. Bodies are dispatchers entered by applyDispatcher at
// phase == arity with arguments collected and checked; multi-step natives
// advance their phase and Continue, exactly like the evaluator itself.

func (rt *Runtime) bootNatives() {
	anyHeart := []Heart(nil)
	blockish := []Heart{HeartBlock, HeartGroup}
	numeric := []Heart{HeartInteger, HeartDecimal, HeartPair}
	series := []Heart{HeartBlock, HeartGroup, HeartText, HeartBinary}

	rt.RegisterNative("quote", []Param{
		{name: "value", literal: true},
	}, nativeQuote)

	rt.RegisterNative("meta", []Param{
		{name: "value", raw: true},
	}, nativeMeta)

	rt.RegisterNative("unmeta", []Param{
		{name: "value", hearts: anyHeart},
	}, nativeUnmeta)

	rt.RegisterNative("if", []Param{
		{name: "condition", raw: true},
		{name: "branch", hearts: blockish},
	}, nativeIf)

	rt.RegisterNative("either", []Param{
		{name: "condition", raw: true},
		{name: "true-branch", hearts: blockish},
		{name: "false-branch", hearts: blockish},
	}, nativeEither)

	rt.RegisterNative("while", []Param{
		{name: "condition", hearts: blockish},
		{name: "body", hearts: blockish},
	}, nativeWhile)

	rt.RegisterNative("repeat", []Param{
		{name: "count", hearts: []Heart{HeartInteger}},
		{name: "body", hearts: blockish},
	}, nativeRepeat)

	rt.RegisterNative("catch", []Param{
		{name: "label", literal: true},
		{name: "body", hearts: blockish},
	}, nativeCatch)

	rt.RegisterNative("throw", []Param{
		{name: "label", literal: true},
		{name: "value", raw: true},
	}, nativeThrow)

	rt.RegisterNative("rescue", []Param{
		{name: "body", hearts: blockish},
	}, nativeRescue)

	rt.RegisterNative("do", []Param{
		{name: "source", hearts: []Heart{HeartBlock, HeartGroup, HeartText}},
	}, nativeDo)

	rt.RegisterNative("break", nil, nativeBreak)
	rt.RegisterNative("continue", nil, nativeContinue)
	rt.RegisterNative("halt", nil, nativeHalt)

	rt.RegisterNative("wait", nil, nativeWait)

	rt.RegisterNative("set-random", []Param{
		{name: "seed", hearts: []Heart{HeartInteger}},
	}, nativeSetRandom)
	rt.RegisterNative("random-int", nil, nativeRandomInt)
	rt.RegisterNative("random-dec", nil, nativeRandomDec)

	// Generic verbs: one native per verb, per-heart handlers below.
	rt.RegisterNative("add", []Param{
		{name: "value1", hearts: numeric},
		{name: "value2", hearts: numeric},
	}, rt.genericBody(SymID{n: symAdd}))
	rt.RegisterNative("subtract", []Param{
		{name: "value1", hearts: numeric},
		{name: "value2", hearts: numeric},
	}, rt.genericBody(SymID{n: symSubtract}))
	rt.RegisterNative("multiply", []Param{
		{name: "value1", hearts: numeric},
		{name: "value2", hearts: numeric},
	}, rt.genericBody(SymID{n: symMultiply}))
	rt.RegisterNative("divide", []Param{
		{name: "value1", hearts: numeric},
		{name: "value2", hearts: numeric},
	}, rt.genericBody(SymID{n: symDivide}))
	rt.RegisterNative("negate", []Param{
		{name: "value", hearts: numeric},
	}, rt.genericBody(SymID{n: symNegate}))
	rt.RegisterNative("compare", []Param{
		{name: "value1", hearts: nil},
		{name: "value2", hearts: nil},
	}, rt.genericBody(SymID{n: symCompare}))
	rt.RegisterNative("length", []Param{
		{name: "series", hearts: series},
	}, rt.genericBody(SymID{n: symLength}))
	rt.RegisterNative("pick", []Param{
		{name: "series", hearts: series},
		{name: "index", hearts: []Heart{HeartInteger}},
	}, rt.genericBody(SymID{n: symPick}))
	rt.RegisterNative("poke", []Param{
		{name: "series", hearts: series},
		{name: "index", hearts: []Heart{HeartInteger}},
		{name: "value", hearts: nil},
	}, rt.genericBody(SymID{n: symPoke}))
	rt.RegisterNative("copy", []Param{
		{name: "series", hearts: series},
	}, rt.genericBody(SymID{n: symCopy}))
	rt.RegisterNative("random", []Param{
		{name: "max", hearts: []Heart{HeartInteger}},
	}, rt.genericBody(SymID{n: symRandomV}))

	// Comparison predicates, logic-valued sugar over compare.
	rt.RegisterNative("equal", []Param{
		{name: "value1", hearts: nil},
		{name: "value2", hearts: nil},
	}, orderPredicate(func(order int) bool { return order == 0 }))
	rt.RegisterNative("greater", []Param{
		{name: "value1", hearts: nil},
		{name: "value2", hearts: nil},
	}, orderPredicate(func(order int) bool { return order > 0 }))
	rt.RegisterNative("lesser", []Param{
		{name: "value1", hearts: nil},
		{name: "value2", hearts: nil},
	}, orderPredicate(func(order int) bool { return order < 0 }))

	rt.bootGenerics()

	// Word-reachable constants.
	for name, value := range map[string]Cell{
		"true":  LogicCell(true),
		"false": LogicCell(false),
		"null":  NullCell(),
		"void":  VoidCell(),
	} {
		if err := rt.Declare(name, value); err != nil {
			panic("vm: boot constant " + name + ": " + err.Error())
		}
	}
}

// ---------------------------------------------------------------------------
// Simple natives
// ---------------------------------------------------------------------------

func nativeQuote(rt *Runtime, lvl *Level) Bounce {
	return Out(lvl.Arg(0))
}

func nativeMeta(rt *Runtime, lvl *Level) Bounce {
	v := lvl.Arg(0)
	if err := v.MetaQuotify(); err != nil {
		return rt.FailWith(err)
	}
	return Out(v)
}

func nativeUnmeta(rt *Runtime, lvl *Level) Bounce {
	v := lvl.Arg(0)
	if err := v.MetaUnquotify(); err != nil {
		return rt.FailWith(err)
	}
	return Out(v)
}

func nativeBreak(rt *Runtime, lvl *Level) Bounce {
	return Thrown(WordCell(canonTable[symBreak]), NullCell())
}

func nativeContinue(rt *Runtime, lvl *Level) Bounce {
	return Thrown(WordCell(canonTable[symContinue]), VoidCell())
}

func nativeHalt(rt *Runtime, lvl *Level) Bounce {
	return Thrown(WordCell(canonHalt), VoidCell())
}

func orderPredicate(hit func(order int) bool) Dispatcher {
	return func(rt *Runtime, lvl *Level) Bounce {
		order, err := rt.compareCells(lvl.Arg(0), lvl.Arg(1))
		if err != nil {
			return rt.FailWith(err)
		}
		return Out(LogicCell(hit(order)))
	}
}

// ---------------------------------------------------------------------------
// Branching
// ---------------------------------------------------------------------------

func nativeIf(rt *Runtime, lvl *Level) Bounce {
	cond := lvl.Arg(0)
	truthy, err := cond.IsTruthy()
	if err != nil {
		return rt.FailWith(err)
	}
	if !truthy {
		return Out(NullCell())
	}
	return Delegate(rt.evalLevel(lvl.Arg(1)))
}

func nativeEither(rt *Runtime, lvl *Level) Bounce {
	cond := lvl.Arg(0)
	truthy, err := cond.IsTruthy()
	if err != nil {
		return rt.FailWith(err)
	}
	if truthy {
		return Delegate(rt.evalLevel(lvl.Arg(1)))
	}
	return Delegate(rt.evalLevel(lvl.Arg(2)))
}

// ---------------------------------------------------------------------------
// Loops
//
// Loops catch `break` on their own level (result: null) and wrap each body
// run in a level that catches `continue`, so a continue finishes just that
// iteration.
// ---------------------------------------------------------------------------

func loopBody(rt *Runtime, body Cell) *Level {
	lvl := rt.evalLevel(body)
	lvl.catchSym = canonTable[symContinue]
	return lvl
}

const (
	whileInit = 2 // entry: set up, evaluate the condition into spare
	whileTest = 3 // condition result in spare, maybe run the body
	whileLoop = 4 // body finished, re-evaluate the condition
)

func nativeWhile(rt *Runtime, lvl *Level) Bounce {
	switch lvl.phase {
	case phaseCaught: // break
		return Out(NullCell())

	case whileInit:
		lvl.out = NullCell()
		lvl.catchSym = canonTable[symBreak]
		lvl.phase = whileTest
		return Continue(rt.evalLevel(lvl.Arg(0)), &lvl.spare)

	case whileTest:
		truthy, err := lvl.spare.IsTruthy()
		if err != nil {
			return rt.FailWith(err)
		}
		if !truthy {
			return Out(lvl.out)
		}
		lvl.phase = whileLoop
		return Continue(loopBody(rt, lvl.Arg(1)), &lvl.out)

	case whileLoop:
		lvl.phase = whileTest
		return Continue(rt.evalLevel(lvl.Arg(0)), &lvl.spare)
	}
	panic("vm: while in impossible phase")
}

const repeatStep = 3

func nativeRepeat(rt *Runtime, lvl *Level) Bounce {
	switch lvl.phase {
	case phaseCaught: // break
		return Out(NullCell())

	case repeatStep:
	default:
		lvl.out = NullCell()
		lvl.spare = lvl.Arg(0)
		lvl.catchSym = canonTable[symBreak]
		lvl.phase = repeatStep
	}

	remaining := lvl.spare.Int64()
	if remaining <= 0 {
		return Out(lvl.out)
	}
	lvl.spare = IntegerCell(remaining - 1)
	return Continue(loopBody(rt, lvl.Arg(1)), &lvl.out)
}

// ---------------------------------------------------------------------------
// Throw / catch / rescue
// ---------------------------------------------------------------------------

const catchDone = 3

func nativeCatch(rt *Runtime, lvl *Level) Bounce {
	switch lvl.phase {
	case phaseCaught:
		return Out(lvl.spare)
	case catchDone:
		return Out(lvl.out)
	}
	label := lvl.Arg(0)
	if !label.Heart().IsWordLike() {
		return rt.FailWith(ErrBadArgType)
	}
	lvl.catchSym = label.Word()
	lvl.phase = catchDone
	return Continue(rt.evalLevel(lvl.Arg(1)), &lvl.out)
}

func nativeThrow(rt *Runtime, lvl *Level) Bounce {
	label := lvl.Arg(0)
	if !label.Heart().IsWordLike() {
		return rt.FailWith(ErrBadArgType)
	}
	return Thrown(label, lvl.Arg(1))
}

const rescueDone = 2

func nativeRescue(rt *Runtime, lvl *Level) Bounce {
	switch lvl.phase {
	case phaseCaught:
		// The trapped error, delivered as a plain inspectable value.
		return Out(lvl.spare)
	case rescueDone:
		return Out(NullCell())
	}
	lvl.traps = true
	lvl.phase = rescueDone
	return Continue(rt.evalLevel(lvl.Arg(0)), &lvl.out)
}

// ---------------------------------------------------------------------------
// Do
// ---------------------------------------------------------------------------

func nativeDo(rt *Runtime, lvl *Level) Bounce {
	src := lvl.Arg(0)
	if src.Heart() == HeartText {
		text, err := rt.BytesAccess(src)
		if err != nil {
			return rt.FailWith(err)
		}
		block, err := rt.Scan(string(text))
		if err != nil {
			return rt.FailWith(err)
		}
		return Delegate(rt.evalLevel(block))
	}
	return Delegate(rt.evalLevel(src))
}

// ---------------------------------------------------------------------------
// Wait
// ---------------------------------------------------------------------------

// nativeWait polls every registered device once per trampoline pass, so a
// pending halt or recycle is serviced between polls. Null means no device
// will ever produce activity; an interrupted wait is a raised error, which
// is a different outcome than running out of data.
func nativeWait(rt *Runtime, lvl *Level) Bounce {
	if rt.Halting() {
		rt.sigs.And(^sigHalt)
		return rt.FailWith(ErrWaitInterrupted)
	}
	if len(rt.devices) == 0 {
		return Out(NullCell())
	}
	for _, dev := range rt.devices {
		activity, err := dev.Poll()
		if err != nil {
			return rt.FailWith(err)
		}
		if activity {
			return Out(LogicCell(true))
		}
	}
	return Continue(rt.yieldLevel(), &lvl.spare)
}

// yieldLevel is a no-op level: continuing into it returns control to the
// trampoline for one pass (signal servicing included) and comes right back.
func (rt *Runtime) yieldLevel() *Level {
	return &Level{disp: func(rt *Runtime, lvl *Level) Bounce {
		return Out(VoidCell())
	}}
}

// ---------------------------------------------------------------------------
// Random
// ---------------------------------------------------------------------------

func nativeSetRandom(rt *Runtime, lvl *Level) Bounce {
	seed := lvl.Arg(0)
	rt.rng.Seed(seed.Int64())
	return Out(VoidCell())
}

func nativeRandomInt(rt *Runtime, lvl *Level) Bounce {
	return Out(IntegerCell(rt.rng.Next()))
}

func nativeRandomDec(rt *Runtime, lvl *Level) Bounce {
	return Out(DecimalCell(rt.rng.Float()))
}
