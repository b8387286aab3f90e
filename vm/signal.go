package vm

// Asynchronous requests into the evaluator. Any goroutine may set a signal
// bit; the trampoline services them at safe points, either when the tick
// countdown runs out or immediately on the next bounce if the immediate
// flag is up. Servicing is self-masking: a handler that itself evaluates
// (or allocates) will not re-enter signal processing.

const (
	sigRecycle uint32 = 1 << iota
	sigHalt
	sigInterrupt
)

const defaultTickPeriod = 256

// RequestRecycle asks for a garbage collection at the next safe point.
func (rt *Runtime) RequestRecycle() {
	rt.sigs.Or(sigRecycle)
	rt.sigNow.Store(true)
}

// RequestHalt asks the evaluator to stop. Safe to call from any goroutine;
// the running evaluation unwinds completely and reports ErrHalted. The
// runtime stays usable afterward.
func (rt *Runtime) RequestHalt() {
	rt.sigs.Or(sigHalt)
	rt.sigNow.Store(true)
}

// RequestInterrupt asks for a debug break at the next safe point.
func (rt *Runtime) RequestInterrupt() {
	rt.sigs.Or(sigInterrupt)
	rt.sigNow.Store(true)
}

// Halting reports whether a halt is pending. Long-running natives (wait,
// heavy loops) poll this to stay responsive between safe points.
func (rt *Runtime) Halting() bool {
	return rt.sigs.Load()&sigHalt != 0
}

// checkSignals decides whether this bounce is a service point: either the
// immediate flag is up or the tick countdown expired.
func (rt *Runtime) checkSignals() bool {
	if rt.sigNow.Swap(false) {
		rt.tickRemain = rt.tickPeriod
		return rt.sigs.Load() != 0
	}
	rt.tickRemain--
	if rt.tickRemain > 0 {
		return false
	}
	rt.tickRemain = rt.tickPeriod
	return rt.sigs.Load() != 0
}

// processSignals services pending signals in fixed priority order: recycle
// first (reclaim before anything else runs), then halt, then interrupt.
// Returns a non-Out bounce if a signal turns into control flow.
func (rt *Runtime) processSignals() (Bounce, bool) {
	if rt.servicing {
		return Bounce{}, false
	}
	rt.servicing = true
	defer func() { rt.servicing = false }()

	if rt.sigs.Load()&sigRecycle != 0 {
		rt.sigs.And(^sigRecycle)
		rt.Recycle()
	}

	if rt.sigs.Load()&sigHalt != 0 {
		rt.sigs.And(^sigHalt)
		log.Info("halt requested, unwinding")
		return Thrown(WordCell(canonHalt), VoidCell()), true
	}

	if rt.sigs.Load()&sigInterrupt != 0 {
		rt.sigs.And(^sigInterrupt)
		return rt.FailWith(ErrDebugBreak), true
	}

	return Bounce{}, false
}
