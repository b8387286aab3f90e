package vm

// Native is a Go-implemented action: a parameter spec checked before entry
// and a body dispatcher that may Continue and Delegate like any other
// level driver.
type Native struct {
	name   *Symbol
	params []Param
	body   Dispatcher
}

// Param describes one parameter of a native.
type Param struct {
	name    string
	literal bool    // take the next feed item unevaluated
	raw     bool    // accept any state, raised errors included
	hearts  []Heart // empty: any stable value
}

// Name returns the native's interned name.
func (n *Native) Name() *Symbol { return n.name }

// checkArgs validates collected arguments against the parameter spec.
func (n *Native) checkArgs(args []Cell) error {
	if len(args) != len(n.params) {
		return ErrBadArity
	}
	for i := range n.params {
		p := &n.params[i]
		if p.raw || p.literal {
			continue
		}
		arg := &args[i]
		if arg.IsRaised() {
			return ErrRaisedDecay
		}
		if len(p.hearts) == 0 {
			continue
		}
		if arg.QuoteLevel() > 0 || arg.Lift() != LiftPlain {
			return ErrBadArgType
		}
		ok := false
		for _, h := range p.hearts {
			if arg.Heart() == h {
				ok = true
				break
			}
		}
		if !ok {
			return ErrBadArgType
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Native registry
// ---------------------------------------------------------------------------

// RegisterNative adds a native to the registry and declares it in the user
// context under its name. Returns the action value.
func (rt *Runtime) RegisterNative(name string, params []Param, body Dispatcher) Cell {
	sym := rt.symbols.Intern(name)
	nat := &Native{name: sym, params: params, body: body}
	rt.natives = append(rt.natives, nat)
	action := ActionCell(len(rt.natives) - 1)
	if _, err := rt.SeaDeclare(rt.userSea, sym, action); err != nil {
		panic("vm: RegisterNative " + name + ": " + err.Error())
	}
	return action
}

func (rt *Runtime) nativeAt(index int) *Native {
	if index < 0 || index >= len(rt.natives) {
		panic("vm: native index out of range")
	}
	return rt.natives[index]
}

// ---------------------------------------------------------------------------
// Generic dispatch
// ---------------------------------------------------------------------------

// GenericFunc implements one verb for one heart. It receives the validated
// argument cells of the generic's application level.
type GenericFunc func(rt *Runtime, args []Cell) Bounce

type genericKey struct {
	verb  uint16
	heart Heart
}

// RegisterGeneric installs the handler for a verb and heart. The verb must
// be a built-in symbol; per-heart specialization is how `add 1 2` and
// `add 1x2 3x4` share a name without either knowing about the other.
func (rt *Runtime) RegisterGeneric(verb SymID, heart Heart, fn GenericFunc) {
	if verb.IsZero() {
		panic("vm: RegisterGeneric with non-builtin verb")
	}
	rt.generics[genericKey{verb: verb.n, heart: heart}] = fn
}

// dispatchGeneric routes a generic application on its first argument's
// heart. An unhandled verb and heart pair raises illegal-action.
func (rt *Runtime) dispatchGeneric(verb SymID, lvl *Level) Bounce {
	heart := lvl.args[0].Heart()
	fn, ok := rt.generics[genericKey{verb: verb.n, heart: heart}]
	if !ok {
		return rt.FailWith(ErrIllegalAction)
	}
	return fn(rt, lvl.args)
}

// genericBody wraps a verb into a native body dispatcher.
func (rt *Runtime) genericBody(verb SymID) Dispatcher {
	return func(rt *Runtime, lvl *Level) Bounce {
		return rt.dispatchGeneric(verb, lvl)
	}
}
