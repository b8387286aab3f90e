package vm

import (
	"errors"
	"fmt"
)

// Go-side sentinel errors for the mechanical failure modes of the cell and
// stub layers. Evaluator-level failures travel as raised ERROR! cells (see
// Runtime.FailCell and the Bounce protocol); these sentinels are what the
// evaluator wraps into those cells at the boundary.
var (
	// Quote state machine.
	ErrQuoteOverflow       = errors.New("vm: quote level exceeds 126")
	ErrQuoteUnderflow      = errors.New("vm: unquotify below zero")
	ErrUnacknowledgedRaise = errors.New("vm: meta-unquotify of raised error without acknowledgment")
	ErrNotMetaError        = errors.New("vm: not a meta-quoted error")

	// Truthiness and decay.
	ErrVoidConditional   = errors.New("vm: conditional test of void")
	ErrRaisedConditional = errors.New("vm: conditional test of raised error")
	ErrRaisedDecay       = errors.New("vm: raised error must be rescued or meta-quoted")
	ErrAntiformDecay     = errors.New("vm: antiform must be decayed before storage")

	// Storage boundaries.
	ErrAntiformStore = errors.New("vm: cannot store antiform in compound value")

	// Stub arena.
	ErrSeriesFreed   = errors.New("vm: series data already freed")
	ErrStubManaged   = errors.New("vm: stub is managed; only the GC may free it")
	ErrStubCapacity  = errors.New("vm: expansion below current length")
	ErrStubFlavor    = errors.New("vm: operation not valid for stub flavor")
	ErrStubFrozen    = errors.New("vm: stub is frozen")
	ErrIndexOutOfRange = errors.New("vm: index out of range")

	// Binding.
	ErrUnboundWord = errors.New("vm: word is not bound to any context")
	ErrUnsetWord   = errors.New("vm: word is bound but its variable is unset")
	ErrDupKey      = errors.New("vm: key already present in context")

	// Dispatch.
	ErrIllegalAction = errors.New("vm: action not defined for datatype")
	ErrBadArgType    = errors.New("vm: argument violates parameter type spec")
	ErrBadArity      = errors.New("vm: wrong number of arguments")

	// Evaluation.
	ErrZeroDivide    = errors.New("vm: zero divide")
	ErrNoCatch       = errors.New("vm: no catch for throw")
	ErrHalted        = errors.New("vm: evaluation halted")
	ErrDebugBreak    = errors.New("vm: debug interrupt requested but no debugger is attached")
	ErrNotAnAction   = errors.New("vm: word does not look up to an action")
	ErrNeedsValue    = errors.New("vm: expression expected a value and none was produced")

	// Devices.
	ErrWaitInterrupted = errors.New("vm: wait interrupted")
)

// Error varlists use a fixed field shape: id, message, near. The keylist
// is shared between all error objects of a runtime.
const (
	errFieldID = iota
	errFieldMessage
	errFieldNear
	numErrFields
)

// MakeError allocates a managed ERROR! value with the given machine id and
// human message. The cell is returned plain (not raised); callers that are
// failing should Raisify it or go through FailCell.
func (rt *Runtime) MakeError(id string, message string) Cell {
	varlist := rt.AllocStub(FlavorVarList, numErrFields)

	// Texts are allocated before touching the varlist stub pointer again:
	// allocation may grow the arena and relocate slots.
	idText := rt.NewText(id)
	msgText := rt.NewText(message)

	stub := rt.stub(varlist)
	stub.link = rt.errKeylist
	stub.cells = append(stub.cells, idText, msgText, BlankCell())

	rt.Manage(varlist)
	return ErrorCell(varlist)
}

// FailCell wraps a Go error into a raised ERROR! value. Sentinels carry
// their text directly; anything else becomes an "internal" error id.
func (rt *Runtime) FailCell(err error) Cell {
	id := "internal"
	switch {
	case errors.Is(err, ErrUnboundWord):
		id = "unbound-word"
	case errors.Is(err, ErrUnsetWord):
		id = "unset-word"
	case errors.Is(err, ErrAntiformStore):
		id = "antiform-store"
	case errors.Is(err, ErrSeriesFreed):
		id = "series-freed"
	case errors.Is(err, ErrIllegalAction):
		id = "illegal-action"
	case errors.Is(err, ErrBadArgType):
		id = "bad-arg-type"
	case errors.Is(err, ErrBadArity):
		id = "bad-arity"
	case errors.Is(err, ErrZeroDivide):
		id = "zero-divide"
	case errors.Is(err, ErrNoCatch):
		id = "no-catch"
	case errors.Is(err, ErrHalted):
		id = "halted"
	case errors.Is(err, ErrDebugBreak):
		id = "debug-break"
	case errors.Is(err, ErrVoidConditional):
		id = "void-conditional"
	case errors.Is(err, ErrRaisedConditional), errors.Is(err, ErrRaisedDecay):
		id = "raised-error"
	case errors.Is(err, ErrAntiformDecay):
		id = "antiform-decay"
	case errors.Is(err, ErrQuoteOverflow), errors.Is(err, ErrQuoteUnderflow):
		id = "quote-depth"
	case errors.Is(err, ErrIndexOutOfRange):
		id = "out-of-range"
	case errors.Is(err, ErrWaitInterrupted):
		id = "wait-interrupted"
	case errors.Is(err, ErrNotAnAction):
		id = "not-an-action"
	case errors.Is(err, ErrNeedsValue):
		id = "needs-value"
	}
	cell := rt.MakeError(id, err.Error())
	cell.Raisify()
	return cell
}

// ErrorID returns the machine id of an ERROR! cell (raised or plain).
func (rt *Runtime) ErrorID(c Cell) string {
	if c.Heart() != HeartError {
		panic("vm: ErrorID on " + c.Heart().String())
	}
	stub := rt.stub(c.node)
	field := stub.cells[errFieldID]
	return rt.TextContent(field)
}

// ErrorMessage returns the human message of an ERROR! cell.
func (rt *Runtime) ErrorMessage(c Cell) string {
	if c.Heart() != HeartError {
		panic("vm: ErrorMessage on " + c.Heart().String())
	}
	stub := rt.stub(c.node)
	field := stub.cells[errFieldMessage]
	return rt.TextContent(field)
}

// FormatError renders an error for host-side reporting.
func (rt *Runtime) FormatError(c Cell) string {
	return fmt.Sprintf("** error [%s]: %s", rt.ErrorID(c), rt.ErrorMessage(c))
}

// RaisedError is the Go error the evaluator returns when a raised ERROR!
// escapes the outermost trap. It keeps the cell so hosts can inspect the
// fields, and satisfies error for plumbing through non-evaluator code.
type RaisedError struct {
	Cell    Cell
	Rendered string
}

func (e *RaisedError) Error() string { return e.Rendered }
