package vm

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Runtime is one interpreter instance: arena, symbol table, module
// contexts, native registry, and the evaluator state. Runtimes are
// independent except for the canon symbol table and the default random
// stream, which are process-wide.
//
// A Runtime is not safe for concurrent evaluation; the signal requests
// (halt, interrupt, recycle) are the only methods other goroutines may
// call while it runs.
type Runtime struct {
	ID uuid.UUID

	arena   *arena
	gc      gcState
	symbols *SymbolTable

	hitches    map[*Symbol]StubID // symbol -> first patch across all seas
	userSea    StubID             // default context scripts evaluate in
	errKeylist StubID             // shared keylist of every ERROR! varlist

	top   *Level
	depth int

	sigs       atomic.Uint32
	sigNow     atomic.Bool
	tickRemain int
	tickPeriod int
	servicing  bool

	natives  []*Native
	generics map[genericKey]GenericFunc
	rng      *Rand
	devices  []Device
}

// Config tunes a new Runtime. Zero values take the defaults.
type Config struct {
	Ballast    int // allocations between GC requests
	TickPeriod int // bounces between signal checks
	Rand       *Rand
}

// NewRuntime boots a runtime with default tuning.
func NewRuntime() *Runtime {
	return NewRuntimeWith(Config{})
}

// NewRuntimeWith boots a runtime: arena, symbol table, error shape, user
// context, and the native set.
func NewRuntimeWith(cfg Config) *Runtime {
	if cfg.Ballast <= 0 {
		cfg.Ballast = defaultBallast
	}
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = defaultTickPeriod
	}
	if cfg.Rand == nil {
		cfg.Rand = defaultRand
	}

	rt := &Runtime{
		ID:       uuid.New(),
		arena:    newArena(),
		symbols:  NewSymbolTable(),
		hitches:  make(map[*Symbol]StubID),
		generics: make(map[genericKey]GenericFunc),
		rng:      cfg.Rand,
	}
	rt.gc.ballast = cfg.Ballast
	rt.gc.ballastMax = cfg.Ballast
	rt.tickPeriod = cfg.TickPeriod
	rt.tickRemain = cfg.TickPeriod

	rt.errKeylist = rt.AllocStub(FlavorKeyList, numErrFields)
	ks := rt.stub(rt.errKeylist)
	ks.syms = append(ks.syms,
		rt.symbols.Intern("id"),
		rt.symbols.Intern("message"),
		rt.symbols.Intern("near"))
	rt.Manage(rt.errKeylist)

	rt.userSea = rt.NewSea()
	rt.bootNatives()

	log.Infof("runtime %s booted: %d natives, ballast %d",
		rt.ID, len(rt.natives), cfg.Ballast)
	return rt
}

// Symbols returns the runtime's symbol table.
func (rt *Runtime) Symbols() *SymbolTable { return rt.symbols }

// UserContext returns the sea scripts evaluate in.
func (rt *Runtime) UserContext() StubID { return rt.userSea }

// Intern is shorthand for interning in the runtime's symbol table.
func (rt *Runtime) Intern(spelling string) *Symbol {
	return rt.symbols.Intern(spelling)
}

// Declare adds a variable to the user context.
func (rt *Runtime) Declare(name string, value Cell) error {
	_, err := rt.SeaDeclare(rt.userSea, rt.Intern(name), value)
	return err
}

// BindUser binds a block's words into the user context, recursing into
// nested arrays, and points its environment at the user sea for natives.
func (rt *Runtime) BindUser(block Cell) (Cell, error) {
	if err := rt.BindBlockDeep(block, rt.userSea); err != nil {
		return Cell{}, err
	}
	return block, nil
}

// Run binds a block into the user context and evaluates it.
func (rt *Runtime) Run(block Cell) (Cell, error) {
	bound, err := rt.BindUser(block)
	if err != nil {
		return Cell{}, err
	}
	return rt.DoBlock(bound)
}

// RunSource scans, binds, and evaluates Rill source text.
func (rt *Runtime) RunSource(source string) (Cell, error) {
	block, err := rt.Scan(source)
	if err != nil {
		return Cell{}, err
	}
	return rt.Run(block)
}

// LiveStubs reports the arena's live stub count, for GC verification.
func (rt *Runtime) LiveStubs() int { return rt.arena.Live() }
