package vm

import (
	"strings"
	"sync"
)

// ---------------------------------------------------------------------------
// SymID: built-in symbol identifiers
// ---------------------------------------------------------------------------

// SymID is the small-integer identifier of a built-in symbol. User-interned
// symbols all report the zero ID, so two SymIDs comparing "equal" means
// nothing unless both are built-ins. To keep that mistake from compiling at
// all, SymID embeds a non-comparable field: `a == b` on SymIDs is a compile
// error. Compare symbols by *Symbol identity; use Symbol.BuiltinID for
// canon-table indexing.
type SymID struct {
	_ [0]func() // disallows ==
	n uint16
}

// IsZero returns true for the ID carried by every non-built-in symbol.
func (id SymID) IsZero() bool { return id.n == 0 }

// Builtin symbol numbers. These index the canon table directly.
const (
	symInvalid = iota

	symNull
	symVoid
	symTrue
	symFalse
	symHalt
	symBreak
	symContinue
	symReturn

	// generic verbs
	symAdd
	symSubtract
	symMultiply
	symDivide
	symNegate
	symCompare
	symLength
	symPick
	symPoke
	symCopy
	symRandomV

	// core native names
	symQuote
	symMeta
	symUnmeta
	symIf
	symEither
	symWhile
	symRepeat
	symCatch
	symThrow
	symRescue
	symDo
	symWait
	symSetRandom
	symRandomInt
	symRandomDec

	numBuiltinSyms
)

var builtinSpellings = [numBuiltinSyms]string{
	symNull:      "null",
	symVoid:      "void",
	symTrue:      "true",
	symFalse:     "false",
	symHalt:      "halt",
	symBreak:     "break",
	symContinue:  "continue",
	symReturn:    "return",
	symAdd:       "add",
	symSubtract:  "subtract",
	symMultiply:  "multiply",
	symDivide:    "divide",
	symNegate:    "negate",
	symCompare:   "compare",
	symLength:    "length",
	symPick:      "pick",
	symPoke:      "poke",
	symCopy:      "copy",
	symRandomV:   "random",
	symQuote:     "quote",
	symMeta:      "meta",
	symUnmeta:    "unmeta",
	symIf:        "if",
	symEither:    "either",
	symWhile:     "while",
	symRepeat:    "repeat",
	symCatch:     "catch",
	symThrow:     "throw",
	symRescue:    "rescue",
	symDo:        "do",
	symWait:      "wait",
	symSetRandom: "set-random",
	symRandomInt: "random-int",
	symRandomDec: "random-dec",
}

// ---------------------------------------------------------------------------
// Symbol
// ---------------------------------------------------------------------------

// Symbol is an interned, immutable UTF-8 spelling. Case-variant spellings
// intern to distinct Symbols linked on a circular synonym ring, so "foo"
// and "FOO" compare unequal by identity but are reachable from each other.
// Built-in symbols additionally carry a fixed SymID and live in the canon
// table shared by every Runtime in the process.
type Symbol struct {
	spelling string
	id       SymID
	synonym  *Symbol // circular ring of case variants (self if alone)
}

// Spelling returns the symbol's exact UTF-8 spelling.
func (s *Symbol) Spelling() string { return s.spelling }

// BuiltinID returns the symbol's built-in ID and true, or the zero ID and
// false for user symbols. The false case is why unwrapped ID comparison is
// forbidden: every user symbol reports the same zero.
func (s *Symbol) BuiltinID() (SymID, bool) {
	return s.id, !s.id.IsZero()
}

// IsSynonymOf returns true if other spells the same word ignoring case.
// Identity (s == other) also counts.
func (s *Symbol) IsSynonymOf(other *Symbol) bool {
	if s == other {
		return true
	}
	for syn := s.synonym; syn != s; syn = syn.synonym {
		if syn == other {
			return true
		}
	}
	return false
}

// canon table: built once at package init, shared by all runtimes. The
// spellings are immutable so sharing is safe; per-runtime state (module
// patches, synonym rings for user spellings) lives on the Runtime's
// SymbolTable, never on a canon Symbol.
var canonTable [numBuiltinSyms]*Symbol

var (
	canonNull  *Symbol
	canonVoid  *Symbol
	canonTrue  *Symbol
	canonFalse *Symbol
	canonHalt  *Symbol
)

func init() {
	for n := 1; n < numBuiltinSyms; n++ {
		sym := &Symbol{
			spelling: builtinSpellings[n],
			id:       SymID{n: uint16(n)},
		}
		sym.synonym = sym
		canonTable[n] = sym
	}
	canonNull = canonTable[symNull]
	canonVoid = canonTable[symVoid]
	canonTrue = canonTable[symTrue]
	canonFalse = canonTable[symFalse]
	canonHalt = canonTable[symHalt]
}

// CanonSymbol returns the built-in symbol for a non-zero SymID in O(1).
// Panics on the zero ID: user symbols have no canon slot.
func CanonSymbol(id SymID) *Symbol {
	if id.n == 0 || int(id.n) >= numBuiltinSyms {
		panic("vm: CanonSymbol with non-builtin ID")
	}
	return canonTable[id.n]
}

// ---------------------------------------------------------------------------
// SymbolTable
// ---------------------------------------------------------------------------

// SymbolTable interns spellings for one Runtime. It is seeded with the
// canon built-ins; everything else is allocated on first intern. Go map
// growth keeps the table scaled to total symbol count.
type SymbolTable struct {
	mu     sync.RWMutex
	exact  map[string]*Symbol // spelling -> symbol, byte-exact
	folded map[string]*Symbol // casefolded spelling -> ring entry point
}

// NewSymbolTable creates a table pre-seeded with the built-in symbols.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{
		exact:  make(map[string]*Symbol, numBuiltinSyms*2),
		folded: make(map[string]*Symbol, numBuiltinSyms*2),
	}
	for n := 1; n < numBuiltinSyms; n++ {
		sym := canonTable[n]
		st.exact[sym.spelling] = sym
		st.folded[foldSpelling(sym.spelling)] = sym
	}
	return st
}

func foldSpelling(s string) string {
	return strings.ToLower(s)
}

// Intern returns the Symbol for a spelling, reusing a byte-identical match
// and ring-linking case variants. Calling Intern twice with the same bytes
// returns the same *Symbol.
//
// Splicing a user variant into a canon symbol's ring would mutate shared
// process state, so case variants of built-ins get their own per-runtime
// ring head and are linked via the folded map instead.
func (st *SymbolTable) Intern(spelling string) *Symbol {
	st.mu.RLock()
	if sym, ok := st.exact[spelling]; ok {
		st.mu.RUnlock()
		return sym
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	if sym, ok := st.exact[spelling]; ok {
		return sym
	}

	sym := &Symbol{spelling: spelling}
	sym.synonym = sym

	folded := foldSpelling(spelling)
	if head, ok := st.folded[folded]; ok {
		if head.id.IsZero() {
			// Splice into the existing synonym ring.
			sym.synonym = head.synonym
			head.synonym = sym
		}
		// Canon ring heads stay untouched; SynonymOf falls back to the
		// folded map for them.
	} else {
		st.folded[folded] = sym
	}
	st.exact[spelling] = sym
	return sym
}

// Lookup returns the symbol for an exact spelling, or nil.
func (st *SymbolTable) Lookup(spelling string) *Symbol {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.exact[spelling]
}

// SynonymOf reports whether two symbols interned in this table spell the
// same word ignoring case. Unlike Symbol.IsSynonymOf it also covers case
// variants of built-in symbols, whose rings cannot be spliced.
func (st *SymbolTable) SynonymOf(a, b *Symbol) bool {
	if a.IsSynonymOf(b) {
		return true
	}
	return foldSpelling(a.spelling) == foldSpelling(b.spelling)
}

// Len returns the number of interned symbols (built-ins included).
func (st *SymbolTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.exact)
}
