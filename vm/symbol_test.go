package vm

import "testing"

func TestInternIdentity(t *testing.T) {
	st := NewSymbolTable()
	a := st.Intern("frobnicate")
	b := st.Intern("frobnicate")
	if a != b {
		t.Error("byte-identical spellings should intern to the same Symbol")
	}
	if a.Spelling() != "frobnicate" {
		t.Errorf("spelling = %q", a.Spelling())
	}
}

func TestInternCaseVariants(t *testing.T) {
	st := NewSymbolTable()
	lower := st.Intern("widget")
	upper := st.Intern("WIDGET")
	mixed := st.Intern("Widget")

	if lower == upper || lower == mixed || upper == mixed {
		t.Fatal("case variants must be distinct Symbols")
	}
	if !lower.IsSynonymOf(upper) || !upper.IsSynonymOf(mixed) || !mixed.IsSynonymOf(lower) {
		t.Error("case variants should all be on one synonym ring")
	}
	if !st.SynonymOf(lower, upper) {
		t.Error("SynonymOf should agree with the ring")
	}

	stranger := st.Intern("gadget")
	if lower.IsSynonymOf(stranger) {
		t.Error("different words are not synonyms")
	}
}

func TestBuiltinIDs(t *testing.T) {
	st := NewSymbolTable()
	quote := st.Intern("quote")
	id, ok := quote.BuiltinID()
	if !ok {
		t.Fatal("quote should be a built-in")
	}
	if CanonSymbol(id) != quote {
		t.Error("CanonSymbol should return the canon entry")
	}

	user := st.Intern("definitely-not-builtin")
	if uid, ok := user.BuiltinID(); ok || !uid.IsZero() {
		t.Error("user symbols report the zero ID")
	}
}

func TestBuiltinCaseVariant(t *testing.T) {
	st := NewSymbolTable()
	canon := st.Intern("quote")
	shouty := st.Intern("QUOTE")
	if canon == shouty {
		t.Fatal("case variant of a built-in is a distinct Symbol")
	}
	if _, ok := shouty.BuiltinID(); ok {
		t.Error("case variant carries no built-in ID")
	}
	if !st.SynonymOf(canon, shouty) {
		t.Error("case variant of a built-in is still its synonym")
	}
}

func TestCanonSymbolZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("CanonSymbol on the zero ID should panic")
		}
	}()
	CanonSymbol(SymID{})
}

func TestSymbolTableSeparateRuntimes(t *testing.T) {
	// Two tables share canon symbols but not user symbols.
	a := NewSymbolTable()
	b := NewSymbolTable()
	if a.Intern("if") != b.Intern("if") {
		t.Error("built-ins are process-wide")
	}
	if a.Intern("mine") == b.Intern("mine") {
		t.Error("user symbols are per-table")
	}
}

func TestSymbolTableLen(t *testing.T) {
	st := NewSymbolTable()
	base := st.Len()
	st.Intern("one")
	st.Intern("one")
	st.Intern("two")
	if got := st.Len(); got != base+2 {
		t.Errorf("Len = %d, want %d", got, base+2)
	}
}
