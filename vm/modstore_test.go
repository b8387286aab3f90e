package vm

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *ModuleStore {
	t.Helper()
	ms, err := OpenModuleStore(filepath.Join(t.TempDir(), "modules.db"))
	if err != nil {
		t.Fatalf("OpenModuleStore: %v", err)
	}
	t.Cleanup(func() { ms.Close() })
	return ms
}

func TestModuleStoreRoundTrip(t *testing.T) {
	rt := NewRuntime()
	ms := openTestStore(t)

	source := "exported: add 1 2"
	block, err := rt.Scan(source)
	if err != nil {
		t.Fatal(err)
	}

	hash, err := ms.Save(rt, "demo.rill", source, block)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if hash != HashSource(source) {
		t.Errorf("hash = %q, want content hash", hash)
	}

	gotSource, exports, err := ms.Load(rt, hash)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotSource != source {
		t.Errorf("source = %q, want %q", gotSource, source)
	}
	if rt.Mold(exports) != rt.Mold(block) {
		t.Errorf("exports = %s, want %s", rt.Mold(exports), rt.Mold(block))
	}

	// And the cached block still evaluates.
	out, err := rt.Run(exports)
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, out, 3)
}

func TestModuleStoreContentAddressing(t *testing.T) {
	rt := NewRuntime()
	ms := openTestStore(t)

	block, err := rt.Scan("1")
	if err != nil {
		t.Fatal(err)
	}
	h1, err := ms.Save(rt, "one.rill", "1", block)
	if err != nil {
		t.Fatal(err)
	}
	// Identical source, different name: same row.
	h2, err := ms.Save(rt, "uno.rill", "1", block)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("identical source hashed differently: %q vs %q", h1, h2)
	}

	ok, err := ms.Contains("1")
	if err != nil || !ok {
		t.Errorf("Contains(known) = %v, %v", ok, err)
	}
	ok, err = ms.Contains("2")
	if err != nil || ok {
		t.Errorf("Contains(unknown) = %v, %v", ok, err)
	}
}

func TestModuleStoreSharedAcrossRuntimes(t *testing.T) {
	ms := openTestStore(t)

	writer := NewRuntime()
	block, err := writer.Scan(`greeting: "hello"`)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := ms.Save(writer, "greet.rill", `greeting: "hello"`, block)
	if err != nil {
		t.Fatal(err)
	}

	// A different runtime decodes into its own arena and symbol table.
	reader := NewRuntime()
	_, exports, err := ms.Load(reader, hash)
	if err != nil {
		t.Fatalf("Load into second runtime: %v", err)
	}
	out, err := reader.Run(exports)
	if err != nil {
		t.Fatal(err)
	}
	if reader.TextContent(out) != "hello" {
		t.Errorf("cross-runtime load = %s", reader.Mold(out))
	}
}

func TestModuleStoreMiss(t *testing.T) {
	rt := NewRuntime()
	ms := openTestStore(t)
	_, _, err := ms.Load(rt, HashSource("never saved"))
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing module = %v, want sql.ErrNoRows", err)
	}
}

func TestModuleStoreLoadByName(t *testing.T) {
	rt := NewRuntime()
	ms := openTestStore(t)

	block, err := rt.Scan("41")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ms.Save(rt, "answer.rill", "41", block); err != nil {
		t.Fatal(err)
	}
	block2, err := rt.Scan("42")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ms.Save(rt, "answer.rill", "42", block2); err != nil {
		t.Fatal(err)
	}

	hash, exports, err := ms.LoadByName(rt, "answer.rill")
	if err != nil {
		t.Fatalf("LoadByName: %v", err)
	}
	if hash == "" {
		t.Error("empty hash from LoadByName")
	}
	out, err := rt.Run(exports)
	if err != nil {
		t.Fatal(err)
	}
	if out.Int64() != 41 && out.Int64() != 42 {
		t.Errorf("LoadByName exports evaluate to %d", out.Int64())
	}
}
