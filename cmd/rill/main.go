package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/rill/manifest"
	"github.com/chazu/rill/vm"
)

func main() {
	expr := flag.String("e", "", "evaluate expression and exit")
	verbose := flag.Bool("v", false, "debug logging")
	storePath := flag.String("store", "", "module cache database (overrides rill.toml)")
	flag.Parse()

	if *expr == "" && flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: rill [-v] [-store path] [-e expr | script.rill]")
		os.Exit(2)
	}

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "rill: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		m = manifest.Default()
	}

	commonlog.Configure(verbosity(m, *verbose), nil)

	rt := vm.NewRuntimeWith(vm.Config{
		Ballast:    m.Runtime.Ballast,
		TickPeriod: m.Runtime.TickPeriod,
	})

	var store *vm.ModuleStore
	path := *storePath
	if path == "" {
		path = m.ModuleStorePath()
	}
	if path != "" {
		store, err = vm.OpenModuleStore(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rill: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	var result vm.Cell
	if *expr != "" {
		result, err = rt.RunSource(*expr)
	} else {
		result, err = runFile(rt, store, flag.Arg(0))
	}
	if err != nil {
		var raised *vm.RaisedError
		if errors.As(err, &raised) {
			fmt.Fprintln(os.Stderr, raised.Rendered)
		} else {
			fmt.Fprintf(os.Stderr, "rill: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Println(rt.Mold(result))
}

func verbosity(m *manifest.Manifest, verbose bool) int {
	if verbose {
		return 2
	}
	switch m.Runtime.LogLevel {
	case "debug":
		return 2
	case "info":
		return 1
	default:
		return 0
	}
}

// runFile evaluates a script, going through the module cache when one is
// configured: a cache hit skips the scanner, a miss scans and records the
// block under the source's content hash.
func runFile(rt *vm.Runtime, store *vm.ModuleStore, path string) (vm.Cell, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return vm.Cell{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	source := string(data)

	if store != nil {
		if _, block, err := store.Load(rt, vm.HashSource(source)); err == nil {
			return rt.Run(block)
		}
	}

	block, err := rt.Scan(source)
	if err != nil {
		return vm.Cell{}, err
	}
	if store != nil {
		name := filepath.Base(path)
		if _, err := store.Save(rt, name, source, block); err != nil {
			return vm.Cell{}, err
		}
	}
	return rt.Run(block)
}
