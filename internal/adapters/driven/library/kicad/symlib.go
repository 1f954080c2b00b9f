package kicad

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/kicad-lcsc/internal/kicad/sexp"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

// lcscProperty is the symbol property holding the catalog code.
const lcscProperty = "LCSC"

// symbolMatches reports whether a (symbol ...) node belongs to sourceID.
// A symbol carrying another LCSC code is a different part even when the
// names agree; the name alone identifies symbols without the property.
func symbolMatches(sym *sexp.List, sourceID, name string) bool {
	if id, ok := sym.Property(lcscProperty); ok && id != "" {
		return id == sourceID
	}
	n, _ := sym.Atom(1)
	return name != "" && n == name
}

// nameTaken reports whether a symbol that does not belong to sourceID
// already uses name.
func nameTaken(symbols []*sexp.List, sourceID, name string) bool {
	for _, sym := range symbols {
		if n, _ := sym.Atom(1); n == name && !symbolMatches(sym, sourceID, name) {
			return true
		}
	}
	return false
}

// renameSymbol renames a symbol and its unit sub-symbols, which KiCad
// names <name>_<unit>_<style>.
func renameSymbol(sym *sexp.List, name string) {
	old, ok := sym.Atom(1)
	if !ok {
		return
	}
	sym.Elements[1] = sexp.String(name)
	for _, unit := range sym.FindAll("symbol") {
		if n, ok := unit.Atom(1); ok && strings.HasPrefix(n, old+"_") {
			unit.Elements[1] = sexp.String(name + strings.TrimPrefix(n, old))
		}
	}
}

// librarySymbols returns the top-level symbols of a parsed library.
func librarySymbols(lib *sexp.List) []*sexp.List {
	return lib.FindAll("symbol")
}

// parseLibrary parses a .kicad_sym file.
func parseLibrary(data []byte) (*sexp.List, error) {
	lib, err := sexp.ParseList(data)
	if err != nil {
		return nil, err
	}
	if lib.Head() != "kicad_symbol_lib" {
		return nil, fmt.Errorf("root is %q, want kicad_symbol_lib", lib.Head())
	}
	return lib, nil
}

// mergeSymbols replaces every symbol of existing that matches sourceID
// or one of the incoming symbol names, then appends the incoming symbols.
// An empty existing library is replaced by incoming as a whole.
func mergeSymbols(existing, incoming []byte, sourceID string) ([]byte, error) {
	in, err := parseLibrary(incoming)
	if err != nil {
		return nil, fmt.Errorf("parse new symbol: %w", err)
	}
	if len(existing) == 0 {
		return sexp.Format(in), nil
	}

	lib, err := parseLibrary(existing)
	if err != nil {
		return nil, fmt.Errorf("parse symbol library: %w", err)
	}

	added := librarySymbols(in)
	kept := librarySymbols(lib)
	for _, a := range added {
		name, _ := a.Atom(1)
		if nameTaken(kept, sourceID, name) {
			renamed := name + "_" + sourceID
			logger.Warn("symbol %s belongs to another part; importing %s as %s", name, sourceID, renamed)
			renameSymbol(a, renamed)
		}
	}
	lib.Remove(func(n sexp.Node) bool {
		sym, ok := n.(*sexp.List)
		if !ok || sym.Head() != "symbol" {
			return false
		}
		for _, a := range added {
			name, _ := a.Atom(1)
			if symbolMatches(sym, sourceID, name) {
				return true
			}
		}
		return false
	})
	for _, a := range added {
		lib.Append(a)
	}
	return sexp.Format(lib), nil
}

// findSymbol reports whether the library holds a symbol for sourceID or name.
func findSymbol(data []byte, sourceID, name string) (bool, error) {
	lib, err := parseLibrary(data)
	if err != nil {
		return false, err
	}
	for _, sym := range librarySymbols(lib) {
		if symbolMatches(sym, sourceID, name) {
			return true, nil
		}
	}
	return false, nil
}

// symbolNames lists the names of the top-level symbols.
func symbolNames(data []byte) ([]string, error) {
	lib, err := parseLibrary(data)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, sym := range librarySymbols(lib) {
		if n, ok := sym.Atom(1); ok {
			names = append(names, n)
		}
	}
	return names, nil
}
