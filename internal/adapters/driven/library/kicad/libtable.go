package kicad

import (
	"fmt"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/kicad/sexp"
)

// tableVersion is written into tables created from scratch.
const tableVersion = 7

// parseTable reads a sym-lib-table or fp-lib-table. Unknown children of
// a (lib ...) row, such as (disabled) or (hidden), are not part of the
// entry; formatTable carries them over from the previous file.
func parseTable(kind domain.TableKind, data []byte) (domain.LibTable, error) {
	root, err := sexp.ParseList(data)
	if err != nil {
		return domain.LibTable{}, fmt.Errorf("parse %s: %w", kind.FileName(), err)
	}
	if root.Head() != string(kind) {
		return domain.LibTable{}, fmt.Errorf("parse %s: root is %q, want %q", kind.FileName(), root.Head(), kind)
	}

	table := domain.LibTable{Kind: kind, Version: tableVersion}
	if v := root.Find("version"); v != nil {
		if n, ok := v.Float(1); ok {
			table.Version = int(n)
		}
	}
	for _, lib := range root.FindAll("lib") {
		table.Entries = append(table.Entries, entryOf(lib))
	}
	return table, nil
}

func entryOf(lib *sexp.List) domain.LibEntry {
	return domain.LibEntry{
		Name:    field(lib, "name"),
		Type:    field(lib, "type"),
		URI:     field(lib, "uri"),
		Options: field(lib, "options"),
		Descr:   field(lib, "descr"),
	}
}

// existingRows indexes the (lib ...) rows of a previous table file by
// entry. An unreadable file yields no rows.
func existingRows(kind domain.TableKind, prev []byte) map[domain.LibEntry]*sexp.List {
	if len(prev) == 0 {
		return nil
	}
	root, err := sexp.ParseList(prev)
	if err != nil || root.Head() != string(kind) {
		return nil
	}
	rows := make(map[domain.LibEntry]*sexp.List)
	for _, lib := range root.FindAll("lib") {
		e := entryOf(lib)
		if _, dup := rows[e]; !dup {
			rows[e] = lib
		}
	}
	return rows
}

func field(l *sexp.List, key string) string {
	if f := l.Find(key); f != nil {
		v, _ := f.Atom(1)
		return v
	}
	return ""
}

// formatTable renders a table the way KiCad writes it. Rows of prev, the
// file being replaced, whose entry is unchanged are written back as they
// were parsed, flags included.
func formatTable(table domain.LibTable, prev []byte) []byte {
	version := table.Version
	if version == 0 {
		version = tableVersion
	}
	rows := existingRows(table.Kind, prev)
	root := sexp.NewList(string(table.Kind), sexp.NewList("version", sexp.Int(version)))
	for _, e := range table.Entries {
		if raw, ok := rows[e]; ok {
			root.Append(raw)
			continue
		}
		root.Append(sexp.NewList("lib",
			sexp.NewList("name", sexp.String(e.Name)),
			sexp.NewList("type", sexp.String(e.Type)),
			sexp.NewList("uri", sexp.String(e.URI)),
			sexp.NewList("options", sexp.String(e.Options)),
			sexp.NewList("descr", sexp.String(e.Descr)),
		))
	}
	return sexp.Format(root)
}
