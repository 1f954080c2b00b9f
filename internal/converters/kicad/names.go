package kicad

import (
	"strings"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

var nameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "\"", "_")

// Sanitize makes s safe as a KiCad symbol or footprint name.
func Sanitize(s string) string {
	return nameReplacer.Replace(strings.TrimSpace(s))
}

// SymbolName is the deterministic symbol name of a record.
func SymbolName(rec *domain.ComponentRecord) string {
	if n := Sanitize(rec.Name); n != "" {
		return n
	}
	return rec.SourceID
}

// FootprintName is the deterministic footprint name of a record:
// the sanitized package followed by the catalog code.
func FootprintName(rec *domain.ComponentRecord) string {
	pkg := rec.Package
	if rec.Geometry != nil && rec.Geometry.FootprintName != "" {
		pkg = rec.Geometry.FootprintName
	}
	pkg = Sanitize(pkg)
	if pkg == "" {
		pkg = "Package"
	}
	return pkg + "_" + rec.SourceID
}
