package kicad

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/kicad/sexp"
)

// Ensure Converter implements the interface.
var _ driven.ArtifactConverter = (*Converter)(nil)

// Converter transcodes records into KiCad symbol and footprint files.
// It performs no I/O and holds no state.
type Converter struct{}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert produces a one-symbol library and a footprint for rec.
//
// A side without geometry becomes a placeholder. A side whose geometry
// breaks a structural invariant is rejected: its Content stays nil, the
// error is recorded in Rejected and returned, and the other side is still
// converted.
func (c *Converter) Convert(rec *domain.ComponentRecord, opts domain.ConvertOptions) (domain.ConvertedArtifacts, error) {
	if rec == nil {
		return domain.ConvertedArtifacts{}, fmt.Errorf("%w: nil record", domain.ErrInvalidInput)
	}

	symName := SymbolName(rec)
	fpName := FootprintName(rec)
	g := rec.Geometry
	w := &warnings{}

	out := domain.ConvertedArtifacts{
		SourceID:  rec.SourceID,
		Symbol:    domain.SymbolArtifact{Name: symName},
		Footprint: domain.FootprintArtifact{Name: fpName, ModelPaths: append([]string(nil), opts.ModelPaths...)},
	}
	var errs []error

	switch {
	case !g.HasSymbol():
		out.Symbol.Placeholder = true
		out.Symbol.Content = sexp.Format(NewSymbolLibrary(placeholderSymbol(rec, symName, fpName, g.Terminals(), opts)))
		w.add("symbol: no geometry, generated placeholder")
	default:
		if err := ValidateSymbol(g); err != nil {
			errs = append(errs, reject(&out, domain.ArtifactSymbol, err))
		} else {
			out.Symbol.Content = sexp.Format(NewSymbolLibrary(buildSymbol(rec, g, symName, fpName, opts, w)))
		}
	}

	switch {
	case !g.HasFootprint():
		out.Footprint.Placeholder = true
		out.Footprint.Content = sexp.Format(placeholderFootprint(rec, fpName, opts))
		w.add("footprint: no geometry, generated placeholder")
	default:
		if err := ValidateFootprint(g); err != nil {
			errs = append(errs, reject(&out, domain.ArtifactFootprint, err))
		} else {
			out.Footprint.Content = sexp.Format(buildFootprint(rec, g, fpName, opts, w))
		}
	}

	out.Warnings = w.list
	return out, errors.Join(errs...)
}

func reject(out *domain.ConvertedArtifacts, kind domain.ArtifactKind, err error) error {
	if out.Rejected == nil {
		out.Rejected = make(map[domain.ArtifactKind]error)
	}
	err = fmt.Errorf("%s: %w", kind, err)
	out.Rejected[kind] = err
	return err
}
