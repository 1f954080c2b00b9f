package kicad

import (
	"fmt"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// ValidateSymbol checks the structural invariants of the symbol side.
func ValidateSymbol(g *domain.Geometry) error {
	seen := make(map[string]struct{}, len(g.Pins))
	for _, p := range g.Pins {
		if p.Number == "" {
			continue
		}
		if _, dup := seen[p.Number]; dup {
			return structural(fmt.Sprintf("pin %q", p.Number), "duplicate pin number")
		}
		seen[p.Number] = struct{}{}
	}
	for i, s := range g.SymbolShapes {
		if err := validateShape(i, s); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFootprint checks the structural invariants of the footprint side.
func ValidateFootprint(g *domain.Geometry) error {
	pads := make(map[string]struct{}, len(g.Pads))
	for _, p := range g.Pads {
		name := fmt.Sprintf("pad %q", p.Number)
		if p.Mount == domain.MountThroughHole && (p.Drill == nil || *p.Drill <= 0) {
			return structural(name, "through-hole pad without drill diameter")
		}
		if p.Shape != domain.PadCustom && (p.Width <= 0 || p.Height <= 0) {
			return structural(name, "non-positive size")
		}
		if p.Shape == domain.PadCustom && len(p.Points) < 3 {
			return structural(name, fmt.Sprintf("custom outline has %d points, need at least 3", len(p.Points)))
		}
		pads[p.Number] = struct{}{}
	}
	for i, s := range g.FootprintShapes {
		if err := validateShape(i, s); err != nil {
			return err
		}
		if s.PadNumber == "" {
			continue
		}
		if _, ok := pads[s.PadNumber]; !ok {
			return structural(s.Describe(i), fmt.Sprintf("references missing pad %q", s.PadNumber))
		}
	}
	for _, h := range g.Holes {
		if h.Diameter <= 0 {
			return structural(fmt.Sprintf("hole %s", h.ID), "non-positive diameter")
		}
	}
	return nil
}

func validateShape(i int, s domain.Shape) error {
	var reason string
	switch s.Kind {
	case domain.ShapePolygon:
		if len(s.Points) < 3 {
			reason = fmt.Sprintf("has %d points, need at least 3", len(s.Points))
		}
	case domain.ShapePolyline:
		if len(s.Points) < 2 {
			reason = fmt.Sprintf("has %d points, need at least 2", len(s.Points))
		}
	case domain.ShapeRectangle:
		if s.Width <= 0 || s.Height <= 0 {
			reason = "non-positive size"
		}
	case domain.ShapeCircle, domain.ShapeEllipse:
		if s.RadiusX <= 0 || (s.Kind == domain.ShapeEllipse && s.RadiusY <= 0) {
			reason = "non-positive radius"
		}
	case domain.ShapeArc:
		if s.Arc == nil {
			reason = "missing arc parameters"
		} else if s.Arc.Start == s.Arc.End {
			reason = "start and end coincide"
		}
	}
	if reason == "" {
		return nil
	}
	return structural(s.Describe(i), reason)
}

func structural(primitive, reason string) error {
	return &domain.StructuralGeometryError{Primitive: primitive, Reason: reason}
}
