package kicad

import (
	"fmt"
	"math"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/kicad/sexp"
)

const (
	// SymbolVersion is the .kicad_sym format version written.
	SymbolVersion = 20211014

	// Generator identifies files written by this tool.
	Generator = "kicad_lcsc"

	fontSize         = 1.27
	pinGrid          = 2.54
	pinNameOffset    = 1.016
	ellipseSegments  = 36
	propertySpacing  = 2.54
	footprintTextGap = 1.5
)

// NewSymbolLibrary returns an empty kicad_symbol_lib holding symbols.
func NewSymbolLibrary(symbols ...*sexp.List) *sexp.List {
	lib := sexp.NewList("kicad_symbol_lib",
		sexp.NewList("version", sexp.Int(SymbolVersion)),
		sexp.NewList("generator", sexp.Symbol(Generator)),
	)
	for _, s := range symbols {
		lib.Append(s)
	}
	return lib
}

func effects(hide bool) *sexp.List {
	e := sexp.NewList("effects",
		sexp.NewList("font", sexp.NewList("size", sexp.Num(fontSize), sexp.Num(fontSize))))
	if hide {
		e.Append(sexp.Symbol("hide"))
	}
	return e
}

func symbolProperty(id int, key, value string, y float64, hide bool) *sexp.List {
	return sexp.NewList("property", sexp.String(key), sexp.String(value),
		sexp.NewList("id", sexp.Int(id)),
		sexp.NewList("at", sexp.Num(0), sexp.Num(Round(y)), sexp.Num(0)),
		effects(hide),
	)
}

func stroke(width float64) *sexp.List {
	return sexp.NewList("stroke",
		sexp.NewList("width", sexp.Num(length(width))),
		sexp.NewList("type", sexp.Symbol("default")),
	)
}

func symbolFill(filled bool) *sexp.List {
	kind := "none"
	if filled {
		kind = "background"
	}
	return sexp.NewList("fill", sexp.NewList("type", sexp.Symbol(kind)))
}

// symbolHeader builds the symbol node with its properties; units are appended by the caller.
func symbolHeader(rec *domain.ComponentRecord, name, footprint string, opts domain.ConvertOptions, top, bottom float64) *sexp.List {
	fpRef := footprint
	if opts.LibraryName != "" {
		fpRef = opts.LibraryName + ":" + footprint
	}
	prefix := rec.Prefix
	if prefix == "" {
		prefix = "U"
	}
	value := rec.Name
	if value == "" {
		value = name
	}

	sym := sexp.NewList("symbol", sexp.String(name),
		sexp.NewList("pin_names", sexp.NewList("offset", sexp.Num(pinNameOffset))),
		sexp.NewList("in_bom", sexp.Bool(true)),
		sexp.NewList("on_board", sexp.Bool(true)),
	)
	sym.Append(
		symbolProperty(0, "Reference", prefix, top+propertySpacing, false),
		symbolProperty(1, "Value", value, bottom-propertySpacing, false),
		symbolProperty(2, "Footprint", fpRef, 0, true),
		symbolProperty(3, "Datasheet", rec.DatasheetURL, 0, true),
		symbolProperty(4, "Description", rec.Description, 0, true),
		symbolProperty(5, "Manufacturer", rec.Manufacturer, 0, true),
		symbolProperty(6, "MPN", rec.ManufacturerPart, 0, true),
		symbolProperty(7, "LCSC", rec.SourceID, 0, true),
	)
	return sym
}

// buildSymbol converts the symbol side of a validated geometry.
func buildSymbol(rec *domain.ComponentRecord, g *domain.Geometry, name, footprint string, opts domain.ConvertOptions, w *warnings) *sexp.List {
	sp := space{origin: g.SymbolOrigin, flipY: true}
	top, bottom := symbolExtent(g, sp)
	sym := symbolHeader(rec, name, footprint, opts, top, bottom)

	body := sexp.NewList("symbol", sexp.String(name+"_0_1"))
	for i, s := range g.SymbolShapes {
		if n := symbolShape(sp, s); n != nil {
			body.Append(n)
			continue
		}
		w.add("symbol: dropped %s: unsupported primitive %q", s.Describe(i), s.SourceTag)
	}

	pins := sexp.NewList("symbol", sexp.String(name+"_1_1"))
	for _, p := range g.Pins {
		typ, ok := PinType(p.TypeCode)
		if !ok {
			w.add("symbol: pin %q: unknown electrical type %q, using %s", p.Number, p.TypeCode, PinUnspecified)
		}
		pins.Append(pinNode(typ, sp.x(p.Position.X), sp.y(p.Position.Y), p.Rotation, length(p.Length), p.Name, p.Number, p.Hidden))
	}

	sym.Append(body, pins)
	return sym
}

func pinNode(typ string, x, y, rotation, size float64, name, number string, hidden bool) *sexp.List {
	if size <= 0 {
		size = pinGrid
	}
	if name == "" {
		name = "~"
	}
	pin := sexp.NewList("pin", sexp.Symbol(typ), sexp.Symbol("line"),
		sexp.NewList("at", sexp.Num(x), sexp.Num(y), sexp.Num(angle(rotation))),
		sexp.NewList("length", sexp.Num(size)),
	)
	if hidden {
		pin.Append(sexp.Symbol("hide"))
	}
	pin.Append(
		sexp.NewList("name", sexp.String(name), effects(false)),
		sexp.NewList("number", sexp.String(number), effects(false)),
	)
	return pin
}

// symbolShape converts one primitive, or returns nil if it has no symbol form.
func symbolShape(sp space, s domain.Shape) *sexp.List {
	switch s.Kind {
	case domain.ShapeRectangle:
		end := domain.Point{X: s.Origin.X + s.Width, Y: s.Origin.Y + s.Height}
		return sexp.NewList("rectangle", sp.xy("start", s.Origin), sp.xy("end", end), stroke(s.StrokeWidth), symbolFill(s.Filled))
	case domain.ShapeCircle:
		return symbolCircle(sp, s.Origin, s.RadiusX, s)
	case domain.ShapeEllipse:
		if s.RadiusX == s.RadiusY {
			return symbolCircle(sp, s.Origin, s.RadiusX, s)
		}
		ring := ellipsePoints(s.Origin, s.RadiusX, s.RadiusY, ellipseSegments)
		return sexp.NewList("polyline", pts(sp, ring), stroke(s.StrokeWidth), symbolFill(s.Filled))
	case domain.ShapePolygon:
		closed := append(append([]domain.Point(nil), s.Points...), s.Points[0])
		return sexp.NewList("polyline", pts(sp, closed), stroke(s.StrokeWidth), symbolFill(s.Filled))
	case domain.ShapePolyline:
		return sexp.NewList("polyline", pts(sp, s.Points), stroke(s.StrokeWidth), symbolFill(s.Filled))
	case domain.ShapeArc:
		return sexp.NewList("arc",
			sp.xy("start", s.Arc.Start), sp.xy("mid", arcMid(s.Arc)), sp.xy("end", s.Arc.End),
			stroke(s.StrokeWidth), symbolFill(s.Filled))
	default:
		return nil
	}
}

func symbolCircle(sp space, c domain.Point, r float64, s domain.Shape) *sexp.List {
	return sexp.NewList("circle", sp.xy("center", c), sexp.NewList("radius", sexp.Num(length(r))),
		stroke(s.StrokeWidth), symbolFill(s.Filled))
}

// symbolExtent returns the highest and lowest Y (target space) of the
// symbol so the reference and value can sit outside the body.
func symbolExtent(g *domain.Geometry, sp space) (top, bottom float64) {
	top, bottom = math.Inf(-1), math.Inf(1)
	track := func(p domain.Point, pad float64) {
		y := sp.y(p.Y)
		top = math.Max(top, y+pad)
		bottom = math.Min(bottom, y-pad)
	}
	for _, s := range g.SymbolShapes {
		switch s.Kind {
		case domain.ShapeRectangle:
			track(s.Origin, 0)
			track(domain.Point{X: s.Origin.X, Y: s.Origin.Y + s.Height}, 0)
		case domain.ShapeCircle, domain.ShapeEllipse:
			track(s.Origin, length(math.Max(s.RadiusX, s.RadiusY)))
		default:
			for _, p := range s.Points {
				track(p, 0)
			}
		}
	}
	for _, p := range g.Pins {
		track(p.Position, 0)
	}
	if math.IsInf(top, 0) {
		return 0, 0
	}
	return top, bottom
}

// warnings collects non-fatal conversion notes in emission order.
type warnings struct {
	list []string
}

func (w *warnings) add(format string, args ...any) {
	w.list = append(w.list, fmt.Sprintf(format, args...))
}
