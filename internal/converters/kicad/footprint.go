package kicad

import (
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/kicad/sexp"
)

// FootprintVersion is the .kicad_mod format version written.
const FootprintVersion = 20221018

// stampSpace is the namespace of the deterministic item timestamps.
var stampSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/custodia-labs/kicad-lcsc"))

// stamper hands out stable tstamps: the same part and item index always
// yield the same uuid, so repeated conversions are byte-identical.
type stamper struct {
	seed string
	next int
}

func (s *stamper) stamp() *sexp.List {
	id := uuid.NewSHA1(stampSpace, []byte(s.seed+"/"+strconv.Itoa(s.next)))
	s.next++
	return sexp.NewList("tstamp", sexp.Symbol(id.String()))
}

func fpStroke(width float64) *sexp.List {
	w := length(width)
	if w <= 0 {
		w = 0.12
	}
	return sexp.NewList("stroke",
		sexp.NewList("width", sexp.Num(w)),
		sexp.NewList("type", sexp.Symbol("solid")),
	)
}

func fpFill(filled bool) *sexp.List {
	if filled {
		return sexp.NewList("fill", sexp.Symbol("solid"))
	}
	return sexp.NewList("fill", sexp.Symbol("none"))
}

func layer(name string) *sexp.List {
	return sexp.NewList("layer", sexp.String(name))
}

func layers(names []string) *sexp.List {
	l := sexp.NewList("layers")
	for _, n := range names {
		l.Append(sexp.String(n))
	}
	return l
}

func fpText(kind, text string, y float64, layerName string, st *stamper) *sexp.List {
	return sexp.NewList("fp_text", sexp.Symbol(kind), sexp.String(text),
		sexp.NewList("at", sexp.Num(0), sexp.Num(Round(y))),
		layer(layerName),
		sexp.NewList("effects", sexp.NewList("font",
			sexp.NewList("size", sexp.Num(1), sexp.Num(1)),
			sexp.NewList("thickness", sexp.Num(0.15)))),
		st.stamp(),
	)
}

// footprintHeader builds the module node up to and including its texts.
func footprintHeader(rec *domain.ComponentRecord, name string, through bool, top, bottom float64, st *stamper) *sexp.List {
	attr := "smd"
	if through {
		attr = "through_hole"
	}
	descr := rec.Description
	if descr == "" {
		descr = rec.Name
	}
	fp := sexp.NewList("footprint", sexp.String(name),
		sexp.NewList("version", sexp.Int(FootprintVersion)),
		sexp.NewList("generator", sexp.Symbol(Generator)),
		layer("F.Cu"),
		sexp.NewList("descr", sexp.String(descr)),
		sexp.NewList("tags", sexp.String(rec.Package+" LCSC:"+rec.SourceID)),
		sexp.NewList("attr", sexp.Symbol(attr)),
	)
	fp.Append(
		fpText("reference", "REF**", top-footprintTextGap, "F.SilkS", st),
		fpText("value", name, bottom+footprintTextGap, "F.Fab", st),
	)
	return fp
}

// buildFootprint converts the footprint side of a validated geometry.
func buildFootprint(rec *domain.ComponentRecord, g *domain.Geometry, name string, opts domain.ConvertOptions, w *warnings) *sexp.List {
	sp := space{origin: g.FootprintOrigin}
	st := &stamper{seed: rec.SourceID + "/footprint"}

	through := false
	for _, p := range g.Pads {
		if p.Mount == domain.MountThroughHole {
			through = true
			break
		}
	}
	top, bottom := padExtent(g, sp)
	fp := footprintHeader(rec, name, through, top, bottom, st)

	for i, s := range g.FootprintShapes {
		kicadLayer, ok := Layer(s.Layer)
		if !ok {
			w.add("footprint: dropped %s: unknown layer %q", s.Describe(i), s.Layer)
			continue
		}
		nodes := footprintShape(sp, s, kicadLayer, st)
		if len(nodes) == 0 {
			w.add("footprint: dropped %s: unsupported primitive %q", s.Describe(i), s.SourceTag)
			continue
		}
		for _, n := range nodes {
			fp.Append(n)
		}
	}

	for _, p := range g.Pads {
		fp.Append(padNode(sp, p, w, st))
	}
	for _, h := range g.Holes {
		d := length(h.Diameter)
		fp.Append(sexp.NewList("pad", sexp.String(""), sexp.Symbol("np_thru_hole"), sexp.Symbol("circle"),
			sp.xy("at", h.Position),
			sexp.NewList("size", sexp.Num(d), sexp.Num(d)),
			sexp.NewList("drill", sexp.Num(d)),
			layers(throughLayers),
			st.stamp(),
		))
	}

	appendModels(fp, rec, opts.ModelPaths)
	return fp
}

// footprintShape converts one primitive into zero or more fp_* items.
func footprintShape(sp space, s domain.Shape, layerName string, st *stamper) []*sexp.List {
	switch s.Kind {
	case domain.ShapePolyline:
		return fpSegments(sp, s.Points, s.StrokeWidth, layerName, st)
	case domain.ShapePolygon:
		return []*sexp.List{sexp.NewList("fp_poly", pts(sp, s.Points), fpStroke(s.StrokeWidth), fpFill(s.Filled), layer(layerName), st.stamp())}
	case domain.ShapeRectangle:
		end := domain.Point{X: s.Origin.X + s.Width, Y: s.Origin.Y + s.Height}
		return []*sexp.List{sexp.NewList("fp_rect", sp.xy("start", s.Origin), sp.xy("end", end),
			fpStroke(s.StrokeWidth), fpFill(s.Filled), layer(layerName), st.stamp())}
	case domain.ShapeCircle:
		return []*sexp.List{fpCircle(sp, s.Origin, s.RadiusX, s, layerName, st)}
	case domain.ShapeEllipse:
		if s.RadiusX == s.RadiusY {
			return []*sexp.List{fpCircle(sp, s.Origin, s.RadiusX, s, layerName, st)}
		}
		return fpSegments(sp, ellipsePoints(s.Origin, s.RadiusX, s.RadiusY, ellipseSegments), s.StrokeWidth, layerName, st)
	case domain.ShapeArc:
		return []*sexp.List{sexp.NewList("fp_arc",
			sp.xy("start", s.Arc.Start), sp.xy("mid", arcMid(s.Arc)), sp.xy("end", s.Arc.End),
			fpStroke(s.StrokeWidth), layer(layerName), st.stamp())}
	default:
		return nil
	}
}

func fpSegments(sp space, points []domain.Point, width float64, layerName string, st *stamper) []*sexp.List {
	out := make([]*sexp.List, 0, len(points))
	for i := 1; i < len(points); i++ {
		out = append(out, sexp.NewList("fp_line", sp.xy("start", points[i-1]), sp.xy("end", points[i]),
			fpStroke(width), layer(layerName), st.stamp()))
	}
	return out
}

func fpCircle(sp space, c domain.Point, r float64, s domain.Shape, layerName string, st *stamper) *sexp.List {
	edge := domain.Point{X: c.X + r, Y: c.Y}
	return sexp.NewList("fp_circle", sp.xy("center", c), sp.xy("end", edge),
		fpStroke(s.StrokeWidth), fpFill(s.Filled), layer(layerName), st.stamp())
}

func padNode(sp space, p domain.Pad, w *warnings, st *stamper) *sexp.List {
	mount := "smd"
	padLayers := smdTopLayers
	switch {
	case p.Mount == domain.MountThroughHole:
		mount = "thru_hole"
		padLayers = throughLayers
	case p.Layer == "2":
		padLayers = smdBottomLayers
	}

	shape := string(p.Shape)
	switch p.Shape {
	case domain.PadRect, domain.PadCircle, domain.PadOval, domain.PadCustom:
	default:
		w.add("footprint: pad %q: unsupported shape %q, using rect", p.Number, p.Shape)
		shape = string(domain.PadRect)
	}

	at := sp.xy("at", p.Position)
	if rot := angle(p.Rotation); rot != 0 && p.Shape != domain.PadCustom {
		at.Append(sexp.Num(rot))
	}

	width, height := length(p.Width), length(p.Height)
	if p.Shape == domain.PadCustom {
		// The outline carries the real copper; size is the anchor.
		anchor := math.Min(width, height)
		if anchor <= 0 {
			anchor = 0.1
		}
		width, height = anchor, anchor
	}

	pad := sexp.NewList("pad", sexp.String(p.Number), sexp.Symbol(mount), sexp.Symbol(shape), at,
		sexp.NewList("size", sexp.Num(width), sexp.Num(height)))
	if p.Mount == domain.MountThroughHole {
		pad.Append(sexp.NewList("drill", sexp.Num(length(*p.Drill))))
	}
	pad.Append(layers(padLayers))

	if p.Shape == domain.PadCustom {
		outline := sexp.NewList("pts")
		for _, pt := range p.Points {
			outline.Append(rel("xy", pt, p.Position))
		}
		pad.Append(
			sexp.NewList("options", sexp.NewList("clearance", sexp.Symbol("outline")), sexp.NewList("anchor", sexp.Symbol("circle"))),
			sexp.NewList("primitives", sexp.NewList("gr_poly", outline,
				sexp.NewList("width", sexp.Num(0)), sexp.NewList("fill", sexp.Bool(true)))),
		)
	}
	pad.Append(st.stamp())
	return pad
}

// appendModels adds one model entry per path, placed by the record's first model ref.
func appendModels(fp *sexp.List, rec *domain.ComponentRecord, paths []string) {
	var offset, rotation [3]float64
	if len(rec.Model3DRefs) > 0 {
		offset, rotation = rec.Model3DRefs[0].Offset, rec.Model3DRefs[0].Rotation
	}
	for _, path := range paths {
		fp.Append(sexp.NewList("model", sexp.String(path),
			sexp.NewList("offset", xyz(offset)),
			sexp.NewList("scale", xyz([3]float64{1, 1, 1})),
			sexp.NewList("rotate", xyz(rotation)),
		))
	}
}

func xyz(v [3]float64) *sexp.List {
	return sexp.NewList("xyz", sexp.Num(Round(v[0])), sexp.Num(Round(v[1])), sexp.Num(Round(v[2])))
}

// padExtent returns the lowest and highest Y (target space) covered by pads.
func padExtent(g *domain.Geometry, sp space) (top, bottom float64) {
	top, bottom = math.Inf(1), math.Inf(-1)
	for _, p := range g.Pads {
		y := sp.y(p.Position.Y)
		half := length(math.Max(p.Width, p.Height)) / 2
		top = math.Min(top, y-half)
		bottom = math.Max(bottom, y+half)
	}
	if math.IsInf(top, 0) {
		return -1, 1
	}
	return top, bottom
}
