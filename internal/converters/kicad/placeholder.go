package kicad

import (
	"strconv"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/kicad/sexp"
)

const (
	placeholderPins      = 2
	placeholderHalfWidth = 5.08
)

// placeholderSymbol is a rectangle body with pins split across its left
// and right sides, one pin per terminal.
func placeholderSymbol(rec *domain.ComponentRecord, name, footprint string, terminals int, opts domain.ConvertOptions) *sexp.List {
	if terminals <= 0 {
		terminals = placeholderPins
	}
	left := (terminals + 1) / 2
	right := terminals - left

	rows := max(left, right)
	halfHeight := Round(float64(rows+1) * pinGrid / 2)
	sym := symbolHeader(rec, name, footprint, opts, halfHeight, -halfHeight)

	body := sexp.NewList("symbol", sexp.String(name+"_0_1"),
		sexp.NewList("rectangle",
			sexp.NewList("start", sexp.Num(-placeholderHalfWidth), sexp.Num(halfHeight)),
			sexp.NewList("end", sexp.Num(placeholderHalfWidth), sexp.Num(-halfHeight)),
			sexp.NewList("stroke", sexp.NewList("width", sexp.Num(0.254)), sexp.NewList("type", sexp.Symbol("default"))),
			symbolFill(true),
		),
	)

	pins := sexp.NewList("symbol", sexp.String(name+"_1_1"))
	number := 1
	for i := 0; i < left; i++ {
		y := Round(halfHeight - float64(i+1)*pinGrid)
		pins.Append(pinNode("passive", -placeholderHalfWidth-pinGrid, y, 0, pinGrid, "", strconv.Itoa(number), false))
		number++
	}
	for i := 0; i < right; i++ {
		y := Round(halfHeight - float64(i+1)*pinGrid)
		pins.Append(pinNode("passive", placeholderHalfWidth+pinGrid, y, 180, pinGrid, "", strconv.Itoa(number), false))
		number++
	}

	sym.Append(body, pins)
	return sym
}

// placeholderFootprint is two generic SMD pads with silkscreen, courtyard
// and fabrication outlines.
func placeholderFootprint(rec *domain.ComponentRecord, name string, opts domain.ConvertOptions) *sexp.List {
	st := &stamper{seed: rec.SourceID + "/placeholder"}
	fp := footprintHeader(rec, name, false, -1, 1, st)

	line := func(x1, y1, x2, y2, width float64, layerName string) *sexp.List {
		return sexp.NewList("fp_line",
			sexp.NewList("start", sexp.Num(x1), sexp.Num(y1)),
			sexp.NewList("end", sexp.Num(x2), sexp.Num(y2)),
			sexp.NewList("stroke", sexp.NewList("width", sexp.Num(width)), sexp.NewList("type", sexp.Symbol("solid"))),
			layer(layerName), st.stamp())
	}
	fp.Append(
		line(-1.5, -1, 1.5, -1, 0.12, "F.SilkS"),
		line(-1.5, 1, 1.5, 1, 0.12, "F.SilkS"),
		line(-2, -1.5, 2, -1.5, 0.05, "F.CrtYd"),
		line(-2, 1.5, -2, -1.5, 0.05, "F.CrtYd"),
		line(2, -1.5, 2, 1.5, 0.05, "F.CrtYd"),
		line(2, 1.5, -2, 1.5, 0.05, "F.CrtYd"),
		sexp.NewList("fp_rect",
			sexp.NewList("start", sexp.Num(-1.2), sexp.Num(-0.8)),
			sexp.NewList("end", sexp.Num(1.2), sexp.Num(0.8)),
			sexp.NewList("stroke", sexp.NewList("width", sexp.Num(0.1)), sexp.NewList("type", sexp.Symbol("solid"))),
			fpFill(false), layer("F.Fab"), st.stamp()),
	)
	for i, x := range []float64{-1, 1} {
		fp.Append(sexp.NewList("pad", sexp.String(strconv.Itoa(i+1)), sexp.Symbol("smd"), sexp.Symbol("rect"),
			sexp.NewList("at", sexp.Num(x), sexp.Num(0)),
			sexp.NewList("size", sexp.Num(0.8), sexp.Num(1.2)),
			layers(smdTopLayers),
			st.stamp()))
	}
	appendModels(fp, rec, opts.ModelPaths)
	return fp
}
