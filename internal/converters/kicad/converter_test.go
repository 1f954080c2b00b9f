package kicad

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/kicad/sexp"
)

func testRecord() *domain.ComponentRecord {
	return &domain.ComponentRecord{
		SourceID:         "C2040",
		Name:             "RP2040",
		Description:      "Dual-core ARM Cortex-M0+ microcontroller",
		Manufacturer:     "Raspberry Pi",
		ManufacturerPart: "RP2040",
		Package:          "LQFN-56_L7.0-W7.0-P0.4-EP",
		Prefix:           "U",
		DatasheetURL:     "https://example.com/rp2040.pdf",
		Model3DRefs: []domain.ModelRef{{
			Format:   domain.ModelFormatSTEP,
			Offset:   [3]float64{1.27, 0, 0},
			Rotation: [3]float64{0, 0, 270},
		}},
		Geometry: testGeometry(),
	}
}

func testGeometry() *domain.Geometry {
	return &domain.Geometry{
		SymbolOrigin: domain.Point{X: 400, Y: 300},
		SymbolShapes: []domain.Shape{
			{Kind: domain.ShapeRectangle, ID: "gge1", Layer: "sch", Origin: domain.Point{X: 370, Y: 260}, Width: 60, Height: 80, StrokeWidth: 1},
			{Kind: domain.ShapeEllipse, ID: "gge2", Layer: "sch", Origin: domain.Point{X: 380, Y: 270}, RadiusX: 2, RadiusY: 2, Filled: true},
			{Kind: domain.ShapeEllipse, ID: "gge3", Layer: "sch", Origin: domain.Point{X: 380, Y: 280}, RadiusX: 4, RadiusY: 2},
			{Kind: domain.ShapePolyline, ID: "gge4", Layer: "sch", Points: []domain.Point{{X: 380, Y: 320}, {X: 420, Y: 320}}},
			{Kind: domain.ShapeArc, ID: "gge5", Layer: "sch", Arc: &domain.ArcSpec{
				Start: domain.Point{X: 390, Y: 330}, End: domain.Point{X: 400, Y: 330}, RadiusX: 5, RadiusY: 5, Sweep: true,
			}},
		},
		Pins: []domain.Pin{
			{Number: "1", Name: "GPIO0", TypeCode: "0", Position: domain.Point{X: 360, Y: 280}, Rotation: 0, Length: 10},
			{Number: "2", Name: "IOVDD", TypeCode: "4", Position: domain.Point{X: 440, Y: 280}, Rotation: 180, Length: 10},
			{Number: "3", Name: "GND", TypeCode: "passive", Position: domain.Point{X: 360, Y: 300}, Rotation: 0, Length: 10, Hidden: true},
		},
		FootprintName:   "LQFN-56_L7.0-W7.0-P0.4-EP",
		FootprintOrigin: domain.Point{X: 4000, Y: 3000},
		FootprintShapes: []domain.Shape{
			{Kind: domain.ShapePolyline, ID: "gge13", Layer: "3", StrokeWidth: 1, Points: []domain.Point{{X: 3980, Y: 2990}, {X: 4020, Y: 2990}, {X: 4020, Y: 3010}}},
			{Kind: domain.ShapeCircle, ID: "gge14", Layer: "3", Origin: domain.Point{X: 3985, Y: 2992}, RadiusX: 1, RadiusY: 1},
			{Kind: domain.ShapePolygon, ID: "gge16", Layer: "1", Filled: true, Points: []domain.Point{{X: 3995, Y: 2995}, {X: 4005, Y: 2995}, {X: 4005, Y: 3005}}},
		},
		Pads: []domain.Pad{
			{Number: "1", ID: "gge10", Shape: domain.PadRect, Mount: domain.MountSMD, Layer: "1", Position: domain.Point{X: 3990, Y: 3000}, Width: 6, Height: 4},
			{Number: "2", ID: "gge11", Shape: domain.PadRect, Mount: domain.MountSMD, Layer: "1", Position: domain.Point{X: 4010, Y: 3000}, Width: 6, Height: 4, Rotation: 90},
			{Number: "3", ID: "gge12", Shape: domain.PadCircle, Mount: domain.MountThroughHole, Layer: "11", Position: domain.Point{X: 4000, Y: 3010}, Width: 6, Height: 6, Drill: domain.Float(3)},
		},
		Holes:         []domain.Hole{{ID: "gge15", Position: domain.Point{X: 4005, Y: 3015}, Diameter: 4}},
		TerminalCount: 3,
	}
}

var testOpts = domain.ConvertOptions{
	LibraryName: "lcsc_imported",
	ModelPaths:  []string{"${KIPRJMOD}/libs/lcsc/3dmodels/C2040.step"},
}

func parse(t *testing.T, content []byte) *sexp.List {
	t.Helper()
	l, err := sexp.ParseList(content)
	require.NoError(t, err)
	return l
}

func TestConvert_Symbol(t *testing.T) {
	out, err := NewConverter().Convert(testRecord(), testOpts)
	require.NoError(t, err)

	assert.Equal(t, "C2040", out.SourceID)
	assert.Equal(t, "RP2040", out.Symbol.Name)
	assert.False(t, out.Symbol.Placeholder)

	lib := parse(t, out.Symbol.Content)
	assert.Equal(t, "kicad_symbol_lib", lib.Head())
	v, _ := lib.Find("version").Atom(1)
	assert.Equal(t, "20211014", v)
	gen, _ := lib.Find("generator").Atom(1)
	assert.Equal(t, Generator, gen)

	sym := lib.Find("symbol")
	require.NotNil(t, sym)
	name, _ := sym.Atom(1)
	assert.Equal(t, "RP2040", name)

	props := map[string]string{
		"Reference":    "U",
		"Value":        "RP2040",
		"Footprint":    "lcsc_imported:LQFN-56_L7.0-W7.0-P0.4-EP_C2040",
		"Datasheet":    "https://example.com/rp2040.pdf",
		"Manufacturer": "Raspberry Pi",
		"MPN":          "RP2040",
		"LCSC":         "C2040",
	}
	for k, want := range props {
		got, ok := sym.Property(k)
		assert.True(t, ok, k)
		assert.Equal(t, want, got, k)
	}

	units := sym.FindAll("symbol")
	require.Len(t, units, 2)
	body, pins := units[0], units[1]
	unit, _ := body.Atom(1)
	assert.Equal(t, "RP2040_0_1", unit)

	assert.Len(t, body.FindAll("rectangle"), 1)
	assert.Len(t, body.FindAll("circle"), 1, "round ellipse becomes a circle")
	assert.Len(t, body.FindAll("polyline"), 2, "oval ellipse and polyline")
	assert.Len(t, body.FindAll("arc"), 1)

	pinNodes := pins.FindAll("pin")
	require.Len(t, pinNodes, 3)

	first := pinNodes[0]
	typ, _ := first.Atom(1)
	assert.Equal(t, "unspecified", typ)
	at := first.Find("at")
	x, _ := at.Float(1)
	y, _ := at.Float(2)
	assert.Equal(t, -10.16, x)
	assert.Equal(t, 5.08, y, "symbol Y is flipped")
	l, _ := first.Find("length").Float(1)
	assert.Equal(t, 2.54, l)

	typ, _ = pinNodes[1].Atom(1)
	assert.Equal(t, "power_in", typ)
	rot, _ := pinNodes[1].Find("at").Float(3)
	assert.Equal(t, 180.0, rot)

	hidden, _ := pinNodes[2].Atom(5)
	assert.Equal(t, "hide", hidden)
	typ, _ = pinNodes[2].Atom(1)
	assert.Equal(t, "passive", typ)
}

func TestConvert_Footprint(t *testing.T) {
	out, err := NewConverter().Convert(testRecord(), testOpts)
	require.NoError(t, err)

	assert.Equal(t, "LQFN-56_L7.0-W7.0-P0.4-EP_C2040", out.Footprint.Name)
	assert.False(t, out.Footprint.Placeholder)
	assert.Equal(t, testOpts.ModelPaths, out.Footprint.ModelPaths)

	fp := parse(t, out.Footprint.Content)
	assert.Equal(t, "footprint", fp.Head())
	v, _ := fp.Find("version").Atom(1)
	assert.Equal(t, "20221018", v)
	attr, _ := fp.Find("attr").Atom(1)
	assert.Equal(t, "through_hole", attr)

	assert.Len(t, fp.FindAll("fp_line"), 2, "three-point track becomes two segments")
	assert.Len(t, fp.FindAll("fp_circle"), 1)
	assert.Len(t, fp.FindAll("fp_poly"), 1)
	assert.Len(t, fp.FindAll("fp_text"), 2)

	pads := fp.FindAll("pad")
	require.Len(t, pads, 4, "three pads and one NPTH hole")

	smd := pads[0]
	mount, _ := smd.Atom(2)
	assert.Equal(t, "smd", mount)
	x, _ := smd.Find("at").Float(1)
	assert.Equal(t, -2.54, x)
	w, _ := smd.Find("size").Float(1)
	assert.Equal(t, 1.524, w)
	layerNames := smd.Find("layers")
	first, _ := layerNames.Atom(1)
	assert.Equal(t, "F.Cu", first)

	rot, ok := pads[1].Find("at").Float(3)
	require.True(t, ok)
	assert.Equal(t, 90.0, rot)

	th := pads[2]
	mount, _ = th.Atom(2)
	assert.Equal(t, "thru_hole", mount)
	drill, _ := th.Find("drill").Float(1)
	assert.Equal(t, 0.762, drill)
	first, _ = th.Find("layers").Atom(1)
	assert.Equal(t, "*.Cu", first)

	npth, _ := pads[3].Atom(2)
	assert.Equal(t, "np_thru_hole", npth)

	models := fp.FindAll("model")
	require.Len(t, models, 1)
	path, _ := models[0].Atom(1)
	assert.Equal(t, "${KIPRJMOD}/libs/lcsc/3dmodels/C2040.step", path)
	ox, _ := models[0].Find("offset").Find("xyz").Float(1)
	assert.Equal(t, 1.27, ox)
	rz, _ := models[0].Find("rotate").Find("xyz").Float(3)
	assert.Equal(t, 270.0, rz)
}

func TestConvert_Idempotent(t *testing.T) {
	c := NewConverter()
	a, err := c.Convert(testRecord(), testOpts)
	require.NoError(t, err)
	b, err := c.Convert(testRecord(), testOpts)
	require.NoError(t, err)

	assert.Equal(t, a.Symbol.Content, b.Symbol.Content)
	assert.Equal(t, a.Footprint.Content, b.Footprint.Content)
	assert.Equal(t, a.Warnings, b.Warnings)
}

func TestConvert_ThroughHoleWithoutDrill(t *testing.T) {
	for _, drill := range []*float64{nil, domain.Float(0), domain.Float(-1)} {
		rec := testRecord()
		rec.Geometry.Pads[2].Drill = drill

		out, err := NewConverter().Convert(rec, testOpts)

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrStructuralGeometry))
		var sge *domain.StructuralGeometryError
		require.True(t, errors.As(err, &sge))
		assert.Equal(t, `pad "3"`, sge.Primitive)

		assert.Nil(t, out.Footprint.Content, "pad must not be coerced to smd")
		assert.Contains(t, out.Rejected, domain.ArtifactFootprint)
		assert.NotNil(t, out.Symbol.Content, "symbol side still converts")
	}
}

func TestConvert_StructuralErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(g *domain.Geometry)
		kind      domain.ArtifactKind
		primitive string
	}{
		{
			name:      "polygon with two points",
			mutate:    func(g *domain.Geometry) { g.FootprintShapes[2].Points = g.FootprintShapes[2].Points[:2] },
			kind:      domain.ArtifactFootprint,
			primitive: "polygon #2 (gge16)",
		},
		{
			name:      "polyline with one point",
			mutate:    func(g *domain.Geometry) { g.SymbolShapes[3].Points = g.SymbolShapes[3].Points[:1] },
			kind:      domain.ArtifactSymbol,
			primitive: "polyline #3 (gge4)",
		},
		{
			name:      "duplicate pin numbers",
			mutate:    func(g *domain.Geometry) { g.Pins[1].Number = "1" },
			kind:      domain.ArtifactSymbol,
			primitive: `pin "1"`,
		},
		{
			name:      "shape references missing pad",
			mutate:    func(g *domain.Geometry) { g.FootprintShapes[0].PadNumber = "99" },
			kind:      domain.ArtifactFootprint,
			primitive: "polyline #0 (gge13)",
		},
		{
			name:      "zero-size rectangle",
			mutate:    func(g *domain.Geometry) { g.SymbolShapes[0].Width = 0 },
			kind:      domain.ArtifactSymbol,
			primitive: "rectangle #0 (gge1)",
		},
		{
			name: "degenerate arc",
			mutate: func(g *domain.Geometry) {
				g.SymbolShapes[4].Arc.End = g.SymbolShapes[4].Arc.Start
			},
			kind:      domain.ArtifactSymbol,
			primitive: "arc #4 (gge5)",
		},
		{
			name: "custom pad with two points",
			mutate: func(g *domain.Geometry) {
				g.Pads[0].Shape = domain.PadCustom
				g.Pads[0].Points = []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
			},
			kind:      domain.ArtifactFootprint,
			primitive: `pad "1"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord()
			tt.mutate(rec.Geometry)

			out, err := NewConverter().Convert(rec, testOpts)

			require.Error(t, err)
			var sge *domain.StructuralGeometryError
			require.True(t, errors.As(err, &sge))
			assert.Equal(t, tt.primitive, sge.Primitive)
			assert.Contains(t, out.Rejected, tt.kind)
			assert.Len(t, out.Rejected, 1)
		})
	}
}

func TestConvert_UnknownLayerDroppedWithWarning(t *testing.T) {
	rec := testRecord()
	rec.Geometry.FootprintShapes = append(rec.Geometry.FootprintShapes, domain.Shape{
		Kind: domain.ShapeCircle, ID: "gge99", Layer: "19", Origin: domain.Point{X: 4000, Y: 3000}, RadiusX: 2,
	})

	out, err := NewConverter().Convert(rec, testOpts)
	require.NoError(t, err)

	fp := parse(t, out.Footprint.Content)
	assert.Len(t, fp.FindAll("fp_circle"), 1)
	require.NotEmpty(t, out.Warnings)
	assert.Contains(t, strings.Join(out.Warnings, "\n"), `unknown layer "19"`)
}

func TestConvert_UnknownPinTypeIsUnspecified(t *testing.T) {
	rec := testRecord()
	rec.Geometry.Pins[1].TypeCode = "42"

	out, err := NewConverter().Convert(rec, testOpts)
	require.NoError(t, err)

	pins := parse(t, out.Symbol.Content).Find("symbol").FindAll("symbol")[1].FindAll("pin")
	typ, _ := pins[1].Atom(1)
	assert.Equal(t, PinUnspecified, typ)
	assert.Contains(t, strings.Join(out.Warnings, "\n"), `unknown electrical type "42"`)
}

func TestConvert_UnknownShapeDroppedWithWarning(t *testing.T) {
	rec := testRecord()
	rec.Geometry.SymbolShapes = append(rec.Geometry.SymbolShapes, domain.Shape{Kind: domain.ShapeUnknown, SourceTag: "T", Layer: "sch"})

	out, err := NewConverter().Convert(rec, testOpts)
	require.NoError(t, err)
	assert.Contains(t, strings.Join(out.Warnings, "\n"), `unsupported primitive "T"`)
}

func TestConvert_Placeholder(t *testing.T) {
	rec := testRecord()
	rec.Geometry = nil

	out, err := NewConverter().Convert(rec, testOpts)
	require.NoError(t, err)

	assert.True(t, out.Placeholder())
	assert.True(t, out.Symbol.Placeholder)
	assert.True(t, out.Footprint.Placeholder)

	sym := parse(t, out.Symbol.Content).Find("symbol")
	units := sym.FindAll("symbol")
	require.Len(t, units, 2)
	assert.Len(t, units[0].FindAll("rectangle"), 1)
	assert.Len(t, units[1].FindAll("pin"), 2)
	lcsc, _ := sym.Property("LCSC")
	assert.Equal(t, "C2040", lcsc)

	fp := parse(t, out.Footprint.Content)
	pads := fp.FindAll("pad")
	require.Len(t, pads, 2)
	for _, p := range pads {
		mount, _ := p.Atom(2)
		assert.Equal(t, "smd", mount)
	}
}

func TestConvert_PlaceholderUsesTerminalCount(t *testing.T) {
	rec := testRecord()
	rec.Geometry = &domain.Geometry{TerminalCount: 5}

	out, err := NewConverter().Convert(rec, domain.ConvertOptions{})
	require.NoError(t, err)

	pins := parse(t, out.Symbol.Content).Find("symbol").FindAll("symbol")[1].FindAll("pin")
	require.Len(t, pins, 5)

	left, right := 0, 0
	for _, p := range pins {
		x, _ := p.Find("at").Float(1)
		if x < 0 {
			left++
		} else {
			right++
		}
	}
	assert.Equal(t, 3, left)
	assert.Equal(t, 2, right)

	fpRef, _ := parse(t, out.Symbol.Content).Find("symbol").Property("Footprint")
	assert.Equal(t, "LQFN-56_L7.0-W7.0-P0.4-EP_C2040", fpRef, "no library prefix without a library name")
}

func TestConvert_NilRecord(t *testing.T) {
	_, err := NewConverter().Convert(nil, testOpts)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRound(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.23456, 1.2346},
		{-1.23456, -1.2346},
		{-0.00001, 0},
		{10.16, 10.16},
		{2.54 * 3, 7.62},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in))
	}
	assert.Equal(t, sexp.Symbol("0"), sexp.Num(Round(-0.00001)))
}

func TestScaledTiesRoundAwayFromZero(t *testing.T) {
	// 2.125 * 0.254 is exactly 0.53975.
	assert.Equal(t, 0.5398, length(2.125))
	assert.Equal(t, -0.5398, length(-2.125))
	assert.Equal(t, 0.6668, length(2.625))
	assert.Equal(t, 0.5398, Round(0.53975))

	s := space{origin: domain.Point{X: 4000, Y: 3000}}
	assert.Equal(t, 0.5398, s.x(4002.125))
	assert.Equal(t, -0.6668, s.y(2997.375))

	flipped := space{origin: domain.Point{X: 4000, Y: 3000}, flipY: true}
	assert.Equal(t, 0.6668, flipped.y(2997.375))
	assert.Equal(t, 0.0, flipped.y(3000))
	assert.Equal(t, sexp.Symbol("0"), sexp.Num(flipped.y(3000)))
}

func TestArcMid(t *testing.T) {
	mid := arcMid(&domain.ArcSpec{
		Start: domain.Point{X: 0, Y: 0}, End: domain.Point{X: 10, Y: 0}, RadiusX: 5, RadiusY: 5, Sweep: true,
	})
	assert.InDelta(t, 5, mid.X, 1e-9)
	assert.InDelta(t, -5, mid.Y, 1e-9)

	mid = arcMid(&domain.ArcSpec{
		Start: domain.Point{X: 0, Y: 0}, End: domain.Point{X: 10, Y: 0}, RadiusX: 5, RadiusY: 5, Sweep: false,
	})
	assert.InDelta(t, 5, mid.Y, 1e-9)
}

func TestPinType(t *testing.T) {
	tests := []struct {
		code  string
		want  string
		known bool
	}{
		{"0", "unspecified", true},
		{"1", "input", true},
		{"2", "output", true},
		{"3", "bidirectional", true},
		{"4", "power_in", true},
		{"Passive", "passive", true},
		{"", "unspecified", true},
		{"7", "unspecified", false},
	}
	for _, tt := range tests {
		got, known := PinType(tt.code)
		assert.Equal(t, tt.want, got, tt.code)
		assert.Equal(t, tt.known, known, tt.code)
	}
}

func TestNames(t *testing.T) {
	rec := &domain.ComponentRecord{SourceID: "C1", Name: `AB/C:D "x"`, Package: `SOT-23 3\L`}
	assert.Equal(t, "AB_C_D__x_", SymbolName(rec))
	assert.Equal(t, "SOT-23_3_L_C1", FootprintName(rec))

	rec = &domain.ComponentRecord{SourceID: "C1"}
	assert.Equal(t, "C1", SymbolName(rec))
	assert.Equal(t, "Package_C1", FootprintName(rec))
}
