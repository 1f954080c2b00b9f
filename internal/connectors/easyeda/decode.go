package easyeda

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

// SymbolLayer is the layer tag given to every symbol-side shape.
const SymbolLayer = "sch"

// multiLayer is the EasyEDA layer id of through-hole pads.
const multiLayer = "11"

// unitMM is one EasyEDA unit (10 mil) in millimetres.
var unitMM = decimal.RequireFromString("0.254")

// decodeGeometry turns the symbol and package shape lists of a document
// into raw geometry. It returns nil when the document has no CAD data.
func decodeGeometry(doc *document, stepURL, objURL string) (*domain.Geometry, []domain.ModelRef) {
	hasSymbol := len(doc.DataStr.Shape) > 0
	hasPackage := doc.PackageDetail != nil && len(doc.PackageDetail.DataStr.Shape) > 0
	if !hasSymbol && !hasPackage {
		return nil, nil
	}

	g := &domain.Geometry{}
	if hasSymbol {
		decodeSymbol(doc.DataStr, g)
	}

	var models []domain.ModelRef
	if hasPackage {
		pkg := doc.PackageDetail
		g.FootprintName = pkg.Title
		if name := pkg.DataStr.Head.CPara["package"]; name != "" {
			g.FootprintName = name
		}
		models = decodeFootprint(pkg.DataStr, g, stepURL, objURL)
	}

	switch {
	case len(g.Pins) > 0:
		g.TerminalCount = len(g.Pins)
	case len(g.Pads) > 0:
		g.TerminalCount = countDistinctPads(g.Pads)
	}
	return g, models
}

func decodeSymbol(ds dataStr, g *domain.Geometry) {
	g.SymbolOrigin = domain.Point{X: float64(ds.Head.X), Y: float64(ds.Head.Y)}

	for _, raw := range ds.Shape {
		if strings.HasPrefix(raw, "P~") {
			if pin, ok := decodePin(raw); ok {
				g.Pins = append(g.Pins, pin)
				continue
			}
			g.SymbolShapes = append(g.SymbolShapes, unknownShape("P", SymbolLayer))
			continue
		}

		f := strings.Split(raw, "~")
		var s domain.Shape
		switch f[0] {
		case "R":
			s = domain.Shape{
				Kind:        domain.ShapeRectangle,
				Origin:      domain.Point{X: num(f, 1), Y: num(f, 2)},
				Width:       num(f, 5),
				Height:      num(f, 6),
				StrokeWidth: num(f, 8),
				Filled:      isFilled(field(f, 10)),
				ID:          field(f, 11),
			}
		case "E":
			s = domain.Shape{
				Kind:        domain.ShapeEllipse,
				Origin:      domain.Point{X: num(f, 1), Y: num(f, 2)},
				RadiusX:     num(f, 3),
				RadiusY:     num(f, 4),
				StrokeWidth: num(f, 6),
				Filled:      isFilled(field(f, 8)),
				ID:          field(f, 9),
			}
		case "C":
			s = domain.Shape{
				Kind:        domain.ShapeCircle,
				Origin:      domain.Point{X: num(f, 1), Y: num(f, 2)},
				RadiusX:     num(f, 3),
				RadiusY:     num(f, 3),
				StrokeWidth: num(f, 5),
				Filled:      isFilled(field(f, 7)),
				ID:          field(f, 8),
			}
		case "PL", "PG":
			s = domain.Shape{
				Kind:        domain.ShapePolyline,
				Points:      parsePoints(field(f, 1)),
				StrokeWidth: num(f, 3),
				Filled:      isFilled(field(f, 5)),
				ID:          field(f, 6),
			}
			if f[0] == "PG" {
				s.Kind = domain.ShapePolygon
			}
		case "A":
			s = pathShape(field(f, 1))
			s.StrokeWidth = num(f, 4)
			s.Filled = isFilled(field(f, 6))
			s.ID = field(f, 7)
		case "PT":
			s = pathShape(field(f, 1))
			s.StrokeWidth = num(f, 3)
			s.Filled = isFilled(field(f, 5))
			s.ID = field(f, 6)
		default:
			s = unknownShape(f[0], SymbolLayer)
		}
		s.Layer = SymbolLayer
		s.SourceTag = f[0]
		g.SymbolShapes = append(g.SymbolShapes, s)
	}
}

// decodePin parses P~show~electric~spicePin~x~y~rotation~id~locked^^dot^^path^^name^^number...
func decodePin(raw string) (domain.Pin, bool) {
	segs := strings.Split(raw, "^^")
	f := strings.Split(segs[0], "~")
	if len(f) < 7 {
		return domain.Pin{}, false
	}

	pin := domain.Pin{
		TypeCode: field(f, 2),
		Number:   strings.TrimSpace(field(f, 3)),
		Position: domain.Point{X: num(f, 4), Y: num(f, 5)},
		Hidden:   field(f, 1) == "none",
	}
	rotation := num(f, 6)

	if len(segs) > 3 {
		pin.Name = strings.TrimSpace(field(strings.Split(segs[3], "~"), 4))
	}
	if pin.Number == "" && len(segs) > 4 {
		pin.Number = strings.TrimSpace(field(strings.Split(segs[4], "~"), 4))
	}

	// The pin line runs from the connection point towards the body.
	pin.Rotation = normalizeAngle(180 - rotation)
	if len(segs) > 2 {
		if dx, dy, ok := pinDelta(field(strings.Split(segs[2], "~"), 0)); ok {
			pin.Length = math.Abs(dx) + math.Abs(dy)
			if pin.Length > 0 {
				// Source Y grows downwards; rotation is expressed Y-up.
				pin.Rotation = normalizeAngle(math.Atan2(-dy, dx) * 180 / math.Pi)
			}
		}
	}
	return pin, true
}

// pinDelta extracts the h/v displacement of a pin path such as "M 360 270 h -10".
func pinDelta(path string) (dx, dy float64, ok bool) {
	tokens := tokenizePath(path)
	for i := 0; i+1 < len(tokens); i++ {
		switch tokens[i] {
		case "h":
			v, err := strconv.ParseFloat(tokens[i+1], 64)
			if err == nil {
				dx += v
				ok = true
			}
		case "v":
			v, err := strconv.ParseFloat(tokens[i+1], 64)
			if err == nil {
				dy += v
				ok = true
			}
		case "L":
			if i+2 < len(tokens) {
				sx, sy, hasStart := pathStart(tokens)
				x, ex := strconv.ParseFloat(tokens[i+1], 64)
				y, ey := strconv.ParseFloat(tokens[i+2], 64)
				if hasStart && ex == nil && ey == nil {
					return x - sx, y - sy, true
				}
			}
		}
	}
	return dx, dy, ok
}

func pathStart(tokens []string) (x, y float64, ok bool) {
	for i := 0; i+2 < len(tokens); i++ {
		if tokens[i] == "M" {
			x, ex := strconv.ParseFloat(tokens[i+1], 64)
			y, ey := strconv.ParseFloat(tokens[i+2], 64)
			return x, y, ex == nil && ey == nil
		}
	}
	return 0, 0, false
}

func decodeFootprint(ds dataStr, g *domain.Geometry, stepURL, objURL string) []domain.ModelRef {
	origin := domain.Point{X: float64(ds.Head.X), Y: float64(ds.Head.Y)}
	g.FootprintOrigin = origin

	var models []domain.ModelRef
	for _, raw := range ds.Shape {
		f := strings.Split(raw, "~")
		switch f[0] {
		case "PAD":
			g.Pads = append(g.Pads, decodePad(f))
		case "HOLE":
			g.Holes = append(g.Holes, domain.Hole{
				Position: domain.Point{X: num(f, 1), Y: num(f, 2)},
				Diameter: 2 * num(f, 3),
				ID:       field(f, 4),
			})
		case "TRACK":
			g.FootprintShapes = append(g.FootprintShapes, domain.Shape{
				Kind:        domain.ShapePolyline,
				StrokeWidth: num(f, 1),
				Layer:       field(f, 2),
				Points:      parsePoints(field(f, 4)),
				ID:          field(f, 5),
				SourceTag:   f[0],
			})
		case "CIRCLE":
			g.FootprintShapes = append(g.FootprintShapes, domain.Shape{
				Kind:        domain.ShapeCircle,
				Origin:      domain.Point{X: num(f, 1), Y: num(f, 2)},
				RadiusX:     num(f, 3),
				RadiusY:     num(f, 3),
				StrokeWidth: num(f, 4),
				Layer:       field(f, 5),
				ID:          field(f, 6),
				SourceTag:   f[0],
			})
		case "ARC":
			s := pathShape(field(f, 4))
			s.StrokeWidth = num(f, 1)
			s.Layer = field(f, 2)
			s.ID = field(f, 6)
			s.SourceTag = f[0]
			g.FootprintShapes = append(g.FootprintShapes, s)
		case "RECT":
			g.FootprintShapes = append(g.FootprintShapes, domain.Shape{
				Kind:        domain.ShapeRectangle,
				Origin:      domain.Point{X: num(f, 1), Y: num(f, 2)},
				Width:       num(f, 3),
				Height:      num(f, 4),
				StrokeWidth: num(f, 5),
				ID:          field(f, 6),
				Layer:       field(f, 7),
				SourceTag:   f[0],
			})
		case "SOLIDREGION":
			s := pathShape(field(f, 3))
			if s.Kind == domain.ShapePolyline {
				s.Kind = domain.ShapePolygon
			}
			s.Layer = field(f, 1)
			s.Filled = true
			s.ID = field(f, 5)
			s.SourceTag = f[0]
			g.FootprintShapes = append(g.FootprintShapes, s)
		case "SVGNODE":
			if ref, ok := decodeModel(raw, origin, stepURL, objURL); ok {
				models = append(models, ref...)
			}
		default:
			g.FootprintShapes = append(g.FootprintShapes, unknownShape(f[0], field(f, 1)))
		}
	}
	return models
}

// decodePad parses PAD~shape~x~y~w~h~layer~net~number~holeRadius~points~rotation~id~holeLength~holePoint~isPlated~locked.
func decodePad(f []string) domain.Pad {
	pad := domain.Pad{
		Position: domain.Point{X: num(f, 2), Y: num(f, 3)},
		Width:    num(f, 4),
		Height:   num(f, 5),
		Layer:    field(f, 6),
		Number:   strings.TrimSpace(field(f, 8)),
		Rotation: num(f, 11),
		ID:       field(f, 12),
		Mount:    domain.MountSMD,
	}

	holeRadius := num(f, 9)
	if pad.Layer == multiLayer || holeRadius > 0 {
		pad.Mount = domain.MountThroughHole
		if holeRadius > 0 {
			pad.Drill = domain.Float(2 * holeRadius)
		}
	}

	switch strings.ToUpper(field(f, 1)) {
	case "RECT":
		pad.Shape = domain.PadRect
	case "ELLIPSE":
		pad.Shape = domain.PadCircle
		if pad.Width != pad.Height {
			pad.Shape = domain.PadOval
		}
	case "OVAL":
		pad.Shape = domain.PadOval
	case "POLYGON":
		pad.Shape = domain.PadCustom
		pad.Points = parsePoints(field(f, 10))
	default:
		pad.Shape = domain.PadShape(strings.ToLower(field(f, 1)))
	}
	return pad
}

// decodeModel reads the SVGNODE JSON payload and yields the STEP and OBJ refs.
func decodeModel(raw string, origin domain.Point, stepURL, objURL string) ([]domain.ModelRef, bool) {
	_, payload, found := strings.Cut(raw, "~")
	if !found {
		return nil, false
	}
	var node svgNodeAttrs
	if err := json.Unmarshal([]byte(payload), &node); err != nil {
		return nil, false
	}
	attrs := node.Attrs
	if attrs.UUID == "" {
		return nil, false
	}

	var offset, rotation [3]float64
	if xy := splitNumbers(attrs.COrigin); len(xy) >= 2 {
		offset[0] = toMM(xy[0], origin.X)
		offset[1] = toMM(origin.Y, xy[1]) // Y is flipped
	}
	if z, err := strconv.ParseFloat(strings.TrimSpace(attrs.Z), 64); err == nil {
		offset[2] = toMM(z, 0)
	}
	if rot := splitNumbers(attrs.CRotation); len(rot) >= 3 {
		for i := range rot[:3] {
			rotation[i] = normalizeAngle(-rot[i])
		}
	}

	return []domain.ModelRef{
		{Format: domain.ModelFormatSTEP, URL: fmt.Sprintf(stepURL, attrs.UUID), Name: attrs.Title, Offset: offset, Rotation: rotation},
		{Format: domain.ModelFormatVRML, URL: fmt.Sprintf(objURL, attrs.UUID), Name: attrs.Title, Offset: offset, Rotation: rotation},
	}, true
}

// pathShape converts an SVG path into an arc (when it holds an A
// segment), a closed polygon (when it ends in Z) or a polyline.
func pathShape(path string) domain.Shape {
	tokens := tokenizePath(path)

	var pts []domain.Point
	var arc *domain.ArcSpec
	closed := false
	cmd := ""
	for i := 0; i < len(tokens); {
		t := tokens[i]
		if isCommand(t) {
			cmd = t
			i++
			if cmd == "Z" || cmd == "z" {
				closed = true
			}
			continue
		}
		switch cmd {
		case "M", "L":
			if i+1 >= len(tokens) {
				i = len(tokens)
				continue
			}
			x, _ := strconv.ParseFloat(tokens[i], 64)
			y, _ := strconv.ParseFloat(tokens[i+1], 64)
			pts = append(pts, domain.Point{X: x, Y: y})
			i += 2
		case "A":
			if i+6 >= len(tokens) || len(pts) == 0 {
				i = len(tokens)
				continue
			}
			vals := make([]float64, 7)
			for j := range vals {
				vals[j], _ = strconv.ParseFloat(tokens[i+j], 64)
			}
			end := domain.Point{X: vals[5], Y: vals[6]}
			if arc == nil {
				arc = &domain.ArcSpec{
					Start:    pts[len(pts)-1],
					End:      end,
					RadiusX:  vals[0],
					RadiusY:  vals[1],
					LargeArc: vals[3] != 0,
					Sweep:    vals[4] != 0,
				}
			}
			pts = append(pts, end)
			i += 7
		default:
			i++
		}
	}

	if arc != nil {
		return domain.Shape{Kind: domain.ShapeArc, Arc: arc}
	}
	if closed {
		return domain.Shape{Kind: domain.ShapePolygon, Points: pts}
	}
	return domain.Shape{Kind: domain.ShapePolyline, Points: pts}
}

func tokenizePath(path string) []string {
	var b strings.Builder
	for _, r := range path {
		switch {
		case r == ',':
			b.WriteByte(' ')
		case unicode.IsLetter(r) && r != 'e' && r != 'E':
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}

func isCommand(t string) bool {
	if len(t) != 1 {
		return false
	}
	return unicode.IsLetter(rune(t[0]))
}

func unknownShape(tag, layer string) domain.Shape {
	return domain.Shape{Kind: domain.ShapeUnknown, SourceTag: tag, Layer: layer}
}

func countDistinctPads(pads []domain.Pad) int {
	seen := make(map[string]struct{}, len(pads))
	for _, p := range pads {
		seen[p.Number] = struct{}{}
	}
	return len(seen)
}

func parsePoints(s string) []domain.Point {
	vals := splitNumbers(s)
	pts := make([]domain.Point, 0, len(vals)/2)
	for i := 0; i+1 < len(vals); i += 2 {
		pts = append(pts, domain.Point{X: vals[i], Y: vals[i+1]})
	}
	return pts
}

func splitNumbers(s string) []float64 {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func field(f []string, i int) string {
	if i < len(f) {
		return f[i]
	}
	return ""
}

func num(f []string, i int) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(field(f, i)), 64)
	if err != nil {
		return 0
	}
	return v
}

func isFilled(fill string) bool {
	fill = strings.TrimSpace(strings.ToLower(fill))
	return fill != "" && fill != "none"
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a == 0 {
		return 0
	}
	return round4(a)
}

// round4 rounds half away from zero to four decimals.
func round4(v float64) float64 {
	return fromDecimal(decimal.NewFromFloat(v))
}

// toMM converts the offset of v from origin to millimetres, rounded to
// four decimals in decimal arithmetic.
func toMM(v, origin float64) float64 {
	return fromDecimal(decimal.NewFromFloat(v).Sub(decimal.NewFromFloat(origin)).Mul(unitMM))
}

func fromDecimal(d decimal.Decimal) float64 {
	r := d.Round(4).InexactFloat64()
	if r == 0 {
		return 0
	}
	return r
}
