package domain

import "strconv"

// Point is a coordinate in source units unless stated otherwise.
type Point struct {
	X float64
	Y float64
}

// ShapeKind discriminates the Shape tagged union.
type ShapeKind string

// Shape variants. Unknown carries source primitives that have no KiCad
// counterpart so the converter can report them.
const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeEllipse   ShapeKind = "ellipse"
	ShapePolygon   ShapeKind = "polygon"
	ShapePolyline  ShapeKind = "polyline"
	ShapeArc       ShapeKind = "arc"
	ShapeUnknown   ShapeKind = "unknown"
)

// ArcSpec is an SVG-style elliptical arc segment.
type ArcSpec struct {
	Start    Point
	End      Point
	RadiusX  float64
	RadiusY  float64
	LargeArc bool
	Sweep    bool
}

// Shape is one graphic primitive. Which fields are meaningful depends on Kind:
//
//   - rectangle: Origin (top-left), Width, Height
//   - circle: Origin (centre), RadiusX
//   - ellipse: Origin (centre), RadiusX, RadiusY
//   - polygon, polyline: Points
//   - arc: Arc
//   - unknown: SourceTag
type Shape struct {
	Kind        ShapeKind
	ID          string
	Layer       string
	Origin      Point
	Width       float64
	Height      float64
	RadiusX     float64
	RadiusY     float64
	Points      []Point
	Arc         *ArcSpec
	StrokeWidth float64
	Filled      bool

	// PadNumber ties the shape to a pad, e.g. copper drawn on a pad.
	PadNumber string

	// SourceTag is the raw primitive tag.
	SourceTag string
}

// Describe names the shape for error messages.
func (s Shape) Describe(index int) string {
	if s.ID != "" {
		return string(s.Kind) + " #" + strconv.Itoa(index) + " (" + s.ID + ")"
	}
	return string(s.Kind) + " #" + strconv.Itoa(index)
}

// Pin is one electrical terminal of the symbol.
type Pin struct {
	Number   string
	Name     string
	TypeCode string
	Position Point
	Rotation float64
	Length   float64
	Hidden   bool
}

// PadShape is the copper outline of a pad.
type PadShape string

// Pad shapes.
const (
	PadRect   PadShape = "rect"
	PadCircle PadShape = "circle"
	PadOval   PadShape = "oval"
	PadCustom PadShape = "custom"
)

// MountKind is how a pad attaches to the board.
type MountKind string

// Mount kinds.
const (
	MountSMD         MountKind = "smd"
	MountThroughHole MountKind = "through_hole"
)

// Pad is one land of the footprint.
type Pad struct {
	Number   string
	ID       string
	Shape    PadShape
	Mount    MountKind
	Layer    string
	Position Point
	Width    float64
	Height   float64
	Rotation float64

	// Drill is the finished hole diameter. Nil when absent.
	Drill *float64

	// Points is the outline of a custom pad, in absolute source coordinates.
	Points []Point
}

// Hole is a non-plated mounting hole.
type Hole struct {
	ID       string
	Position Point
	Diameter float64
}

// Geometry is the raw, source-space CAD description of a part.
type Geometry struct {
	SymbolOrigin Point
	SymbolShapes []Shape
	Pins         []Pin

	FootprintName   string
	FootprintOrigin Point
	FootprintShapes []Shape
	Pads            []Pad
	Holes           []Hole

	// TerminalCount is the known terminal count, 0 when unknown.
	TerminalCount int
}

// HasSymbol reports whether there is any symbol-side data.
func (g *Geometry) HasSymbol() bool {
	return g != nil && (len(g.Pins) > 0 || len(g.SymbolShapes) > 0)
}

// HasFootprint reports whether there is any footprint-side data.
func (g *Geometry) HasFootprint() bool {
	return g != nil && (len(g.Pads) > 0 || len(g.FootprintShapes) > 0)
}

// Terminals returns the best known terminal count.
func (g *Geometry) Terminals() int {
	if g == nil {
		return 0
	}
	if g.TerminalCount > 0 {
		return g.TerminalCount
	}
	if len(g.Pins) > 0 {
		return len(g.Pins)
	}
	return len(g.Pads)
}

// Float returns a pointer to v, for optional fields such as Pad.Drill.
func Float(v float64) *float64 {
	return &v
}
