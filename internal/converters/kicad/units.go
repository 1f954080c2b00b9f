package kicad

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/kicad/sexp"
)

const (
	// UnitMM is the length of one source unit (10 mil) in millimetres.
	UnitMM = 0.254

	// Precision is the number of decimal places written to KiCad files.
	Precision = 4
)

var unitMM = decimal.NewFromFloat(UnitMM)

// Round rounds v half away from zero to Precision decimals. v is taken at
// its shortest decimal form, so 0.53975 rounds up as written.
func Round(v float64) float64 {
	return toFloat(decimal.NewFromFloat(v))
}

func toFloat(d decimal.Decimal) float64 {
	r := d.Round(Precision).InexactFloat64()
	if r == 0 {
		return 0
	}
	return r
}

// scale converts a source offset to millimetres in decimal arithmetic,
// so exact ties such as 2.125 * 0.254 = 0.53975 round away from zero.
func scale(v, origin float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Sub(decimal.NewFromFloat(origin)).Mul(unitMM)
}

// space maps source coordinates into KiCad millimetres.
type space struct {
	origin domain.Point
	// flipY is set for symbols: KiCad symbol Y grows upwards.
	flipY bool
}

func (s space) x(v float64) float64 {
	return toFloat(scale(v, s.origin.X))
}

func (s space) y(v float64) float64 {
	mm := scale(v, s.origin.Y)
	if s.flipY {
		mm = mm.Neg()
	}
	return toFloat(mm)
}

// length scales a distance without applying the origin.
func length(v float64) float64 {
	return toFloat(scale(v, 0))
}

// xy builds a two-number list such as (start x y) for a source point.
func (s space) xy(head string, p domain.Point) *sexp.List {
	return sexp.NewList(head, sexp.Num(s.x(p.X)), sexp.Num(s.y(p.Y)))
}

// rel builds a point relative to anchor, scaled but never flipped.
func rel(head string, p, anchor domain.Point) *sexp.List {
	return sexp.NewList(head, sexp.Num(toFloat(scale(p.X, anchor.X))), sexp.Num(toFloat(scale(p.Y, anchor.Y))))
}

func pts(s space, points []domain.Point) *sexp.List {
	l := sexp.NewList("pts")
	for _, p := range points {
		l.Append(s.xy("xy", p))
	}
	return l
}

// angle normalises degrees into [0, 360) rounded to Precision.
func angle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return Round(a)
}

// arcMid returns a point on the arc halfway between its endpoints, in
// source coordinates. It follows the SVG endpoint parameterisation for a
// circular arc with radius rx.
func arcMid(a *domain.ArcSpec) domain.Point {
	x1, y1 := a.Start.X, a.Start.Y
	x2, y2 := a.End.X, a.End.Y
	r := math.Abs(a.RadiusX)
	if r == 0 {
		r = math.Abs(a.RadiusY)
	}
	if r == 0 {
		return domain.Point{X: (x1 + x2) / 2, Y: (y1 + y2) / 2}
	}

	hx, hy := (x1-x2)/2, (y1-y2)/2
	if lambda := (hx*hx + hy*hy) / (r * r); lambda > 1 {
		r *= math.Sqrt(lambda)
	}

	num := r*r*r*r - r*r*hy*hy - r*r*hx*hx
	den := r*r*hy*hy + r*r*hx*hx
	coef := 0.0
	if den > 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if a.LargeArc == a.Sweep {
		coef = -coef
	}
	cxp, cyp := coef*hy, -coef*hx
	cx, cy := cxp+(x1+x2)/2, cyp+(y1+y2)/2

	ux, uy := (hx-cxp)/r, (hy-cyp)/r
	vx, vy := (-hx-cxp)/r, (-hy-cyp)/r
	theta := math.Atan2(uy, ux)
	delta := math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	if !a.Sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if a.Sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	mid := theta + delta/2
	return domain.Point{X: cx + r*math.Cos(mid), Y: cy + r*math.Sin(mid)}
}

// ellipsePoints approximates an ellipse by a closed ring of segments.
func ellipsePoints(c domain.Point, rx, ry float64, segments int) []domain.Point {
	out := make([]domain.Point, 0, segments+1)
	for i := 0; i <= segments; i++ {
		t := 2 * math.Pi * float64(i%segments) / float64(segments)
		out = append(out, domain.Point{X: c.X + rx*math.Cos(t), Y: c.Y + ry*math.Sin(t)})
	}
	return out
}
