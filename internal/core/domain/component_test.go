package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "C2040", NormalizeIdentifier("  c2040\n"))
	assert.Equal(t, "C2040", NormalizeIdentifier("C2040"))
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("C2040"))
	assert.True(t, ValidIdentifier("C1"))
	assert.False(t, ValidIdentifier("c2040"))
	assert.False(t, ValidIdentifier("2040"))
	assert.False(t, ValidIdentifier("C20a"))
	assert.False(t, ValidIdentifier(""))
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		in   string
		want Classification
	}{
		{"Basic Part", ClassificationBasic},
		{"base", ClassificationBasic},
		{"Extended Part", ClassificationExtended},
		{"expand", ClassificationExtended},
		{"", ClassificationUnknown},
		{"preferred", ClassificationUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseClassification(tt.in), tt.in)
	}
	assert.Equal(t, "Basic Part", ClassificationBasic.Description())
	assert.Equal(t, "Unknown", ClassificationUnknown.Description())
}

func TestComponentRecord_Clone(t *testing.T) {
	orig := &ComponentRecord{
		SourceID:   "C2040",
		PriceTiers: []PriceTier{{MinQty: 1, UnitPrice: decimal.RequireFromString("1.23")}},
		Sources:    []SourceTag{SourceEasyEDA},
		Notes:      []string{"a"},
	}

	c := orig.Clone()
	c.PriceTiers[0].MinQty = 99
	c.Sources = append(c.Sources, SourceJLCPCB)
	c.Notes[0] = "b"

	assert.Equal(t, 1, orig.PriceTiers[0].MinQty)
	assert.Len(t, orig.Sources, 1)
	assert.Equal(t, "a", orig.Notes[0])
	assert.Nil(t, (*ComponentRecord)(nil).Clone())
}

func TestComponentRecord_UnitPriceAt(t *testing.T) {
	r := &ComponentRecord{PriceTiers: []PriceTier{
		{MinQty: 1, MaxQty: 9, UnitPrice: decimal.RequireFromString("0.5")},
		{MinQty: 10, MaxQty: 99, UnitPrice: decimal.RequireFromString("0.4")},
		{MinQty: 100, UnitPrice: decimal.RequireFromString("0.3")},
	}}

	p, ok := r.UnitPriceAt(50)
	require.True(t, ok)
	assert.True(t, p.Equal(decimal.RequireFromString("0.4")))

	p, ok = r.UnitPriceAt(1000)
	require.True(t, ok)
	assert.True(t, p.Equal(decimal.RequireFromString("0.3")))

	_, ok = (&ComponentRecord{}).UnitPriceAt(1)
	assert.False(t, ok)
}

func TestGeometry_Terminals(t *testing.T) {
	var nilGeo *Geometry
	assert.Equal(t, 0, nilGeo.Terminals())
	assert.False(t, nilGeo.HasSymbol())

	g := &Geometry{Pads: []Pad{{Number: "1"}, {Number: "2"}, {Number: "3"}}}
	assert.Equal(t, 3, g.Terminals())
	assert.True(t, g.HasFootprint())
	assert.False(t, g.HasSymbol())

	g.Pins = []Pin{{Number: "1"}}
	assert.Equal(t, 1, g.Terminals())

	g.TerminalCount = 8
	assert.Equal(t, 8, g.Terminals())
}

func TestShape_Describe(t *testing.T) {
	assert.Equal(t, "polygon #4 (gge12)", Shape{Kind: ShapePolygon, ID: "gge12"}.Describe(4))
	assert.Equal(t, "arc #0", Shape{Kind: ShapeArc}.Describe(0))
}
