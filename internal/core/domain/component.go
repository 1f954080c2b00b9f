package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// SourceTag identifies a remote catalog.
type SourceTag string

// Known remote sources.
const (
	// SourceEasyEDA supplies geometry and identity metadata.
	SourceEasyEDA SourceTag = "easyeda"

	// SourceJLCPCB supplies stock, pricing and classification.
	SourceJLCPCB SourceTag = "jlcpcb"
)

// String returns the string representation.
func (s SourceTag) String() string {
	return string(s)
}

// Classification is the assembly-service classification of a part.
type Classification string

// Available classifications.
const (
	ClassificationBasic    Classification = "basic"
	ClassificationExtended Classification = "extended"
	ClassificationUnknown  Classification = "unknown"
)

// ParseClassification maps the catalog spellings ("Basic Part", "base",
// "Extended Part", "expand") onto a Classification.
func ParseClassification(s string) Classification {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic", "basic part", "base":
		return ClassificationBasic
	case "extended", "extended part", "expand":
		return ClassificationExtended
	default:
		return ClassificationUnknown
	}
}

// IsValid returns true if the classification is recognised.
func (c Classification) IsValid() bool {
	switch c {
	case ClassificationBasic, ClassificationExtended, ClassificationUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Classification) String() string {
	return string(c)
}

// Description returns a human-readable label.
func (c Classification) Description() string {
	switch c {
	case ClassificationBasic:
		return "Basic Part"
	case ClassificationExtended:
		return "Extended Part"
	default:
		return unknownDescription
	}
}

const unknownDescription = "Unknown"

// PriceTier is one quantity break. MaxQty of 0 means open-ended.
type PriceTier struct {
	MinQty    int             `json:"min_qty" yaml:"min_qty"`
	MaxQty    int             `json:"max_qty,omitempty" yaml:"max_qty,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price" yaml:"unit_price"`
}

// ModelFormat is the file format of a 3-D model.
type ModelFormat string

// Supported model formats.
const (
	ModelFormatSTEP ModelFormat = "step"
	ModelFormatVRML ModelFormat = "vrml"
)

// Extension returns the file extension used on disk.
func (f ModelFormat) Extension() string {
	switch f {
	case ModelFormatSTEP:
		return ".step"
	case ModelFormatVRML:
		return ".wrl"
	default:
		return ""
	}
}

// ModelRef points at a downloadable 3-D model.
type ModelRef struct {
	Format ModelFormat `json:"format" yaml:"format"`
	URL    string      `json:"url" yaml:"url"`
	Name   string      `json:"name,omitempty" yaml:"name,omitempty"`

	// Offset and Rotation place the model relative to the footprint (mm, degrees).
	Offset   [3]float64 `json:"offset" yaml:"offset"`
	Rotation [3]float64 `json:"rotation" yaml:"rotation"`
}

// ComponentRecord is the merged description of one catalog part.
// A record is constructed fresh per search and not mutated afterwards.
type ComponentRecord struct {
	SourceID         string         `json:"source_id" yaml:"source_id"`
	Name             string         `json:"name" yaml:"name"`
	Description      string         `json:"description,omitempty" yaml:"description,omitempty"`
	Manufacturer     string         `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	ManufacturerPart string         `json:"manufacturer_part,omitempty" yaml:"manufacturer_part,omitempty"`
	Package          string         `json:"package,omitempty" yaml:"package,omitempty"`
	Prefix           string         `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Classification   Classification `json:"classification" yaml:"classification"`
	Stock            int            `json:"stock" yaml:"stock"`
	PriceTiers       []PriceTier    `json:"price_tiers" yaml:"price_tiers"`
	DatasheetURL     string         `json:"datasheet_url,omitempty" yaml:"datasheet_url,omitempty"`
	ProductURL       string         `json:"product_url,omitempty" yaml:"product_url,omitempty"`
	ImageURL         string         `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Geometry         *Geometry      `json:"-" yaml:"-"`
	Model3DRefs      []ModelRef     `json:"models,omitempty" yaml:"models,omitempty"`
	Sources          []SourceTag    `json:"sources" yaml:"sources"`
	Notes            []string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// HasGeometry reports whether the record carries CAD data.
func (r *ComponentRecord) HasGeometry() bool {
	return r != nil && r.Geometry != nil
}

// Clone returns a copy that shares no slices with r.
func (r *ComponentRecord) Clone() *ComponentRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.PriceTiers = append([]PriceTier(nil), r.PriceTiers...)
	c.Model3DRefs = append([]ModelRef(nil), r.Model3DRefs...)
	c.Sources = append([]SourceTag(nil), r.Sources...)
	c.Notes = append([]string(nil), r.Notes...)
	return &c
}

// UnitPriceAt returns the unit price for the given order quantity.
func (r *ComponentRecord) UnitPriceAt(qty int) (decimal.Decimal, bool) {
	var price decimal.Decimal
	found := false
	for _, t := range r.PriceTiers {
		if qty >= t.MinQty {
			price = t.UnitPrice
			found = true
		}
	}
	return price, found
}

var identifierPattern = regexp.MustCompile(`^C[0-9]+$`)

// NormalizeIdentifier trims and upper-cases a catalog code so that
// "c2040 " and "C2040" address the same part.
func NormalizeIdentifier(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidIdentifier reports whether a normalized code looks like a catalog code.
func ValidIdentifier(id string) bool {
	return identifierPattern.MatchString(id)
}

// Outcome is the settled state of one source fetch.
type Outcome int

// Possible outcomes. Exactly one holds per fetch.
const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// SourceResult is what a source client returns for a metadata fetch.
type SourceResult struct {
	Source  SourceTag
	Outcome Outcome
	Record  *ComponentRecord
	Err     error
}

// Found builds a found result carrying a partial record.
func Found(src SourceTag, rec *ComponentRecord) SourceResult {
	return SourceResult{Source: src, Outcome: OutcomeFound, Record: rec}
}

// Missing builds a not-found result.
func Missing(src SourceTag) SourceResult {
	return SourceResult{Source: src, Outcome: OutcomeNotFound}
}

// Unavailable builds an unavailable result wrapping the cause.
func Unavailable(src SourceTag, err error) SourceResult {
	return SourceResult{Source: src, Outcome: OutcomeUnavailable, Err: err}
}

// GeometryResult is what the geometry source returns for a geometry fetch.
// Found with a nil Geometry means the part has no CAD data.
type GeometryResult struct {
	Outcome  Outcome
	Geometry *Geometry
	Models   []ModelRef
	Err      error
}

// SearchOptions control one aggregator call.
type SearchOptions struct {
	// Refresh bypasses the source cache.
	Refresh bool
}
