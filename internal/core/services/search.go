package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driving"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
	"github.com/custodia-labs/kicad-lcsc/internal/metrics"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService aggregates the geometry and pricing catalogs.
type SearchService struct {
	geometry driven.GeometrySource
	pricing  driven.PricingSource
	keywords driven.KeywordSource
	cache    *sourceCache
}

// NewSearchService creates a new search service.
func NewSearchService(geometry driven.GeometrySource, pricing driven.PricingSource) *SearchService {
	return &SearchService{geometry: geometry, pricing: pricing}
}

// SetSourceCache enables caching of geometry-source results for expiry.
// A nil store or non-positive expiry disables the cache.
func (s *SearchService) SetSourceCache(store driven.SourceCache, expiry time.Duration, now func() time.Time) {
	s.cache = newSourceCache(store, expiry, now)
}

// SetKeywordSource enables Find. A nil source disables it.
func (s *SearchService) SetKeywordSource(src driven.KeywordSource) {
	s.keywords = src
}

// Find runs a free-text search against the keyword catalog.
func (s *SearchService) Find(ctx context.Context, query domain.KeywordQuery) ([]domain.SearchHit, error) {
	keyword := query.Keyword()
	if keyword == "" {
		return nil, fmt.Errorf("%w: at least one search term is required", domain.ErrInvalidInput)
	}
	if s.keywords == nil {
		return nil, errors.New("keyword search is not available")
	}
	logger.Debug("Keyword search: %q page %d", keyword, query.PageOrFirst())

	hits, err := s.keywords.Search(ctx, keyword, query.PageOrFirst())
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("keyword_error").Inc()
		return nil, err
	}
	metrics.SearchesTotal.WithLabelValues("keyword").Inc()
	return hits, nil
}

// Search fetches id from both catalogs and merges the results.
func (s *SearchService) Search(ctx context.Context, id string, opts domain.SearchOptions) (*domain.ComponentRecord, error) {
	logger.Section("Component Search")

	id = domain.NormalizeIdentifier(id)
	if !domain.ValidIdentifier(id) {
		return nil, fmt.Errorf("%w: %q is not a catalog code", domain.ErrInvalidInput, id)
	}
	logger.Debug("Identifier: %s (refresh=%v)", id, opts.Refresh)

	var (
		meta  domain.SourceResult
		geo   domain.GeometryResult
		price domain.SourceResult
	)

	// Neither fetch cancels the other; both always settle.
	var g errgroup.Group
	g.Go(func() error {
		meta, geo = s.fetchGeometrySide(ctx, id, opts)
		return nil
	})
	g.Go(func() error {
		price = s.pricing.Fetch(ctx, id)
		return nil
	})
	_ = g.Wait()

	logger.Debug("%s: %s, geometry: %s, %s: %s",
		meta.Source, meta.Outcome, geo.Outcome, price.Source, price.Outcome)

	rec := mergeResults(id, meta, geo, price)
	if rec == nil {
		metrics.SearchesTotal.WithLabelValues("not_found").Inc()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", id, domain.ErrNotFound)
	}

	if meta.Outcome == domain.OutcomeFound && price.Outcome == domain.OutcomeFound {
		metrics.SearchesTotal.WithLabelValues("found").Inc()
	} else {
		metrics.SearchesTotal.WithLabelValues("partial").Inc()
	}
	return rec, nil
}

// fetchGeometrySide runs the metadata fetch and, once it is found, the
// geometry fetch, consulting the source cache first.
func (s *SearchService) fetchGeometrySide(ctx context.Context, id string, opts domain.SearchOptions) (domain.SourceResult, domain.GeometryResult) {
	if !opts.Refresh {
		if meta, geo, ok := s.cache.load(ctx, s.geometry.Source(), id); ok {
			return meta, geo
		}
	}

	meta := s.geometry.Fetch(ctx, id)
	if meta.Outcome != domain.OutcomeFound {
		return meta, domain.GeometryResult{Outcome: meta.Outcome, Err: meta.Err}
	}
	geo := s.geometry.FetchGeometry(ctx, id)
	s.cache.save(ctx, id, meta, geo)
	return meta, geo
}

// mergeResults combines the settled fetches. The geometry source wins
// identity, manufacturer, package and geometry; pricing always supplies
// stock, tiers, product URL and image, and fills datasheet, description
// and classification only where the geometry source has none.
// Returns nil when neither source found the part.
func mergeResults(id string, meta domain.SourceResult, geo domain.GeometryResult, price domain.SourceResult) *domain.ComponentRecord {
	metaFound := meta.Outcome == domain.OutcomeFound && meta.Record != nil
	priceFound := price.Outcome == domain.OutcomeFound && price.Record != nil

	var rec *domain.ComponentRecord
	switch {
	case metaFound:
		rec = meta.Record.Clone()
	case priceFound:
		rec = price.Record.Clone()
		rec.Notes = append(rec.Notes, describeMiss(meta))
	default:
		return nil
	}
	rec.SourceID = id
	rec.Sources = nil

	if metaFound {
		rec.Sources = append(rec.Sources, meta.Source)
		switch geo.Outcome {
		case domain.OutcomeFound:
			rec.Geometry = geo.Geometry
			rec.Model3DRefs = append([]domain.ModelRef(nil), geo.Models...)
			if geo.Geometry == nil {
				rec.Notes = append(rec.Notes, "no CAD data published for this part")
			}
		default:
			rec.Geometry = nil
			rec.Model3DRefs = nil
			rec.Notes = append(rec.Notes, fmt.Sprintf("geometry %s", describeOutcome(geo.Outcome, geo.Err)))
		}

		if priceFound {
			fillPricing(rec, price.Record)
		} else {
			rec.Stock = 0
			rec.PriceTiers = []domain.PriceTier{}
			rec.Notes = append(rec.Notes, describeMiss(price))
		}
	}
	if priceFound {
		rec.Sources = append(rec.Sources, price.Source)
	}

	if rec.PriceTiers == nil {
		rec.PriceTiers = []domain.PriceTier{}
	}
	if rec.Name == "" {
		rec.Name = id
	}
	if !rec.Classification.IsValid() {
		rec.Classification = domain.ClassificationUnknown
	}
	return rec
}

// fillPricing copies pricing fields onto a geometry-source record.
func fillPricing(rec, p *domain.ComponentRecord) {
	rec.Stock = p.Stock
	rec.PriceTiers = append([]domain.PriceTier(nil), p.PriceTiers...)
	if p.ProductURL != "" {
		rec.ProductURL = p.ProductURL
	}
	if p.ImageURL != "" {
		rec.ImageURL = p.ImageURL
	}

	if rec.DatasheetURL == "" {
		rec.DatasheetURL = p.DatasheetURL
	}
	if rec.Description == "" {
		rec.Description = p.Description
	}
	if rec.Classification == "" || rec.Classification == domain.ClassificationUnknown {
		rec.Classification = p.Classification
	}
	if rec.ManufacturerPart == "" {
		rec.ManufacturerPart = p.ManufacturerPart
	}
	if rec.Package == "" {
		rec.Package = p.Package
	}

	switch {
	case rec.Manufacturer == "":
		rec.Manufacturer = p.Manufacturer
	case p.Manufacturer != "" && !strings.EqualFold(rec.Manufacturer, p.Manufacturer):
		rec.Notes = append(rec.Notes, fmt.Sprintf("manufacturer disagreement: keeping %q over %q", rec.Manufacturer, p.Manufacturer))
	}
	rec.Notes = append(rec.Notes, p.Notes...)
}

func describeMiss(r domain.SourceResult) string {
	return fmt.Sprintf("%s %s", r.Source, describeOutcome(r.Outcome, r.Err))
}

func describeOutcome(o domain.Outcome, err error) string {
	if o == domain.OutcomeUnavailable && err != nil {
		return fmt.Sprintf("unavailable: %v", err)
	}
	return strings.ReplaceAll(o.String(), "_", " ")
}
