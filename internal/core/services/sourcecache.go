package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
	"github.com/custodia-labs/kicad-lcsc/internal/metrics"
)

// geometryEnvelope is the cached form of a found geometry-source fetch:
// the metadata record plus its geometry result. Pricing is never cached.
type geometryEnvelope struct {
	Record   *domain.ComponentRecord `json:"record"`
	Geometry *domain.Geometry        `json:"geometry,omitempty"`
	Models   []domain.ModelRef       `json:"models,omitempty"`
}

// sourceCache wraps a driven.SourceCache with the freshness window.
// A nil *sourceCache is a disabled cache.
type sourceCache struct {
	store  driven.SourceCache
	expiry time.Duration
	now    func() time.Time
}

func newSourceCache(store driven.SourceCache, expiry time.Duration, now func() time.Time) *sourceCache {
	if store == nil || expiry <= 0 {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	return &sourceCache{store: store, expiry: expiry, now: now}
}

// load returns the cached fetch for id. Cache errors are misses.
func (c *sourceCache) load(ctx context.Context, source domain.SourceTag, id string) (domain.SourceResult, domain.GeometryResult, bool) {
	if c == nil {
		return domain.SourceResult{}, domain.GeometryResult{}, false
	}
	payload, ok, err := c.store.Get(ctx, source.String(), id, c.now().Add(-c.expiry))
	if err != nil {
		logger.Warn("source cache read %s/%s: %v", source, id, err)
	}
	if err != nil || !ok {
		metrics.SourceCacheTotal.WithLabelValues("miss").Inc()
		return domain.SourceResult{}, domain.GeometryResult{}, false
	}

	var env geometryEnvelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Record == nil {
		logger.Warn("source cache entry %s/%s unreadable, ignoring", source, id)
		metrics.SourceCacheTotal.WithLabelValues("miss").Inc()
		return domain.SourceResult{}, domain.GeometryResult{}, false
	}
	metrics.SourceCacheTotal.WithLabelValues("hit").Inc()
	logger.Debug("source cache hit: %s/%s", source, id)
	return domain.Found(source, env.Record),
		domain.GeometryResult{Outcome: domain.OutcomeFound, Geometry: env.Geometry, Models: env.Models},
		true
}

// save caches a fully found fetch. Anything else is left uncached so a
// transient failure is retried on the next search.
func (c *sourceCache) save(ctx context.Context, id string, meta domain.SourceResult, geo domain.GeometryResult) {
	if c == nil || meta.Outcome != domain.OutcomeFound || geo.Outcome != domain.OutcomeFound {
		return
	}
	payload, err := json.Marshal(geometryEnvelope{Record: meta.Record, Geometry: geo.Geometry, Models: geo.Models})
	if err != nil {
		logger.Warn("source cache encode %s: %v", id, err)
		return
	}
	if err := c.store.Put(ctx, meta.Source.String(), id, payload, c.now()); err != nil {
		logger.Warn("source cache write %s/%s: %v", meta.Source, id, err)
	}
}
