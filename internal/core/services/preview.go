package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driving"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
	"github.com/custodia-labs/kicad-lcsc/internal/metrics"
)

// Ensure PreviewService implements the interface.
var _ driving.PreviewService = (*PreviewService)(nil)

// previewKinds are the artifact kinds that get a preview.
var previewKinds = []domain.ArtifactKind{domain.ArtifactSymbol, domain.ArtifactFootprint}

const defaultPreviewEntries = 32

// previewSlot holds one cache entry. The entry pointer is only replaced
// by compare-and-swap so a completion can check its generation token
// and publish in one step.
type previewSlot struct {
	entry atomic.Pointer[domain.CacheEntry]

	mu      sync.Mutex
	changed chan struct{}
}

func newPreviewSlot(key domain.CacheKey) *previewSlot {
	slot := &previewSlot{changed: make(chan struct{})}
	slot.entry.Store(&domain.CacheEntry{Key: key, State: domain.CacheEmpty})
	return slot
}

// signal wakes every waiter.
func (p *previewSlot) signal() {
	p.mu.Lock()
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()
}

func (p *previewSlot) notify() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changed
}

// PreviewService renders symbol and footprint previews in the background.
type PreviewService struct {
	renderer driven.Renderer

	mu        sync.Mutex
	slots     *lru.Cache[domain.CacheKey, *previewSlot]
	current   string
	gen       atomic.Uint64
	discarded atomic.Uint64
}

// NewPreviewService creates a preview cache bounded to maxEntries keys.
func NewPreviewService(renderer driven.Renderer, maxEntries int) *PreviewService {
	if maxEntries <= 0 {
		maxEntries = defaultPreviewEntries
	}
	slots, _ := lru.New[domain.CacheKey, *previewSlot](maxEntries)
	return &PreviewService{renderer: renderer, slots: slots}
}

// Select makes sourceID current and dispatches renders for both kinds.
// Entries of the previous selection that are still pending are
// invalidated so their late renders are discarded.
func (s *PreviewService) Select(ctx context.Context, sourceID string, artifacts domain.ConvertedArtifacts) uint64 {
	sourceID = domain.NormalizeIdentifier(sourceID)
	gen := s.gen.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != "" && s.current != sourceID {
		for _, kind := range previewKinds {
			s.invalidate(domain.CacheKey{SourceID: s.current, Kind: kind}, gen)
		}
	}
	s.current = sourceID

	for _, kind := range previewKinds {
		key := domain.CacheKey{SourceID: sourceID, Kind: kind}
		slot := s.slot(key)

		prev := slot.entry.Load()
		if prev.State == domain.CacheReady {
			slot.entry.Store(&domain.CacheEntry{Key: key, Generation: gen, State: domain.CacheReady, Image: prev.Image})
			slot.signal()
			metrics.RendersTotal.WithLabelValues(kind.String(), "cached").Inc()
			continue
		}

		if err := renderable(kind, artifacts); err != nil {
			slot.entry.Store(&domain.CacheEntry{Key: key, Generation: gen, State: domain.CacheFailed, Err: err})
			slot.signal()
			metrics.RendersTotal.WithLabelValues(kind.String(), "failed").Inc()
			continue
		}

		slot.entry.Store(&domain.CacheEntry{Key: key, Generation: gen, State: domain.CachePending})
		slot.signal()
		go s.render(ctx, slot, key, gen, artifacts)
	}

	logger.Debug("preview: selected %s (generation %d)", sourceID, gen)
	return gen
}

// Current returns the entry of the current selection for kind.
func (s *PreviewService) Current(kind domain.ArtifactKind) domain.CacheEntry {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	key := domain.CacheKey{SourceID: current, Kind: kind}
	if entry, ok := s.Get(key); ok {
		return entry
	}
	return domain.CacheEntry{Key: key, State: domain.CacheEmpty}
}

// Get returns the cached entry for a key.
func (s *PreviewService) Get(key domain.CacheKey) (domain.CacheEntry, bool) {
	key.SourceID = domain.NormalizeIdentifier(key.SourceID)
	slot, ok := s.slots.Get(key)
	if !ok {
		return domain.CacheEntry{}, false
	}
	return *slot.entry.Load(), true
}

// Wait blocks until the entry for key is no longer pending.
func (s *PreviewService) Wait(ctx context.Context, key domain.CacheKey) (domain.CacheEntry, error) {
	key.SourceID = domain.NormalizeIdentifier(key.SourceID)
	slot, ok := s.slots.Get(key)
	if !ok {
		return domain.CacheEntry{Key: key, State: domain.CacheEmpty}, fmt.Errorf("preview %s/%s: %w", key.SourceID, key.Kind, domain.ErrNotFound)
	}
	for {
		changed := slot.notify()
		entry := *slot.entry.Load()
		if entry.State != domain.CachePending {
			return entry, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return entry, ctx.Err()
		}
	}
}

// Discarded reports how many completed renders were dropped because their
// generation was no longer current.
func (s *PreviewService) Discarded() uint64 {
	return s.discarded.Load()
}

// slot returns the slot for key, creating it. Caller holds s.mu.
func (s *PreviewService) slot(key domain.CacheKey) *previewSlot {
	if slot, ok := s.slots.Get(key); ok {
		return slot
	}
	slot := newPreviewSlot(key)
	s.slots.Add(key, slot)
	return slot
}

// invalidate moves a pending entry to empty under a new token.
// Ready entries stay as cache hits. Caller holds s.mu.
func (s *PreviewService) invalidate(key domain.CacheKey, gen uint64) {
	slot, ok := s.slots.Peek(key)
	if !ok {
		return
	}
	if cur := slot.entry.Load(); cur.State == domain.CachePending {
		slot.entry.Store(&domain.CacheEntry{Key: key, Generation: gen, State: domain.CacheEmpty})
		slot.signal()
	}
}

func (s *PreviewService) render(ctx context.Context, slot *previewSlot, key domain.CacheKey, gen uint64, artifacts domain.ConvertedArtifacts) {
	var (
		img []byte
		err error
	)
	if s.renderer == nil {
		err = fmt.Errorf("%w: no renderer configured", domain.ErrRenderFailed)
	} else {
		img, err = s.renderer.Render(ctx, key.Kind, artifacts)
	}
	s.complete(slot, gen, img, err)
}

// complete publishes a finished render if gen is still the slot's token.
func (s *PreviewService) complete(slot *previewSlot, gen uint64, img []byte, err error) bool {
	for {
		cur := slot.entry.Load()
		if cur.Generation != gen || cur.State != domain.CachePending {
			s.discarded.Add(1)
			metrics.RendersTotal.WithLabelValues(cur.Key.Kind.String(), "stale").Inc()
			logger.Debug("preview: discarded stale render %s/%s (generation %d, current %d)",
				cur.Key.SourceID, cur.Key.Kind, gen, cur.Generation)
			return false
		}

		next := &domain.CacheEntry{Key: cur.Key, Generation: gen, State: domain.CacheReady, Image: img}
		status := "ready"
		if err != nil {
			next.State = domain.CacheFailed
			next.Image = nil
			next.Err = err
			status = "failed"
		}
		if slot.entry.CompareAndSwap(cur, next) {
			slot.signal()
			metrics.RendersTotal.WithLabelValues(cur.Key.Kind.String(), status).Inc()
			return true
		}
	}
}

// renderable reports why kind of artifacts cannot be rendered.
func renderable(kind domain.ArtifactKind, artifacts domain.ConvertedArtifacts) error {
	if err := artifacts.Rejected[kind]; err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRenderFailed, err)
	}
	var content []byte
	switch kind {
	case domain.ArtifactSymbol:
		content = artifacts.Symbol.Content
	case domain.ArtifactFootprint:
		content = artifacts.Footprint.Content
	}
	if len(content) == 0 {
		return fmt.Errorf("%w: no %s content", domain.ErrRenderFailed, kind)
	}
	return nil
}
