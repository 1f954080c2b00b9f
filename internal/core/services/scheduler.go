package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driving"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
	"github.com/custodia-labs/kicad-lcsc/internal/metrics"
)

// DefaultPurgeInterval is how often a running scheduler purges the cache.
const DefaultPurgeInterval = time.Hour

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler purges expired source cache entries in the background.
// It is a pure core service with no external control API.
type Scheduler struct {
	cache    driven.SourceCache
	expiry   time.Duration
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler for cache. Entries older than expiry
// are removed every interval. A non-positive interval uses
// DefaultPurgeInterval.
func NewScheduler(cache driven.SourceCache, expiry, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	return &Scheduler{
		cache:    cache,
		expiry:   expiry,
		interval: interval,
		now:      time.Now,
	}
}

// Start purges once, then on every interval. It blocks until Stop is
// called or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.runPurge(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runPurge(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Purge removes entries older than the expiry window and returns how
// many were removed. Without a cache or expiry it does nothing.
func (s *Scheduler) Purge(ctx context.Context) (int, error) {
	if s.cache == nil || s.expiry <= 0 {
		return 0, nil
	}
	n, err := s.cache.Purge(ctx, s.now().Add(-s.expiry))
	if err != nil {
		return 0, err
	}
	metrics.SourceCachePurgedTotal.Add(float64(n))
	return n, nil
}

func (s *Scheduler) runPurge(ctx context.Context) {
	n, err := s.Purge(ctx)
	if err != nil {
		logger.Warn("scheduler: purging source cache: %v", err)
		return
	}
	if n > 0 {
		logger.Debug("scheduler: purged %d expired cache entries", n)
	}
}
