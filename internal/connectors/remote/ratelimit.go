package remote

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/kicad-lcsc/internal/metrics"
)

const (
	// DefaultRequestsPerMinute is the per-source request ceiling.
	DefaultRequestsPerMinute = 30

	// DefaultMinSpacing is the minimum gap between two requests to one source.
	DefaultMinSpacing = 2 * time.Second
)

// Limiter throttles requests to a single remote source. It combines a
// token bucket (requests per minute) with a minimum spacing and allows
// at most one request in flight.
type Limiter struct {
	source     string
	clock      Clock
	bucket     *rate.Limiter
	minSpacing time.Duration
	slot       chan struct{}

	mu   sync.Mutex
	last time.Time
}

// NewLimiter creates a limiter for source.
func NewLimiter(source string, perMinute int, minSpacing time.Duration, clock Clock) *Limiter {
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Limiter{
		source:     source,
		clock:      clock,
		bucket:     rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		minSpacing: minSpacing,
		slot:       make(chan struct{}, 1),
	}
}

// Source returns the source tag the limiter throttles.
func (l *Limiter) Source() string {
	return l.source
}

// Permit is the right to issue one request. It must be released when
// the request completes.
type Permit struct {
	once    sync.Once
	limiter *Limiter
}

// Release frees the in-flight slot.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() { <-p.limiter.slot })
}

// Schedule blocks until issuing one more request would neither exceed
// the ceiling nor violate the minimum spacing, then returns a permit.
func (l *Limiter) Schedule(ctx context.Context) (*Permit, error) {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	now := l.clock.Now()
	reservation := l.bucket.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)

	l.mu.Lock()
	if !l.last.IsZero() {
		if gap := l.last.Add(l.minSpacing).Sub(now); gap > delay {
			delay = gap
		}
	}
	l.mu.Unlock()

	metrics.RateLimitDelay.WithLabelValues(l.source).Observe(delay.Seconds())
	if delay > 0 {
		if err := l.clock.Sleep(ctx, delay); err != nil {
			reservation.CancelAt(now)
			<-l.slot
			return nil, err
		}
	}

	l.mu.Lock()
	l.last = l.clock.Now()
	l.mu.Unlock()

	return &Permit{limiter: l}, nil
}

// Registry hands out one limiter per source tag.
type Registry struct {
	mu         sync.Mutex
	perMinute  int
	minSpacing time.Duration
	clock      Clock
	limiters   map[string]*Limiter
}

// NewRegistry creates a registry whose limiters share the given settings.
func NewRegistry(perMinute int, minSpacing time.Duration, clock Clock) *Registry {
	return &Registry{
		perMinute:  perMinute,
		minSpacing: minSpacing,
		clock:      clock,
		limiters:   make(map[string]*Limiter),
	}
}

// For returns the limiter for source, creating it on first use.
func (r *Registry) For(source string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.limiters[source]; ok {
		return l
	}
	l := NewLimiter(source, r.perMinute, r.minSpacing, r.clock)
	r.limiters[source] = l
	return l
}
