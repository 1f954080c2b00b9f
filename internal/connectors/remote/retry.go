package remote

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
	"github.com/custodia-labs/kicad-lcsc/internal/metrics"
)

const (
	// DefaultAPITimeout bounds one metadata request.
	DefaultAPITimeout = 30 * time.Second

	// DefaultDownloadTimeout bounds one file download.
	DefaultDownloadTimeout = 60 * time.Second
)

// DefaultDelays are the waits before the first, second and third retry.
var DefaultDelays = []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second}

// RetryPolicy runs an operation with per-attempt timeouts, retrying
// transient failures with increasing delays and a fresh session
// identity before each retry.
type RetryPolicy struct {
	Delays  []time.Duration
	Timeout time.Duration
	Clock   Clock
}

// NewRetryPolicy creates a policy with the default delays.
func NewRetryPolicy(timeout time.Duration, clock Clock) RetryPolicy {
	if clock == nil {
		clock = SystemClock{}
	}
	return RetryPolicy{Delays: DefaultDelays, Timeout: timeout, Clock: clock}
}

// Do runs op through limiter and session. Once the delay sequence is
// exhausted the last failure is returned as *domain.UnavailableError.
// Non-retryable failures are returned unchanged.
func (p RetryPolicy) Do(ctx context.Context, limiter *Limiter, session *Session, op func(ctx context.Context) error) error {
	source := limiter.Source()
	clock := p.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	for attempt := 0; ; attempt++ {
		permit, err := limiter.Schedule(ctx)
		if err != nil {
			return err
		}

		err = p.attempt(ctx, source, op)
		permit.Release()

		if err == nil {
			metrics.RemoteRequestsTotal.WithLabelValues(source, "ok").Inc()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !Retryable(err) {
			metrics.RemoteRequestsTotal.WithLabelValues(source, "error").Inc()
			return err
		}
		if attempt >= len(p.Delays) {
			metrics.RemoteRequestsTotal.WithLabelValues(source, "unavailable").Inc()
			return &domain.UnavailableError{
				Source:   domain.SourceTag(source),
				Attempts: attempt + 1,
				Err:      err,
			}
		}

		metrics.RemoteRetriesTotal.WithLabelValues(source).Inc()
		logger.Debugw("retrying remote request",
			"source", source, "attempt", attempt+1, "delay", p.Delays[attempt], "error", err.Error())

		if err := clock.Sleep(ctx, p.Delays[attempt]); err != nil {
			return err
		}
		if session != nil {
			session.Rotate()
		}
	}
}

func (p RetryPolicy) attempt(ctx context.Context, source string, op func(ctx context.Context) error) error {
	actx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := op(actx)
	metrics.RemoteRequestDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil && actx.Err() != nil && ctx.Err() == nil && !errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(err, context.DeadlineExceeded)
	}
	return err
}
