package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

func newTestPolicy(clock Clock) RetryPolicy {
	return NewRetryPolicy(time.Second, clock)
}

func TestRetryPolicy_SucceedsFirstTry(t *testing.T) {
	clock := NewManualClock(epoch)
	l := NewLimiter("easyeda", 6000, 0, clock)

	calls := 0
	err := newTestPolicy(clock).Do(context.Background(), l, nil, func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.Sleeps())
}

func TestRetryPolicy_ExhaustsDelays(t *testing.T) {
	clock := NewManualClock(epoch)
	l := NewLimiter("jlcpcb", 6000, 0, clock)

	calls := 0
	err := newTestPolicy(clock).Do(context.Background(), l, nil, func(context.Context) error {
		calls++
		return &StatusError{StatusCode: http.StatusTooManyRequests}
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	var ue *domain.UnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, domain.SourceJLCPCB, ue.Source)
	assert.Equal(t, 4, ue.Attempts)
	assert.True(t, IsRateLimited(err))

	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second}, clock.Sleeps())
}

func TestRetryPolicy_RecoversAfterRetry(t *testing.T) {
	clock := NewManualClock(epoch)
	l := NewLimiter("easyeda", 6000, 0, clock)

	calls := 0
	err := newTestPolicy(clock).Do(context.Background(), l, nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{StatusCode: http.StatusBadGateway}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, clock.Sleeps())
}

func TestRetryPolicy_NonRetryableReturnsImmediately(t *testing.T) {
	clock := NewManualClock(epoch)
	l := NewLimiter("easyeda", 6000, 0, clock)

	calls := 0
	err := newTestPolicy(clock).Do(context.Background(), l, nil, func(context.Context) error {
		calls++
		return &StatusError{StatusCode: http.StatusNotFound}
	})

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, errors.Is(err, domain.ErrRemoteUnavailable))
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_TimeoutIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	clock := NewManualClock(epoch)
	l := NewLimiter("easyeda", 6000, 0, clock)
	policy := RetryPolicy{Delays: []time.Duration{time.Second}, Timeout: 20 * time.Millisecond, Clock: clock}
	session := NewSession(nil, nil)

	var calls atomic.Int32
	err := policy.Do(context.Background(), l, session, func(ctx context.Context) error {
		calls.Add(1)
		_, err := session.GetBytes(ctx, srv.URL)
		return err
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryPolicy_RotatesSessionBeforeRetry(t *testing.T) {
	var mu sync.Mutex
	var agents []string
	var cookies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.UserAgent())
		c, _ := r.Cookie("sid")
		if c != nil {
			cookies = append(cookies, c.Value)
		} else {
			cookies = append(cookies, "")
		}
		n := len(agents)
		mu.Unlock()

		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "blocked", Path: "/"})
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	clock := NewManualClock(epoch)
	l := NewLimiter("jlcpcb", 6000, 0, clock)
	session := NewSession(nil, http.Header{"Referer": []string{"https://jlcpcb.com/"}})

	err := newTestPolicy(clock).Do(context.Background(), l, session, func(ctx context.Context) error {
		var v map[string]any
		return session.GetJSON(ctx, srv.URL, &v)
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, agents, 2)
	assert.NotEqual(t, agents[0], agents[1])
	assert.Equal(t, "", cookies[1], "cookie jar should be discarded on rotation")
}

func TestRetryPolicy_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := NewManualClock(epoch)
	l := NewLimiter("easyeda", 6000, 0, clock)

	err := newTestPolicy(clock).Do(ctx, l, nil, func(context.Context) error {
		cancel()
		return &StatusError{StatusCode: http.StatusServiceUnavailable}
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &StatusError{StatusCode: 429}, true},
		{"403", &StatusError{StatusCode: 403}, true},
		{"500", &StatusError{StatusCode: 500}, true},
		{"404", &StatusError{StatusCode: 404}, false},
		{"400", &StatusError{StatusCode: 400}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"decode", ErrDecode, false},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
