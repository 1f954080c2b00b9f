package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

func newTestDownloader(clock Clock) *Downloader {
	return NewDownloader(
		NewLimiter(DownloadSource, 6000, 0, clock),
		NewRetryPolicy(time.Second, clock),
		NewSession(nil, nil),
	)
}

func TestDownloader_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ISO-10303-21;"))
	}))
	defer srv.Close()

	body, err := newTestDownloader(NewManualClock(epoch)).Download(context.Background(), srv.URL+"/model")
	require.NoError(t, err)
	assert.Equal(t, "ISO-10303-21;", string(body))
}

func TestDownloader_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestDownloader(NewManualClock(epoch)).Download(context.Background(), srv.URL)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownloader_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	clock := NewManualClock(epoch)
	body, err := newTestDownloader(clock).Download(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{10 * time.Second}, clock.Sleeps())
}
