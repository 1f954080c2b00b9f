package remote

import (
	"context"
	"fmt"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
)

// DownloadSource is the limiter key shared by all model downloads.
const DownloadSource = "download"

// Ensure Downloader implements the interface.
var _ driven.AssetFetcher = (*Downloader)(nil)

// Downloader fetches binary assets through its own limiter, with the
// download timeout applied per attempt.
type Downloader struct {
	limiter *Limiter
	policy  RetryPolicy
	session *Session
}

// NewDownloader creates a downloader. A nil session gets a fresh one.
func NewDownloader(limiter *Limiter, policy RetryPolicy, session *Session) *Downloader {
	if session == nil {
		session = NewSession(nil, nil)
	}
	if limiter == nil {
		limiter = NewLimiter(DownloadSource, DefaultRequestsPerMinute, DefaultMinSpacing, policy.Clock)
	}
	return &Downloader{limiter: limiter, policy: policy, session: session}
}

// Download returns the body at url. A 404 wraps domain.ErrNotFound.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := d.policy.Do(ctx, d.limiter, d.session, func(ctx context.Context) error {
		var err error
		body, err = d.session.GetBytes(ctx, url)
		return err
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("download %s: %w", url, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	return body, nil
}
