package easyeda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/kicad-lcsc/internal/connectors/remote"
	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

// searchPath is the free-text component search endpoint.
const searchPath = "/api/components/search"

// Ensure Client implements the interface.
var _ driven.KeywordSource = (*Client)(nil)

// searchItem is one entry of a search "result".
type searchItem struct {
	UUID        string   `json:"uuid"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Package     string   `json:"package"`
	LCSC        lcscInfo `json:"lcsc"`
}

// Search returns one page of components matching keyword. It shares the
// limiter and retry policy of Fetch. A success=false reply means no hits.
func (c *Client) Search(ctx context.Context, keyword string, page int) ([]domain.SearchHit, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: empty search keyword", domain.ErrInvalidInput)
	}
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("page", strconv.Itoa(page))
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + searchPath + "?" + q.Encode()

	var resp componentResponse
	err := c.cfg.Policy.Do(ctx, c.cfg.Limiter, c.cfg.Session, func(ctx context.Context) error {
		resp = componentResponse{}
		return c.cfg.Session.GetJSON(ctx, endpoint, &resp)
	})
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("easyeda search %q: %w", keyword, err)
	}
	if !resp.Success || isEmptyResult(resp.Result) {
		logger.Debug("easyeda: no search hits for %q page %d", keyword, page)
		return nil, nil
	}

	items, err := decodeSearchItems(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("easyeda search %q: %w: %v", keyword, remote.ErrDecode, err)
	}
	hits := make([]domain.SearchHit, 0, len(items))
	for _, it := range items {
		hits = append(hits, hitFromItem(it))
	}
	logger.Debug("easyeda: %d search hits for %q page %d", len(hits), keyword, page)
	return hits, nil
}

// decodeSearchItems accepts a bare list or an object wrapping it in
// "lists".
func decodeSearchItems(raw json.RawMessage) ([]searchItem, error) {
	var items []searchItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		Lists []searchItem `json:"lists"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Lists, nil
}

func hitFromItem(it searchItem) domain.SearchHit {
	hit := domain.SearchHit{
		SourceID:    domain.NormalizeIdentifier(it.LCSC.Number),
		Title:       firstNonEmpty(it.Title, "Unknown"),
		Package:     strings.TrimSpace(it.Package),
		Description: strings.TrimSpace(it.Description),
		UUID:        it.UUID,
	}
	// Results without a package field usually end the description with it.
	if hit.Package == "" {
		if fields := strings.Fields(hit.Description); len(fields) > 0 {
			hit.Package = fields[len(fields)-1]
		}
	}
	return hit
}
