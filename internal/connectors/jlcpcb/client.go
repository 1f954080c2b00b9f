package jlcpcb

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/custodia-labs/kicad-lcsc/internal/connectors/remote"
	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

const (
	// DefaultSearchURL is the SMT component list endpoint.
	DefaultSearchURL = "https://jlcpcb.com/api/overseas-pcb-order/v1/shoppingCart/smtGood/selectSmtComponentList"

	// DefaultImageURL is the image attachment endpoint; %s is the access id.
	DefaultImageURL = "https://assets.jlcpcb.com/attachments/%s"

	// productURLFormat is used when a candidate carries no product link.
	productURLFormat = "https://www.lcsc.com/product-detail/%s.html"

	// successCode is the application code of a successful response.
	successCode = 200
)

// Ensure Client implements the interface.
var _ driven.PricingSource = (*Client)(nil)

// Config configures the JLCPCB client.
type Config struct {
	SearchURL string
	ImageURL  string

	Limiter *remote.Limiter
	Policy  remote.RetryPolicy
	Session *remote.Session
}

// DefaultHeaders are the headers the endpoint expects from its own web shop.
func DefaultHeaders() http.Header {
	return http.Header{
		"Accept-Language": []string{"en-US,en;q=0.9"},
		"Referer":         []string{"https://jlcpcb.com/"},
		"Origin":          []string{"https://jlcpcb.com"},
	}
}

// Client fetches stock and pricing from JLCPCB.
type Client struct {
	cfg Config
}

// NewClient creates a new JLCPCB client.
func NewClient(cfg Config) *Client {
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.ImageURL == "" {
		cfg.ImageURL = DefaultImageURL
	}
	if cfg.Session == nil {
		cfg.Session = remote.NewSession(nil, DefaultHeaders())
	}
	if cfg.Limiter == nil {
		cfg.Limiter = remote.NewLimiter(string(domain.SourceJLCPCB), remote.DefaultRequestsPerMinute, remote.DefaultMinSpacing, cfg.Policy.Clock)
	}
	return &Client{cfg: cfg}
}

// Source returns the source tag.
func (c *Client) Source() domain.SourceTag {
	return domain.SourceJLCPCB
}

// Fetch searches by keyword and keeps the candidate whose code matches id
// exactly. A response without an exact match is unavailable, not missing:
// the keyword search is fuzzy and says nothing definitive about the part.
func (c *Client) Fetch(ctx context.Context, id string) domain.SourceResult {
	id = domain.NormalizeIdentifier(id)

	var resp searchResponse
	err := c.cfg.Policy.Do(ctx, c.cfg.Limiter, c.cfg.Session, func(ctx context.Context) error {
		resp = searchResponse{}
		return c.cfg.Session.PostJSON(ctx, c.cfg.SearchURL, searchRequest{Keyword: id}, &resp)
	})
	if err != nil {
		if remote.IsNotFound(err) {
			return domain.Missing(domain.SourceJLCPCB)
		}
		return domain.Unavailable(domain.SourceJLCPCB, fmt.Errorf("jlcpcb fetch %s: %w", id, err))
	}

	if resp.Code != successCode {
		logger.Debug("jlcpcb: api returned code %d for %s", resp.Code, id)
		return domain.Unavailable(domain.SourceJLCPCB, &APIError{Code: resp.Code, Message: resp.Message})
	}

	match, ok := exactMatch(resp.Data.ComponentPageInfo.List, id)
	if !ok {
		logger.Debug("jlcpcb: no exact match for %s among %d candidates", id, len(resp.Data.ComponentPageInfo.List))
		return domain.Unavailable(domain.SourceJLCPCB, fmt.Errorf("jlcpcb %s: %w", id, ErrNoExactMatch))
	}

	return domain.Found(domain.SourceJLCPCB, c.recordFromComponent(id, match))
}

func exactMatch(list []component, id string) (component, bool) {
	for _, cand := range list {
		if domain.NormalizeIdentifier(cand.ComponentCode) == id {
			return cand, true
		}
	}
	return component{}, false
}

// recordFromComponent extracts the pricing half of a record.
func (c *Client) recordFromComponent(id string, comp component) *domain.ComponentRecord {
	rec := &domain.ComponentRecord{
		SourceID:         id,
		Name:             strings.TrimSpace(comp.ComponentModelEn),
		Description:      strings.TrimSpace(comp.Describe),
		Manufacturer:     strings.TrimSpace(comp.ComponentBrandEn),
		ManufacturerPart: strings.TrimSpace(comp.ComponentModelEn),
		Package:          strings.TrimSpace(comp.ComponentSpecification),
		Classification:   domain.ParseClassification(comp.ComponentLibraryType),
		Stock:            max(comp.StockCount, 0),
		PriceTiers:       priceTiers(comp.ComponentPrices),
		DatasheetURL:     strings.TrimSpace(comp.DataManualURL),
		ProductURL:       strings.TrimSpace(comp.LCSCGoodsURL),
		Sources:          []domain.SourceTag{domain.SourceJLCPCB},
	}
	if rec.ProductURL == "" {
		rec.ProductURL = fmt.Sprintf(productURLFormat, id)
	}
	if comp.MinImageAccessID != "" {
		rec.ImageURL = fmt.Sprintf(c.cfg.ImageURL, comp.MinImageAccessID)
	}
	return rec
}

// priceTiers sorts the quantity breaks ascending and drops malformed ones.
func priceTiers(entries []priceEntry) []domain.PriceTier {
	sorted := append([]priceEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartNumber < sorted[j].StartNumber
	})

	tiers := make([]domain.PriceTier, 0, len(sorted))
	for _, e := range sorted {
		if e.StartNumber <= 0 {
			continue
		}
		tier := domain.PriceTier{MinQty: e.StartNumber, UnitPrice: e.ProductPrice}
		if e.EndNumber > 0 {
			tier.MaxQty = e.EndNumber
		}
		tiers = append(tiers, tier)
	}
	return tiers
}
