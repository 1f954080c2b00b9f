package easyeda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/kicad-lcsc/internal/connectors/remote"
	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

const (
	// DefaultBaseURL is the EasyEDA API host.
	DefaultBaseURL = "https://easyeda.com"

	// APIVersion is the editor version the component endpoint expects.
	APIVersion = "6.4.19.5"

	// DefaultStepURL is the STEP model endpoint; %s is the model uuid.
	DefaultStepURL = "https://modules.easyeda.com/qAxj6KHrDKw4blvCG8QJPs7Y/%s"

	// DefaultObjURL is the OBJ model endpoint; %s is the model uuid.
	DefaultObjURL = "https://modules.easyeda.com/3dmodel/%s"

	// documentCacheSize bounds the memoized documents shared by
	// Fetch and FetchGeometry.
	documentCacheSize = 16
)

// Ensure Client implements the interface.
var _ driven.GeometrySource = (*Client)(nil)

// Config configures the EasyEDA client.
type Config struct {
	BaseURL string
	StepURL string
	ObjURL  string

	Limiter *remote.Limiter
	Policy  remote.RetryPolicy
	Session *remote.Session
}

// DefaultHeaders are the browser-like headers sent with every request.
func DefaultHeaders() http.Header {
	return http.Header{
		"Accept-Language": []string{"en-US,en;q=0.9"},
		"Referer":         []string{"https://easyeda.com/"},
	}
}

// Client fetches component documents from EasyEDA.
type Client struct {
	cfg  Config
	docs *lru.Cache[string, *document]
}

// NewClient creates a new EasyEDA client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.StepURL == "" {
		cfg.StepURL = DefaultStepURL
	}
	if cfg.ObjURL == "" {
		cfg.ObjURL = DefaultObjURL
	}
	if cfg.Session == nil {
		cfg.Session = remote.NewSession(nil, DefaultHeaders())
	}
	if cfg.Limiter == nil {
		cfg.Limiter = remote.NewLimiter(string(domain.SourceEasyEDA), remote.DefaultRequestsPerMinute, remote.DefaultMinSpacing, cfg.Policy.Clock)
	}
	docs, _ := lru.New[string, *document](documentCacheSize)
	return &Client{cfg: cfg, docs: docs}
}

// Source returns the source tag.
func (c *Client) Source() domain.SourceTag {
	return domain.SourceEasyEDA
}

// Fetch retrieves identity metadata for id.
func (c *Client) Fetch(ctx context.Context, id string) domain.SourceResult {
	id = domain.NormalizeIdentifier(id)
	doc, err := c.document(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Missing(domain.SourceEasyEDA)
		}
		return domain.Unavailable(domain.SourceEasyEDA, err)
	}
	return domain.Found(domain.SourceEasyEDA, recordFromDocument(id, doc))
}

// FetchGeometry retrieves the raw geometry for id. A part without CAD
// data yields a found result with nil geometry.
func (c *Client) FetchGeometry(ctx context.Context, id string) domain.GeometryResult {
	id = domain.NormalizeIdentifier(id)
	doc, err := c.document(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.GeometryResult{Outcome: domain.OutcomeNotFound}
		}
		return domain.GeometryResult{Outcome: domain.OutcomeUnavailable, Err: err}
	}
	geo, models := decodeGeometry(doc, c.cfg.StepURL, c.cfg.ObjURL)
	return domain.GeometryResult{Outcome: domain.OutcomeFound, Geometry: geo, Models: models}
}

// document returns the memoized document for id, fetching it once.
func (c *Client) document(ctx context.Context, id string) (*document, error) {
	if doc, ok := c.docs.Get(id); ok {
		return doc, nil
	}

	endpoint := fmt.Sprintf("%s/api/products/%s/components?version=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(id), APIVersion)

	var resp componentResponse
	err := c.cfg.Policy.Do(ctx, c.cfg.Limiter, c.cfg.Session, func(ctx context.Context) error {
		resp = componentResponse{}
		return c.cfg.Session.GetJSON(ctx, endpoint, &resp)
	})
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("easyeda fetch %s: %w", id, err)
	}

	if !resp.Success || isEmptyResult(resp.Result) {
		logger.Debug("easyeda: component not found: %s", id)
		return nil, domain.ErrNotFound
	}

	var doc document
	if err := json.Unmarshal(resp.Result, &doc); err != nil {
		return nil, fmt.Errorf("easyeda decode %s: %w: %v", id, remote.ErrDecode, err)
	}
	c.docs.Add(id, &doc)
	return &doc, nil
}

// recordFromDocument extracts the metadata half of a record.
func recordFromDocument(id string, doc *document) *domain.ComponentRecord {
	p := doc.DataStr.Head.CPara

	rec := &domain.ComponentRecord{
		SourceID:         id,
		Name:             firstNonEmpty(p["name"], doc.Title, id),
		Description:      firstNonEmpty(doc.Description, p["name"]),
		Manufacturer:     p["Manufacturer"],
		ManufacturerPart: p["Manufacturer Part"],
		Package:          p["package"],
		Prefix:           strings.TrimSuffix(firstNonEmpty(p["pre"], "U"), "?"),
		Classification:   domain.ParseClassification(p["JLCPCB Part Class"]),
		DatasheetURL:     p["link"],
		ImageURL:         doc.Thumb,
		PriceTiers:       []domain.PriceTier{},
		Sources:          []domain.SourceTag{domain.SourceEasyEDA},
	}
	if rec.Package == "" && doc.PackageDetail != nil {
		rec.Package = firstNonEmpty(doc.PackageDetail.DataStr.Head.CPara["package"], doc.PackageDetail.Title)
	}
	if n := domain.NormalizeIdentifier(doc.LCSC.Number); n != "" && n != id {
		rec.Notes = append(rec.Notes, fmt.Sprintf("easyeda reports catalog number %s for %s", n, id))
	}
	return rec
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
