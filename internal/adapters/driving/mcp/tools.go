package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

const (
	toolSearch      = "search_component"
	toolFind        = "find_components"
	toolImport      = "import_component"
	toolLibraryInfo = "library_info"
)

// SearchInput is the input schema for the search_component tool.
type SearchInput struct {
	ID      string `json:"id" jsonschema:"the LCSC catalog code, e.g. C2040"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"bypass the local source cache"`
}

// FindInput is the input schema for the find_components tool.
type FindInput struct {
	Keyword      string `json:"keyword,omitempty" jsonschema:"name or description words, e.g. capacitor"`
	Value        string `json:"value,omitempty" jsonschema:"component value, e.g. 10uF or 10k"`
	Package      string `json:"package,omitempty" jsonschema:"package, e.g. 0603 or SOT-23"`
	Manufacturer string `json:"manufacturer,omitempty" jsonschema:"manufacturer name"`
	Page         int    `json:"page,omitempty" jsonschema:"1-based result page"`
}

// FindOutput lists one page of keyword search hits.
type FindOutput struct {
	Keyword string             `json:"keyword"`
	Page    int                `json:"page"`
	Hits    []domain.SearchHit `json:"hits"`
}

// ComponentOutput is the merged record of one part.
type ComponentOutput struct {
	SourceID         string            `json:"source_id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Manufacturer     string            `json:"manufacturer,omitempty"`
	ManufacturerPart string            `json:"manufacturer_part,omitempty"`
	Package          string            `json:"package,omitempty"`
	Classification   string            `json:"classification"`
	Stock            int               `json:"stock"`
	PriceTiers       []PriceTierOutput `json:"price_tiers,omitempty"`
	DatasheetURL     string            `json:"datasheet_url,omitempty"`
	ProductURL       string            `json:"product_url,omitempty"`
	HasGeometry      bool              `json:"has_geometry"`
	Models           []string          `json:"models,omitempty"`
	Sources          []string          `json:"sources,omitempty"`
	Notes            []string          `json:"notes,omitempty"`
}

// PriceTierOutput is one quantity break. UnitPrice is a decimal string.
type PriceTierOutput struct {
	MinQty    int    `json:"min_qty"`
	MaxQty    int    `json:"max_qty,omitempty"`
	UnitPrice string `json:"unit_price"`
}

// ImportInput is the input schema for the import_component tool.
type ImportInput struct {
	ID           string   `json:"id" jsonschema:"the LCSC catalog code, e.g. C2040"`
	Project      string   `json:"project" jsonschema:"absolute path of the KiCad project directory"`
	Overwrite    []string `json:"overwrite,omitempty" jsonschema:"artifact kinds that may be replaced: symbol, footprint, model"`
	OverwriteAll bool     `json:"overwrite_all,omitempty" jsonschema:"replace every existing artifact of the part"`
	Keep         []string `json:"keep,omitempty" jsonschema:"artifact kinds to leave in place when they already exist; the other kinds are still imported"`
	SkipModels   bool     `json:"skip_models,omitempty" jsonschema:"do not download 3-D models"`
}

// ImportOutput reports what an import did.
type ImportOutput struct {
	SourceID     string            `json:"source_id"`
	Status       string            `json:"status"`
	Library      string            `json:"library"`
	Conflicts    []string          `json:"conflicts,omitempty"`
	Kept         []string          `json:"kept,omitempty"`
	Written      map[string]string `json:"written,omitempty"`
	Failed       map[string]string `json:"failed,omitempty"`
	IndexUpdated bool              `json:"index_updated"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// LibraryInput is the input schema for the library_info tool.
type LibraryInput struct {
	Project string `json:"project" jsonschema:"absolute path of the KiCad project directory"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolSearch,
		Description: "Look up an LCSC part: identity, stock, price breaks and CAD availability",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        toolFind,
		Description: "Free-text EasyEDA search by name, value, package and manufacturer; returns LCSC codes to pass to search_component",
	}, s.handleFind)

	if s.ports.Component != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        toolImport,
			Description: "Convert an LCSC part to KiCad and add it to a project library",
		}, s.handleImport)
	}

	if s.ports.Library != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        toolLibraryInfo,
			Description: "List the parts already imported into a project and whether its library tables are registered",
		}, s.handleLibraryInfo)
	}
}

// handleSearch handles the search_component tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, ComponentOutput, error) {
	rec, err := s.ports.Search.Search(ctx, input.ID, domain.SearchOptions{Refresh: input.Refresh})
	if err != nil {
		return nil, ComponentOutput{}, err
	}
	return nil, componentOutput(rec), nil
}

// handleFind handles the find_components tool invocation.
func (s *Server) handleFind(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindInput,
) (*mcp.CallToolResult, FindOutput, error) {
	query := domain.KeywordQuery{
		Name:         input.Keyword,
		Value:        input.Value,
		Package:      input.Package,
		Manufacturer: input.Manufacturer,
		Page:         input.Page,
	}
	hits, err := s.ports.Search.Find(ctx, query)
	if err != nil {
		return nil, FindOutput{}, err
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}
	return nil, FindOutput{Keyword: query.Keyword(), Page: query.PageOrFirst(), Hits: hits}, nil
}

// handleImport handles the import_component tool invocation.
func (s *Server) handleImport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ImportInput,
) (*mcp.CallToolResult, ImportOutput, error) {
	if strings.TrimSpace(input.Project) == "" {
		return nil, ImportOutput{}, ErrMissingProject
	}

	opts, err := importOptions(input)
	if err != nil {
		return nil, ImportOutput{}, err
	}

	res, err := s.ports.Component.Import(ctx, input.Project, input.ID, opts)
	if err != nil {
		return nil, ImportOutput{}, err
	}
	return nil, importOutput(res), nil
}

func (s *Server) handleLibraryInfo(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input LibraryInput,
) (*mcp.CallToolResult, domain.LibraryInfo, error) {
	if strings.TrimSpace(input.Project) == "" {
		return nil, domain.LibraryInfo{}, ErrMissingProject
	}
	info, err := s.ports.Library.Info(input.Project)
	if err != nil {
		return nil, domain.LibraryInfo{}, err
	}
	return nil, *info, nil
}

func importOptions(input ImportInput) (domain.ImportOptions, error) {
	opts := domain.ImportOptions{SkipModels: input.SkipModels}
	keep, err := kindSet(input.Keep)
	if err != nil {
		return opts, err
	}
	opts.Keep = keep
	if input.OverwriteAll {
		opts.Overwrite = domain.OverwriteAll()
		return opts, nil
	}
	opts.Overwrite, err = kindSet(input.Overwrite)
	return opts, err
}

func kindSet(raw []string) (map[domain.ArtifactKind]bool, error) {
	var set map[domain.ArtifactKind]bool
	for _, k := range raw {
		kind := domain.ArtifactKind(strings.ToLower(strings.TrimSpace(k)))
		if !kind.IsValid() {
			return nil, fmt.Errorf("unknown artifact kind %q: %w", k, domain.ErrInvalidInput)
		}
		if set == nil {
			set = make(map[domain.ArtifactKind]bool)
		}
		set[kind] = true
	}
	return set, nil
}

func componentOutput(rec *domain.ComponentRecord) ComponentOutput {
	out := ComponentOutput{
		SourceID:         rec.SourceID,
		Name:             rec.Name,
		Description:      rec.Description,
		Manufacturer:     rec.Manufacturer,
		ManufacturerPart: rec.ManufacturerPart,
		Package:          rec.Package,
		Classification:   rec.Classification.String(),
		Stock:            rec.Stock,
		DatasheetURL:     rec.DatasheetURL,
		ProductURL:       rec.ProductURL,
		HasGeometry:      rec.HasGeometry(),
		Notes:            rec.Notes,
	}
	for _, t := range rec.PriceTiers {
		out.PriceTiers = append(out.PriceTiers, PriceTierOutput{
			MinQty:    t.MinQty,
			MaxQty:    t.MaxQty,
			UnitPrice: t.UnitPrice.String(),
		})
	}
	for _, m := range rec.Model3DRefs {
		out.Models = append(out.Models, string(m.Format))
	}
	for _, src := range rec.Sources {
		out.Sources = append(out.Sources, src.String())
	}
	return out
}

func importOutput(res *domain.ImportResult) ImportOutput {
	out := ImportOutput{
		SourceID:     res.SourceID,
		Status:       string(res.Status),
		Library:      res.LibraryName,
		Written:      kindMap(res.Written),
		Failed:       kindMap(res.Failed),
		IndexUpdated: res.IndexUpdated,
		Warnings:     res.Warnings,
	}
	for _, k := range res.Conflicts {
		out.Conflicts = append(out.Conflicts, k.String())
	}
	sort.Strings(out.Conflicts)
	for _, k := range res.Kept {
		out.Kept = append(out.Kept, k.String())
	}
	sort.Strings(out.Kept)
	return out
}

func kindMap(m map[domain.ArtifactKind]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k.String()] = v
	}
	return out
}
