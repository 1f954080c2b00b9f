package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for kicad-lcsc resources.
	uriScheme = "lcsc://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "components/{id}",
		Name:        "component",
		Description: "Merged catalog record of an LCSC part",
		MIMEType:    "application/json",
	}, s.handleComponentResource)
}

// handleComponentResource returns the merged record for a part.
func (s *Server) handleComponentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractComponentID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Search.Search(ctx, id, domain.SearchOptions{})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("searching component: %w", err)
	}

	data, err := json.MarshalIndent(componentOutput(rec), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling component: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractComponentID extracts the id from a URI like lcsc://components/{id}.
func extractComponentID(uri string) string {
	const prefix = uriScheme + "components/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
