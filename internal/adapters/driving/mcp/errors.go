// Package mcp serves the component pipeline over the Model Context
// Protocol so an assistant can look up parts and import them into a
// KiCad project.
package mcp

import "errors"

var (
	// ErrMissingSearchService means NewServer was given no search port.
	ErrMissingSearchService = errors.New("mcp: search service is required")

	// ErrMissingProject means a project-scoped tool got no project path.
	ErrMissingProject = errors.New("mcp: project directory is required")
)
