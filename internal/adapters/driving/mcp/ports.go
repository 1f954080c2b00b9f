package mcp

import (
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driving"
)

// Ports are the services the server calls. Only Search is required.
type Ports struct {
	Search driving.SearchService

	// Component backs import_component.
	Component driving.ComponentService

	// Library backs library_info.
	Library driving.LibraryService
}

// Validate reports a missing required service.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}

// tools names the tools these ports enable, in registration order.
func (p *Ports) tools() []string {
	names := []string{toolSearch, toolFind}
	if p.Component != nil {
		names = append(names, toolImport)
	}
	if p.Library != nil {
		names = append(names, toolLibraryInfo)
	}
	return names
}
