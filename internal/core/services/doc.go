// Package services implements the driving ports on top of the driven
// ones.
//
// SearchService merges both catalogs, optionally through the source
// cache. ComponentService chains search, conversion, model resolution
// and the library import. LibraryService owns conflict detection and the
// two-table index commit. PreviewService is the generation-tagged render
// cache. Scheduler purges expired cache rows while the MCP server runs.
package services
