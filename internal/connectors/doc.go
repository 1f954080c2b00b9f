// Package connectors provides the clients of the remote component catalogs.
// Each connector knows how to fetch one half of a component record from a
// specific source (EasyEDA for geometry, JLCPCB for pricing).
//
// Connectors share the rate limiting, retry and session machinery in the
// remote package and are wired together at startup in cmd/kicad-lcsc.
package connectors
