// Package domain defines the core business entities for kicad-lcsc.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - ComponentRecord: The merged catalog description of one part
//   - Geometry: Raw source-space symbol and footprint primitives
//   - ConvertedArtifacts: KiCad symbol and footprint files
//   - LibraryIndex: The sym-lib-table and fp-lib-table of a project
//   - CacheEntry: One slot of the preview cache
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, shopspring/decimal for money
//   - Cannot Import: Any internal/ package, any other external dependency
package domain
