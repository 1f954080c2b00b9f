// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// and connectors implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - GeometrySource: Identity metadata and raw CAD geometry (EasyEDA)
//   - PricingSource: Stock, pricing and classification (JLCPCB)
//   - ArtifactConverter: Geometry to KiCad symbol and footprint files
//   - LibraryStore: Project library files and lib-tables
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - AssetFetcher: 3-D model downloads. Without it, imports carry no models.
//   - ModelTranscoder: OBJ to VRML conversion. Without it, OBJ refs are skipped.
//   - Renderer: Preview images (kicad-cli). Without it, previews fail.
//   - SourceCache: Cached geometry responses. Without it, every search is remote.
//   - LibraryWatcher: External change notifications.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
