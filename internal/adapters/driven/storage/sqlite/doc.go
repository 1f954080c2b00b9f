// Package sqlite persists raw EasyEDA and JLCPCB responses so repeated
// lookups of a part skip the network until the entry expires.
//
// The driver is modernc.org/sqlite, so the binary builds without cgo.
// The database lives at ~/.kicad-lcsc/cache/sources.db unless another
// directory is given, and is opened in WAL mode with a busy timeout so
// an MCP server and a CLI invocation can share it. Schema changes ship
// as numbered files in the migrations package and are applied on open.
package sqlite
