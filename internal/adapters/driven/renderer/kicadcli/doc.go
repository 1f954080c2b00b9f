// Package kicadcli renders symbol and footprint previews with KiCad's
// command line tool.
//
// The artifact is written to a scratch directory, kicad-cli exports it as
// SVG, and the SVG is rasterized into a square PNG with oksvg and rasterx.
package kicadcli
