// Package kicad converts component records into KiCad 6+ files.
//
// The converter is a pure function of its input: no I/O, no clocks, no
// randomness. Item timestamps are derived from the catalog code, so the
// same record always produces byte-identical output.
//
// Coordinates are scaled from source units (10 mil) to millimetres and
// rounded half away from zero to [Precision] decimals. Scaling runs in
// shopspring/decimal so exact ties are not lost to binary floats. Symbol Y is flipped
// because KiCad symbols grow upwards; footprint Y is kept.
//
// Non-fatal issues (unknown pin types, unknown layers, unsupported
// primitives) are collected as warnings. Structural problems (duplicate
// pins, degenerate shapes, through-hole pads without a drill) reject the
// affected side with a [domain.StructuralGeometryError].
package kicad
