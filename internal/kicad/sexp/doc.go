// Package sexp reads and writes the S-expression dialect used by KiCad
// library files (.kicad_sym, .kicad_mod) and library tables
// (sym-lib-table, fp-lib-table).
//
// Quoted and bare atoms are kept as distinct node types so that a file
// parsed, edited and formatted again keeps its original quoting.
package sexp
