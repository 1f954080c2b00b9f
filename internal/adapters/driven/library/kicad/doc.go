// Package kicad stores imported components in a KiCad project library.
//
// Layout inside the project directory (configurable, see domain.LibraryLayout):
//
//	sym-lib-table
//	fp-lib-table
//	libs/lcsc/symbols/lcsc_imported.kicad_sym
//	libs/lcsc/footprints.pretty/<name>.kicad_mod
//	libs/lcsc/3dmodels/<ID>.step, <ID>.wrl
//
// Every file is written to a temporary sibling and renamed into place.
// The two tables are committed together through a journal so that an
// interrupted commit rolls back on the next LoadIndex.
package kicad
