package domain

import (
	"path"
	"path/filepath"
)

// ProjectVar is the KiCad variable that expands to the project directory.
const ProjectVar = "${KIPRJMOD}"

// TableKind identifies one of the two library index files.
type TableKind string

// Library tables. The value is the root keyword of the file.
const (
	TableSymbol    TableKind = "sym_lib_table"
	TableFootprint TableKind = "fp_lib_table"
)

// FileName returns the on-disk name of the table inside the project.
func (k TableKind) FileName() string {
	switch k {
	case TableSymbol:
		return "sym-lib-table"
	case TableFootprint:
		return "fp-lib-table"
	default:
		return ""
	}
}

// LibEntry is one (lib ...) row of a table.
type LibEntry struct {
	Name    string
	Type    string
	URI     string
	Options string
	Descr   string
}

// LibTable is a parsed sym-lib-table or fp-lib-table.
type LibTable struct {
	Kind    TableKind
	Version int
	Entries []LibEntry
}

// Lookup returns the entry with the given logical name.
func (t *LibTable) Lookup(name string) (LibEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return LibEntry{}, false
}

// Upsert adds the entry or replaces the one with the same logical name.
// Returns false if an identical entry already existed.
func (t *LibTable) Upsert(entry LibEntry) bool {
	for i, e := range t.Entries {
		if e.Name != entry.Name {
			continue
		}
		if e == entry {
			return false
		}
		t.Entries[i] = entry
		return true
	}
	t.Entries = append(t.Entries, entry)
	return true
}

// Clone returns a deep copy.
func (t LibTable) Clone() LibTable {
	t.Entries = append([]LibEntry(nil), t.Entries...)
	return t
}

// LibraryIndex is the pair of tables for one project directory.
type LibraryIndex struct {
	Project    string
	Symbols    LibTable
	Footprints LibTable
}

// LibraryLayout locates the imported libraries inside a project.
// Root and the names below it are project-relative, slash separated.
type LibraryLayout struct {
	Root         string
	SymbolDir    string
	SymbolFile   string
	FootprintDir string
	ModelsDir    string
	Nickname     string
}

// DefaultLibraryLayout returns the layout used when nothing is configured.
func DefaultLibraryLayout() LibraryLayout {
	return LibraryLayout{
		Root:         "libs/lcsc",
		SymbolDir:    "symbols",
		SymbolFile:   "lcsc_imported.kicad_sym",
		FootprintDir: "footprints.pretty",
		ModelsDir:    "3dmodels",
		Nickname:     "lcsc_imported",
	}
}

// SymbolPath is the symbol library file under project.
func (l LibraryLayout) SymbolPath(project string) string {
	return filepath.Join(project, filepath.FromSlash(l.symbolRel()))
}

// FootprintPath is the footprint library directory under project.
func (l LibraryLayout) FootprintPath(project string) string {
	return filepath.Join(project, filepath.FromSlash(path.Join(l.Root, l.FootprintDir)))
}

// ModelsPath is the 3-D model directory under project.
func (l LibraryLayout) ModelsPath(project string) string {
	return filepath.Join(project, filepath.FromSlash(path.Join(l.Root, l.ModelsDir)))
}

// SymbolURI is the table URI of the symbol library.
func (l LibraryLayout) SymbolURI() string {
	return ProjectVar + "/" + l.symbolRel()
}

// FootprintURI is the table URI of the footprint library.
func (l LibraryLayout) FootprintURI() string {
	return ProjectVar + "/" + path.Join(l.Root, l.FootprintDir)
}

// ModelURI is the path a footprint uses to reference a model file.
func (l LibraryLayout) ModelURI(fileName string) string {
	return ProjectVar + "/" + path.Join(l.Root, l.ModelsDir, fileName)
}

// SymbolEntry is the sym-lib-table row for the imported library.
func (l LibraryLayout) SymbolEntry() LibEntry {
	return LibEntry{Name: l.Nickname, Type: "KiCad", URI: l.SymbolURI(), Descr: "LCSC imported components"}
}

// FootprintEntry is the fp-lib-table row for the imported library.
func (l LibraryLayout) FootprintEntry() LibEntry {
	return LibEntry{Name: l.Nickname, Type: "KiCad", URI: l.FootprintURI(), Descr: "LCSC imported footprints"}
}

func (l LibraryLayout) symbolRel() string {
	return path.Join(l.Root, l.SymbolDir, l.SymbolFile)
}

// ImportOptions control how an import treats existing artifacts.
type ImportOptions struct {
	// Overwrite grants permission to replace an existing artifact per kind.
	Overwrite map[ArtifactKind]bool

	// Keep leaves an existing artifact of the kind in place and imports
	// the other kinds around it. A kept kind that does not exist yet is
	// still written.
	Keep map[ArtifactKind]bool

	// SkipModels leaves 3-D models out of the import.
	SkipModels bool
}

// Allows reports whether kind may be overwritten.
func (o ImportOptions) Allows(kind ArtifactKind) bool {
	return o.Overwrite[kind]
}

// Keeps reports whether an existing artifact of kind is left untouched.
// Overwrite wins when both are set.
func (o ImportOptions) Keeps(kind ArtifactKind) bool {
	return o.Keep[kind] && !o.Overwrite[kind]
}

// Blocking returns the existing kinds that are neither overwritten nor
// kept, in the order given.
func (o ImportOptions) Blocking(existing []ArtifactKind) []ArtifactKind {
	var out []ArtifactKind
	for _, k := range existing {
		if !o.Allows(k) && !o.Keeps(k) {
			out = append(out, k)
		}
	}
	return out
}

// KeepUnlisted marks every kind without overwrite permission as kept, so
// an import replaces exactly the overwritten kinds.
func (o ImportOptions) KeepUnlisted() ImportOptions {
	keep := make(map[ArtifactKind]bool, len(AllArtifactKinds))
	for _, k := range AllArtifactKinds {
		if !o.Overwrite[k] {
			keep[k] = true
		}
	}
	o.Keep = keep
	return o
}

// OverwriteAll grants overwrite permission for every kind.
func OverwriteAll() map[ArtifactKind]bool {
	m := make(map[ArtifactKind]bool, len(AllArtifactKinds))
	for _, k := range AllArtifactKinds {
		m[k] = true
	}
	return m
}

// ImportStatus summarises an import.
type ImportStatus string

// Import statuses.
const (
	// ImportStatusImported means every requested artifact was written.
	ImportStatusImported ImportStatus = "imported"

	// ImportStatusPartial means some artifacts failed to write.
	ImportStatusPartial ImportStatus = "partial"

	// ImportStatusConflict means nothing was written because artifacts
	// for the part already exist and overwriting was not permitted.
	ImportStatusConflict ImportStatus = "conflict"
)

// ImportResult reports what an import did, per artifact kind.
type ImportResult struct {
	SourceID     string                  `json:"source_id" yaml:"source_id"`
	Status       ImportStatus            `json:"status" yaml:"status"`
	LibraryName  string                  `json:"library" yaml:"library"`
	Conflicts    []ArtifactKind          `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Kept         []ArtifactKind          `json:"kept,omitempty" yaml:"kept,omitempty"`
	Written      map[ArtifactKind]string `json:"written,omitempty" yaml:"written,omitempty"`
	Failed       map[ArtifactKind]string `json:"failed,omitempty" yaml:"failed,omitempty"`
	IndexUpdated bool                    `json:"index_updated" yaml:"index_updated"`
	Warnings     []string                `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// LibraryInfo describes the imported library of a project.
type LibraryInfo struct {
	Project        string   `json:"project" yaml:"project"`
	Nickname       string   `json:"nickname" yaml:"nickname"`
	SymbolPath     string   `json:"symbol_path" yaml:"symbol_path"`
	FootprintPath  string   `json:"footprint_path" yaml:"footprint_path"`
	ModelsPath     string   `json:"models_path" yaml:"models_path"`
	Symbols        []string `json:"symbols" yaml:"symbols"`
	Footprints     []string `json:"footprints" yaml:"footprints"`
	Models         []string `json:"models" yaml:"models"`
	SymbolTable    bool     `json:"symbol_table_registered" yaml:"symbol_table_registered"`
	FootprintTable bool     `json:"footprint_table_registered" yaml:"footprint_table_registered"`
}

// LibraryChange is the kind of change a LibraryEvent reports.
type LibraryChange string

// Library changes.
const (
	LibraryCreated LibraryChange = "created"
	LibraryUpdated LibraryChange = "updated"
	LibraryDeleted LibraryChange = "deleted"
)

// LibraryEvent is an external change observed on a project library.
type LibraryEvent struct {
	Path   string        `json:"path" yaml:"path"`
	Change LibraryChange `json:"change" yaml:"change"`
}
