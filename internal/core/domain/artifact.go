package domain

// ArtifactKind names one of the files an import produces.
type ArtifactKind string

// Artifact kinds. Conflicts and overwrites are tracked per kind.
const (
	ArtifactSymbol    ArtifactKind = "symbol"
	ArtifactFootprint ArtifactKind = "footprint"
	ArtifactModel     ArtifactKind = "model"
)

// AllArtifactKinds lists every kind in write order.
var AllArtifactKinds = []ArtifactKind{ArtifactSymbol, ArtifactFootprint, ArtifactModel}

// IsValid returns true if the kind is recognised.
func (k ArtifactKind) IsValid() bool {
	switch k {
	case ArtifactSymbol, ArtifactFootprint, ArtifactModel:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ArtifactKind) String() string {
	return string(k)
}

// SymbolArtifact is a complete .kicad_sym library holding one symbol.
type SymbolArtifact struct {
	Name        string
	Content     []byte
	Placeholder bool
}

// FootprintArtifact is a complete .kicad_mod file.
type FootprintArtifact struct {
	Name        string
	Content     []byte
	Placeholder bool
	ModelPaths  []string
}

// ConvertedArtifacts is the output of one conversion.
// A side rejected with a structural error has nil Content and its error
// in Rejected; the other side is still usable.
type ConvertedArtifacts struct {
	SourceID  string
	Symbol    SymbolArtifact
	Footprint FootprintArtifact
	Warnings  []string
	Rejected  map[ArtifactKind]error
}

// Placeholder reports whether either side was generated without geometry.
func (a ConvertedArtifacts) Placeholder() bool {
	return a.Symbol.Placeholder || a.Footprint.Placeholder
}

// ConvertOptions parameterise a conversion without giving the converter
// any I/O of its own.
type ConvertOptions struct {
	// LibraryName is the logical library the footprint property points into.
	LibraryName string

	// ModelPaths are the model paths written into the footprint, usually
	// ${KIPRJMOD}-relative.
	ModelPaths []string
}

// LocalAsset is a downloaded and validated 3-D model held in memory.
type LocalAsset struct {
	Format    ModelFormat
	FileName  string
	Data      []byte
	SourceURL string
}
