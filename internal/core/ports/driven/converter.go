package driven

import "github.com/custodia-labs/kicad-lcsc/internal/core/domain"

// ArtifactConverter transcodes a record into KiCad files.
// Implementations are pure: no I/O, same input gives identical bytes.
type ArtifactConverter interface {
	Convert(record *domain.ComponentRecord, opts domain.ConvertOptions) (domain.ConvertedArtifacts, error)
}

// ModelTranscoder converts a downloaded mesh into a format KiCad reads.
type ModelTranscoder interface {
	// ToVRML converts an OBJ payload into VRML 2.0.
	ToVRML(obj []byte) ([]byte, error)
}
