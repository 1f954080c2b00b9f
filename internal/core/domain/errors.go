package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// For a search it means no source knows the identifier.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRemoteUnavailable indicates a remote source could not be reached
	// after the retry budget was spent.
	ErrRemoteUnavailable = errors.New("remote source unavailable")

	// ErrStructuralGeometry indicates geometry that violates a structural
	// invariant and cannot be converted.
	ErrStructuralGeometry = errors.New("structural geometry error")

	// ErrLibraryConflict indicates artifacts for the part already exist
	// and overwriting was not permitted.
	ErrLibraryConflict = errors.New("library conflict")

	// ErrIndexWriteFailure indicates a library table could not be written.
	// The previous index state is left intact.
	ErrIndexWriteFailure = errors.New("library index write failure")

	// ErrAssetDownloadFailure indicates a 3-D model could not be fetched
	// or validated. It is reported as a warning, never fatal.
	ErrAssetDownloadFailure = errors.New("asset download failure")

	// ErrLocked indicates another writer holds the project library lock.
	ErrLocked = errors.New("library locked")

	// ErrRenderFailed indicates the external renderer failed.
	ErrRenderFailed = errors.New("render failed")
)

// UnavailableError carries the source and the last cause of a
// RemoteUnavailable outcome.
type UnavailableError struct {
	Source   SourceTag
	Attempts int
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable after %d attempts: %v", e.Source, e.Attempts, e.Err)
}

// Is matches ErrRemoteUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrRemoteUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// StructuralGeometryError names the primitive that broke an invariant.
type StructuralGeometryError struct {
	Primitive string
	Reason    string
}

func (e *StructuralGeometryError) Error() string {
	return fmt.Sprintf("structural geometry error: %s: %s", e.Primitive, e.Reason)
}

// Is matches ErrStructuralGeometry.
func (e *StructuralGeometryError) Is(target error) bool {
	return target == ErrStructuralGeometry
}

// IndexWriteError names the table that could not be written.
type IndexWriteError struct {
	Table TableKind
	Path  string
	Err   error
}

func (e *IndexWriteError) Error() string {
	return fmt.Sprintf("write %s (%s): %v", e.Table.FileName(), e.Path, e.Err)
}

// Is matches ErrIndexWriteFailure.
func (e *IndexWriteError) Is(target error) bool {
	return target == ErrIndexWriteFailure
}

func (e *IndexWriteError) Unwrap() error {
	return e.Err
}

// AssetError describes one failed model download.
type AssetError struct {
	URL string
	Err error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %s: %v", e.URL, e.Err)
}

// Is matches ErrAssetDownloadFailure.
func (e *AssetError) Is(target error) bool {
	return target == ErrAssetDownloadFailure
}

func (e *AssetError) Unwrap() error {
	return e.Err
}
