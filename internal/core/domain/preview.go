package domain

// CacheState is the lifecycle state of a preview cache entry.
type CacheState string

// Cache states.
const (
	CacheEmpty   CacheState = "empty"
	CachePending CacheState = "pending"
	CacheReady   CacheState = "ready"
	CacheFailed  CacheState = "failed"
)

// CacheKey addresses one rendered preview.
type CacheKey struct {
	SourceID string
	Kind     ArtifactKind
}

// CacheEntry is a snapshot of one preview slot. Generation is the token
// of the render the entry belongs to; completions carrying any other
// token are discarded.
type CacheEntry struct {
	Key        CacheKey
	Generation uint64
	State      CacheState
	Image      []byte
	Err        error
}
