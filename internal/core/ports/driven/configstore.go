package driven

// ConfigStore persists user settings as flat dotted keys
// ("library.path", "remote.requests_per_minute"). Values are stored as
// given; interpreting them is the settings service's job.
type ConfigStore interface {
	// Get returns the stored value for key and whether it is set.
	Get(key string) (any, bool)

	// Set stores value under key and persists it before returning.
	Set(key string, value any) error

	// Delete removes key and persists the change. Deleting a key that
	// is not set is not an error.
	Delete(key string) error

	// Keys returns the set keys in ascending order.
	Keys() []string

	// Path names where the settings live, for display.
	Path() string
}
