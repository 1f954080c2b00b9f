package driving

import "context"

// Scheduler purges expired source-cache rows on an interval for as long
// as a server process runs.
type Scheduler interface {
	// Start purges once, then on every tick until ctx ends or Stop is
	// called. A second Start while one is running returns nil at once.
	Start(ctx context.Context) error

	// Stop ends a running Start and waits for it to return.
	Stop() error

	// Purge removes expired rows now and reports how many went.
	Purge(ctx context.Context) (int, error)
}
