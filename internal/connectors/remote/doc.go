// Package remote holds the plumbing shared by the remote catalog clients:
// per-source rate limiting, the retry policy and rotating session
// identities.
//
// # Throttling
//
// Each source gets one Limiter. Schedule blocks until a request may be
// issued without exceeding the per-minute ceiling or the minimum spacing,
// and the returned Permit keeps other requests to the same source waiting
// until it is released.
//
// # Retries
//
// RetryPolicy retries rate limiting (429, 403 block pages), 5xx, timeouts
// and network errors after 10 s, 20 s and 30 s, rotating the session
// cookie jar and user agent before each retry. When the delays are spent
// the failure surfaces as domain.UnavailableError.
//
// Time is injected through Clock so both can be tested without waiting.
package remote
