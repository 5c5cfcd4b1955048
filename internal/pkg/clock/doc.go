// Package clock provides a tiny time abstraction.
//
// Business logic that cares about time (expiry checks, TTL math) should depend
// on the Clocker interface instead of calling time.Now() directly, so tests can
// pin the clock to a deterministic instant.
package clock
