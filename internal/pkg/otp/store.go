package otp

import (
	"context"
	"time"
)

// Store persists one-time code records keyed by subject and purpose.
//
// Implementations must treat Put as an unconditional replace and must not
// return records that are past expiry from Get.
type Store interface {
	// Put stores the record, replacing any existing record for the same
	// subject and purpose.
	Put(ctx context.Context, rec Record) error

	// Get returns the live record for the subject and purpose. The second
	// return value is false when no record exists or the record expired.
	Get(ctx context.Context, subject string, purpose Purpose, now time.Time) (Record, bool, error)

	// IncrementAttempts bumps the failed-attempt counter and returns the new
	// value. Incrementing a missing record returns 0 without error.
	IncrementAttempts(ctx context.Context, subject string, purpose Purpose) (int, error)

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, subject string, purpose Purpose) error

	// Sweep removes expired records and returns how many were dropped.
	// Stores with native TTL support may make this a no-op.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
