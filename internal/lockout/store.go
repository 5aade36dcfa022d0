package lockout

import (
	"context"
	"time"
)

// CredentialStore is the narrow slice of the account backend the lockout
// policy mutates. Implementations must apply IncrementFailureCount with
// per-account atomicity so racing failed attempts cannot under-count.
type CredentialStore interface {
	// IncrementFailureCount adds one to the account's failure counter and
	// returns the post-increment value.
	IncrementFailureCount(ctx context.Context, userID string) (int, error)

	// ResetFailureCount sets the failure counter back to zero.
	ResetFailureCount(ctx context.Context, userID string) error

	// GetFailureCount reads the current failure counter.
	GetFailureCount(ctx context.Context, userID string) (int, error)

	// SetLockoutUntil records when the active lockout expires.
	SetLockoutUntil(ctx context.Context, userID string, until time.Time) error

	// GetLockoutUntil returns the lockout expiry, or nil when none was set.
	GetLockoutUntil(ctx context.Context, userID string) (*time.Time, error)
}
