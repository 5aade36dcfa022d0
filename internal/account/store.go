package account

import (
	"context"
	"time"
)

// Store describes persistence for accounts and their credential state. It
// is a superset of the lockout policy's CredentialStore so one backend
// serves both authentication and lockout bookkeeping.
type Store interface {
	Create(ctx context.Context, a *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)

	IncrementFailureCount(ctx context.Context, userID string) (int, error)
	ResetFailureCount(ctx context.Context, userID string) error
	GetFailureCount(ctx context.Context, userID string) (int, error)
	SetLockoutUntil(ctx context.Context, userID string, until time.Time) error
	GetLockoutUntil(ctx context.Context, userID string) (*time.Time, error)
}
