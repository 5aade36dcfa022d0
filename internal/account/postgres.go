package account

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gigbook.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// NewPGStore constructs a PGStore.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, a *Account) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	if a.Status == "" {
		a.Status = "active"
	}
	_, err := s.db.ExecContext(ctx,
		`insert into accounts(id, email, password_hash, status) values($1,$2,$3,$4)`,
		a.ID, a.Email, a.PasswordHash, a.Status,
	)
	if err != nil {
		return fmt.Errorf("account: create: %w", err)
	}
	return nil
}

const accountColumns = `id, email, password_hash, status, failed_login_attempts, lockout_end, created_at, updated_at`

func (s *PGStore) Find(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where id=$1`, id)
	return scanAccount(row)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where email=$1`, email)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*Account, error) {
	var (
		a          Account
		lockoutEnd sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Status,
		&a.FailedLoginAttempts, &lockoutEnd, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lockoutEnd.Valid {
		t := lockoutEnd.Time
		a.LockoutEnd = &t
	}
	return &a, nil
}

// IncrementFailureCount adds one to the failure counter in a single UPDATE,
// so concurrent failed attempts serialize on the row and never under-count.
func (s *PGStore) IncrementFailureCount(ctx context.Context, userID string) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx,
		`update accounts
		    set failed_login_attempts = failed_login_attempts + 1, updated_at = now()
		  where id = $1
		returning failed_login_attempts`, userID)
	if err := row.Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("account: increment failures: %w", err)
	}
	return count, nil
}

func (s *PGStore) ResetFailureCount(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set failed_login_attempts = 0, updated_at = now() where id = $1`, userID)
	if err != nil {
		return fmt.Errorf("account: reset failures: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) GetFailureCount(ctx context.Context, userID string) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx,
		`select failed_login_attempts from accounts where id=$1`, userID)
	if err := row.Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("account: get failures: %w", err)
	}
	return count, nil
}

func (s *PGStore) SetLockoutUntil(ctx context.Context, userID string, until time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set lockout_end = $2, updated_at = now() where id = $1`,
		userID, until.UTC())
	if err != nil {
		return fmt.Errorf("account: set lockout: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) GetLockoutUntil(ctx context.Context, userID string) (*time.Time, error) {
	var lockoutEnd sql.NullTime
	row := s.db.QueryRowContext(ctx,
		`select lockout_end from accounts where id=$1`, userID)
	if err := row.Scan(&lockoutEnd); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("account: get lockout: %w", err)
	}
	if !lockoutEnd.Valid {
		return nil, nil
	}
	t := lockoutEnd.Time
	return &t, nil
}
