// Package account manages gigbook login accounts and their credential
// state. It backs both authentication (email + bcrypt hash) and the lockout
// policy's failure counters.
package account

import "time"

// Account represents a human operating the gigbook application.
type Account struct {
	ID                  string
	Email               string
	PasswordHash        string
	Status              string
	FailedLoginAttempts int
	LockoutEnd          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Active reports whether the account may authenticate at all.
func (a *Account) Active() bool {
	return a != nil && a.Status == "active"
}
