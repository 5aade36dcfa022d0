// Package lockout implements the progressive login lockout policy: a
// per-account state machine that escalates lockout duration as failed
// authentication attempts accumulate. State lives in the credential store;
// expiry is observed lazily on the next check, no background timer involved.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigbook.org/internal/obs"
)

// Messages surfaced to end users. Deliberately generic: they must not leak
// whether the account exists or why the attempt failed internally.
const (
	MessageInvalidCredentials = "Invalid email or password."
	MessageLockedOut          = "Too many failed attempts. The account is temporarily locked; try again later."
)

// Tier maps a cumulative failure count ceiling to a lockout duration.
type Tier struct {
	MaxFailures int
	Duration    time.Duration
}

// Config drives the escalation ladder.
type Config struct {
	// Threshold is the failure count at which the account locks.
	Threshold int

	// Ladder is ordered by MaxFailures; the first tier whose ceiling covers
	// the cumulative count supplies the lockout duration.
	Ladder []Tier

	// Beyond applies once the count exceeds every ladder tier.
	Beyond time.Duration
}

// DefaultConfig returns the standard escalation ladder.
func DefaultConfig() Config {
	return Config{
		Threshold: 5,
		Ladder: []Tier{
			{MaxFailures: 5, Duration: 5 * time.Minute},
			{MaxFailures: 10, Duration: 15 * time.Minute},
			{MaxFailures: 15, Duration: time.Hour},
			{MaxFailures: 20, Duration: 4 * time.Hour},
			{MaxFailures: 25, Duration: 12 * time.Hour},
		},
		Beyond: 24 * time.Hour,
	}
}

// Validate rejects ladders that are not monotonically non-decreasing.
func (c Config) Validate() error {
	if c.Threshold <= 0 {
		return errors.New("lockout: threshold must be positive")
	}
	prevMax, prevDur := 0, time.Duration(0)
	for _, t := range c.Ladder {
		if t.MaxFailures <= prevMax {
			return fmt.Errorf("lockout: ladder ceilings must increase (%d after %d)", t.MaxFailures, prevMax)
		}
		if t.Duration < prevDur {
			return fmt.Errorf("lockout: ladder durations must not decrease (%s after %s)", t.Duration, prevDur)
		}
		prevMax, prevDur = t.MaxFailures, t.Duration
	}
	if len(c.Ladder) > 0 && c.Beyond < prevDur {
		return fmt.Errorf("lockout: beyond duration %s below last tier %s", c.Beyond, prevDur)
	}
	return nil
}

// tier returns the lockout duration for a cumulative failure count.
func (c Config) tier(failures int) time.Duration {
	for _, t := range c.Ladder {
		if failures <= t.MaxFailures {
			return t.Duration
		}
	}
	return c.Beyond
}

// Result describes the outcome of one authentication attempt as seen by the
// lockout policy. Message is safe to surface verbatim to the end user.
type Result struct {
	LockedOut         bool
	LockoutEnd        *time.Time
	FailedAttempts    int
	RemainingAttempts int
	Message           string
}

// Notifier receives security-relevant lockout outcomes. Implementations
// must not block the login path.
type Notifier interface {
	LockoutEvent(ctx context.Context, res Result, userID, ip string)
	UnknownAccountAttempt(ctx context.Context, identifier, ip string)
}

// Policy is the per-account lockout state machine.
type Policy struct {
	store    CredentialStore
	cfg      Config
	notifier Notifier
	now      func() time.Time
}

// Option configures Policy behavior.
type Option func(*Policy)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(p *Policy) {
		if fn != nil {
			p.now = fn
		}
	}
}

// WithNotifier routes lockout outcomes to a security event logger.
func WithNotifier(n Notifier) Option {
	return func(p *Policy) { p.notifier = n }
}

// NewPolicy constructs a Policy. The config ladder must be monotone.
func NewPolicy(store CredentialStore, cfg Config, opts ...Option) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Policy{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Check reports the current lockout state without mutating anything. It is
// called before credentials are verified so a locked account never reaches
// the password check.
func (p *Policy) Check(ctx context.Context, userID string) (Result, error) {
	until, err := p.store.GetLockoutUntil(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("lockout: check: %w", err)
	}
	count, err := p.store.GetFailureCount(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("lockout: check: %w", err)
	}
	res := Result{
		FailedAttempts:    count,
		RemainingAttempts: remaining(p.cfg.Threshold, count),
		Message:           MessageInvalidCredentials,
	}
	if until != nil && p.now().Before(*until) {
		res.LockedOut = true
		res.LockoutEnd = until
		res.Message = MessageLockedOut
	}
	return res, nil
}

// HandleFailedLogin records a failed authentication attempt. The counter
// increment is a single atomic read-modify-write in the credential store.
// Once the counter reaches the threshold the lockout end is recomputed from
// the ladder on every further failure, so repeat offenders lock for longer
// even while already locked.
func (p *Policy) HandleFailedLogin(ctx context.Context, userID, ip string) (Result, error) {
	count, err := p.store.IncrementFailureCount(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("lockout: record failure: %w", err)
	}

	res := Result{
		FailedAttempts:    count,
		RemainingAttempts: remaining(p.cfg.Threshold, count),
		Message:           MessageInvalidCredentials,
	}

	if count >= p.cfg.Threshold {
		end := p.now().Add(p.cfg.tier(count))
		if err := p.store.SetLockoutUntil(ctx, userID, end); err != nil {
			return Result{}, fmt.Errorf("lockout: set lockout end: %w", err)
		}
		res.LockedOut = true
		res.LockoutEnd = &end
		res.Message = MessageLockedOut
		obs.ObserveLockout("locked")
	} else {
		obs.ObserveLockout("failed_attempt")
	}

	if p.notifier != nil {
		p.notifier.LockoutEvent(ctx, res, userID, ip)
	}
	return res, nil
}

// HandleSuccessfulLogin resets the failure counter unconditionally. It does
// not clear an active lockout end; lock expiry stays time-based and the
// reset only affects future attempts.
func (p *Policy) HandleSuccessfulLogin(ctx context.Context, userID string) error {
	if err := p.store.ResetFailureCount(ctx, userID); err != nil {
		return fmt.Errorf("lockout: reset: %w", err)
	}
	obs.ObserveLockout("reset")
	return nil
}

// HandleUnknownAccount covers login attempts against accounts that do not
// exist. There is no counter to mutate, so the attempt is recorded as
// suspicious activity instead of an authentication failure; the returned
// result is indistinguishable from an ordinary failed attempt.
func (p *Policy) HandleUnknownAccount(ctx context.Context, identifier, ip string) Result {
	obs.ObserveLockout("unknown_account")
	if p.notifier != nil {
		p.notifier.UnknownAccountAttempt(ctx, identifier, ip)
	}
	return Result{
		RemainingAttempts: p.cfg.Threshold,
		Message:           MessageInvalidCredentials,
	}
}

func remaining(threshold, count int) int {
	if count >= threshold {
		return 0
	}
	return threshold - count
}
