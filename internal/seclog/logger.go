package seclog

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gigbook.org/internal/authz"
	"gigbook.org/internal/ids"
	"gigbook.org/internal/lockout"
	"gigbook.org/internal/obs"
	"gigbook.org/internal/sanitize"
)

const appendTimeout = 5 * time.Second

// Logger builds sanitized security events and dispatches them to the audit
// sink. Dispatch is fire-and-forget: the decision path never waits on the
// sink, and sink failures are swallowed after being mirrored to the
// fallback log.
type Logger struct {
	sink     Sink
	fallback zerolog.Logger
	now      func() time.Time

	wg   sync.WaitGroup
	sync bool
}

// Option configures Logger behavior.
type Option func(*Logger)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(l *Logger) {
		if fn != nil {
			l.now = fn
		}
	}
}

// WithSynchronousDispatch makes Append calls run on the caller's goroutine.
// Only tests use this; production dispatch is asynchronous.
func WithSynchronousDispatch() Option {
	return func(l *Logger) { l.sync = true }
}

// New constructs a Logger writing to sink, with fallback for sink failures.
func New(sink Sink, fallback zerolog.Logger, opts ...Option) *Logger {
	l := &Logger{
		sink:     sink,
		fallback: fallback,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Close drains in-flight appends. Call on shutdown so tail events are not
// lost with the process.
func (l *Logger) Close() {
	l.wg.Wait()
}

// AuthorizationOutcome records one authorization decision. System errors
// are always High severity regardless of outcome sampling elsewhere.
func (l *Logger) AuthorizationOutcome(ctx context.Context, res authz.Result) {
	severity := SeverityLow
	description := "access granted"
	if !res.Authorized {
		severity = SeverityMedium
		description = "access denied"
		if res.Reason == authz.ReasonSystemError {
			severity = SeverityHigh
		}
	}

	evt := l.newEvent(ctx, EventAuthorization, severity, description)
	evt.UserID = sanitize.UserID(res.UserID)
	evt.ResourceType = string(res.ResourceType)
	evt.ResourceID = sanitize.Message(res.ResourceID)
	evt.Context = sanitizeContext(res.Context)
	evt.Context["action"] = string(res.Action)
	evt.Context["reason"] = string(res.Reason)
	l.dispatch(ctx, evt)
}

// LockoutEvent records the outcome of an authentication attempt against an
// existing account. Implements lockout.Notifier.
func (l *Logger) LockoutEvent(ctx context.Context, res lockout.Result, userID, ip string) {
	severity := SeverityMedium
	description := "failed login attempt"
	if res.LockedOut {
		severity = SeverityHigh
		description = "account locked after repeated failed logins"
	}

	evt := l.newEvent(ctx, EventAuthentication, severity, description)
	evt.UserID = sanitize.UserID(userID)
	evt.Context = map[string]string{
		"ip":                 sanitize.IPAddress(ip),
		"failed_attempts":    strconv.Itoa(res.FailedAttempts),
		"remaining_attempts": strconv.Itoa(res.RemainingAttempts),
	}
	if res.LockoutEnd != nil {
		evt.Context["lockout_end"] = res.LockoutEnd.UTC().Format(time.RFC3339)
	}
	l.dispatch(ctx, evt)
}

// UnknownAccountAttempt records a login attempt against a non-existent
// account as suspicious activity. Implements lockout.Notifier.
func (l *Logger) UnknownAccountAttempt(ctx context.Context, identifier, ip string) {
	l.SuspiciousActivity(ctx, "unknown_account_login",
		"login attempt for unknown account", "", SeverityHigh,
		map[string]string{
			"identifier": identifier,
			"ip":         ip,
		})
}

// SuspiciousActivity records a raw security signal. Every value in
// rawContext is attacker-influenced until it passes the sanitizer here.
func (l *Logger) SuspiciousActivity(ctx context.Context, activityType, description, userID string, severity Severity, rawContext map[string]string) {
	evt := l.newEvent(ctx, EventSuspiciousActivity, severity, sanitize.Message(description))
	if userID != "" {
		evt.UserID = sanitize.UserID(userID)
	}
	evt.Context = sanitizeContext(rawContext)
	evt.Context["activity_type"] = sanitize.Message(activityType)
	l.dispatch(ctx, evt)
}

func (l *Logger) newEvent(ctx context.Context, typ EventType, severity Severity, description string) *Event {
	return &Event{
		ID:            ids.New(),
		Type:          typ,
		Severity:      severity,
		Description:   description,
		CorrelationID: sanitize.Message(CorrelationIDFromContext(ctx)),
		OccurredAt:    l.now().UTC(),
	}
}

func (l *Logger) dispatch(ctx context.Context, evt *Event) {
	if evt.CorrelationID == sanitize.Placeholder {
		evt.CorrelationID = ""
	}
	if l.sync {
		l.append(ctx, evt)
		return
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.append(ctx, evt)
	}()
}

func (l *Logger) append(ctx context.Context, evt *Event) {
	// The audit write outlives the request: caller cancellation must not
	// drop the record, only the deadline below bounds it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
	defer cancel()

	if err := l.sink.Append(ctx, evt); err != nil {
		obs.ObserveAuditDropped()
		l.fallback.Error().
			Err(err).
			Str("event_id", evt.ID).
			Str("event_type", string(evt.Type)).
			Str("severity", string(evt.Severity)).
			Str("description", evt.Description).
			Msg("security event append failed")
	}
}

func sanitizeContext(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw)+2)
	var collapsed []string
	for k, v := range raw {
		key := sanitize.UserID(k)
		var val string
		switch key {
		case "ip", "ip_address", "remote_addr":
			val = sanitize.IPAddress(v)
		case "identifier", "user_id", "actor":
			val = sanitize.UserID(v)
		default:
			val = sanitize.Message(v)
		}
		if val == sanitize.Placeholder && v != "" && v != sanitize.Placeholder {
			collapsed = append(collapsed, key)
		}
		out[key] = val
	}
	if len(collapsed) > 0 {
		// The sanitizer collapsed non-empty values; name every affected
		// field so the record shows what was neutralized. Written after the
		// loop so a caller-supplied key of the same name cannot mask it.
		sort.Strings(collapsed)
		out["sanitizer_placeholder"] = strings.Join(collapsed, ",")
	}
	return out
}
