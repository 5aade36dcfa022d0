package seclog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gigbook.org/internal/authz"
	"gigbook.org/internal/lockout"
)

type failingSink struct{ err error }

func (s failingSink) Append(ctx context.Context, evt *Event) error { return s.err }

func newTestLogger(sink Sink, fallback zerolog.Logger) *Logger {
	return New(sink, fallback,
		WithSynchronousDispatch(),
		WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
	)
}

func TestAuthorizationOutcomeSeverity(t *testing.T) {
	tests := []struct {
		name         string
		res          authz.Result
		wantSeverity Severity
		wantDesc     string
	}{
		{
			"granted",
			authz.Result{Authorized: true, UserID: "alice", ResourceType: authz.ResourceSong, ResourceID: "song-1", Action: authz.ActionRead, Reason: authz.ReasonOK},
			SeverityLow, "access granted",
		},
		{
			"denied mismatch",
			authz.Result{UserID: "alice", ResourceType: authz.ResourceSong, ResourceID: "song-3", Action: authz.ActionUpdate, Reason: authz.ReasonOwnershipMismatch},
			SeverityMedium, "access denied",
		},
		{
			"denied system error",
			authz.Result{UserID: "alice", ResourceType: authz.ResourceSong, ResourceID: "song-1", Action: authz.ActionDelete, Reason: authz.ReasonSystemError},
			SeverityHigh, "access denied",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := NewInMemorySink()
			l := newTestLogger(sink, zerolog.Nop())

			l.AuthorizationOutcome(context.Background(), tc.res)

			events := sink.Events()
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			evt := events[0]
			if evt.Type != EventAuthorization {
				t.Fatalf("type = %s", evt.Type)
			}
			if evt.Severity != tc.wantSeverity {
				t.Fatalf("severity = %s, want %s", evt.Severity, tc.wantSeverity)
			}
			if evt.Description != tc.wantDesc {
				t.Fatalf("description = %q", evt.Description)
			}
			if evt.Context["action"] != string(tc.res.Action) {
				t.Fatalf("action missing: %v", evt.Context)
			}
			if evt.Context["reason"] != string(tc.res.Reason) {
				t.Fatalf("reason missing: %v", evt.Context)
			}
			if evt.ID == "" {
				t.Fatal("missing event id")
			}
		})
	}
}

func TestLockoutEvent(t *testing.T) {
	sink := NewInMemorySink()
	l := newTestLogger(sink, zerolog.Nop())

	end := time.Unix(1_700_000_300, 0)
	l.LockoutEvent(context.Background(), lockout.Result{
		LockedOut:      true,
		LockoutEnd:     &end,
		FailedAttempts: 5,
	}, "user-1", "203.0.113.7")

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.Type != EventAuthentication || evt.Severity != SeverityHigh {
		t.Fatalf("unexpected classification: %s/%s", evt.Type, evt.Severity)
	}
	if evt.Context["ip"] != "203.0.113.0" {
		t.Fatalf("ip not masked: %q", evt.Context["ip"])
	}
	if evt.Context["failed_attempts"] != "5" {
		t.Fatalf("failed_attempts = %q", evt.Context["failed_attempts"])
	}
	if evt.Context["lockout_end"] != end.UTC().Format(time.RFC3339) {
		t.Fatalf("lockout_end = %q", evt.Context["lockout_end"])
	}

	l.LockoutEvent(context.Background(), lockout.Result{FailedAttempts: 2, RemainingAttempts: 3}, "user-1", "not an ip")
	evt = sink.Events()[1]
	if evt.Severity != SeverityMedium {
		t.Fatalf("ordinary failure severity = %s", evt.Severity)
	}
	if evt.Context["ip"] != "unknown" {
		t.Fatalf("bad ip literal not neutralized: %q", evt.Context["ip"])
	}
}

func TestSuspiciousActivitySanitizesContext(t *testing.T) {
	sink := NewInMemorySink()
	l := newTestLogger(sink, zerolog.Nop())

	l.SuspiciousActivity(context.Background(), "unknown_account_login",
		"login attempt\r\nfor unknown account", "evil\nuser", SeverityHigh,
		map[string]string{
			"identifier": "ghost@example.com\r\nadmin: true",
			"ip":         "203.0.113.7",
			"note":       "tried\x1b[1mbold",
		})

	evt := sink.Events()[0]
	if evt.Type != EventSuspiciousActivity {
		t.Fatalf("type = %s", evt.Type)
	}
	if evt.Description != "login attemptfor unknown account" {
		t.Fatalf("description not sanitized: %q", evt.Description)
	}
	if evt.UserID != "eviluser" {
		t.Fatalf("user id not sanitized: %q", evt.UserID)
	}
	if evt.Context["identifier"] != "ghost@example.comadmintrue" {
		t.Fatalf("identifier not sanitized: %q", evt.Context["identifier"])
	}
	if evt.Context["ip"] != "203.0.113.0" {
		t.Fatalf("ip not masked: %q", evt.Context["ip"])
	}
	if evt.Context["note"] != "tried[1mbold" {
		t.Fatalf("note not sanitized: %q", evt.Context["note"])
	}
	if evt.Context["activity_type"] != "unknown_account_login" {
		t.Fatalf("activity_type = %q", evt.Context["activity_type"])
	}
}

func TestSanitizerPlaceholderMarker(t *testing.T) {
	sink := NewInMemorySink()
	l := newTestLogger(sink, zerolog.Nop())
	ctx := context.Background()

	l.SuspiciousActivity(ctx, "garbled_input", "desc", "", SeverityLow,
		map[string]string{"identifier": "<<<>>>"})

	evt := sink.Events()[0]
	if evt.Context["identifier"] != "unknown" {
		t.Fatalf("identifier = %q", evt.Context["identifier"])
	}
	if evt.Context["sanitizer_placeholder"] != "identifier" {
		t.Fatalf("collapsed value not flagged: %v", evt.Context)
	}

	// Every collapsed field is named, in stable order; intact fields are not.
	l.SuspiciousActivity(ctx, "garbled_input", "desc", "", SeverityLow,
		map[string]string{
			"identifier": "<<<>>>",
			"actor":      "###",
			"note":       "fine",
		})
	evt = sink.Events()[1]
	if evt.Context["sanitizer_placeholder"] != "actor,identifier" {
		t.Fatalf("collapsed fields = %q", evt.Context["sanitizer_placeholder"])
	}
	if evt.Context["note"] != "fine" {
		t.Fatalf("intact field altered: %q", evt.Context["note"])
	}

	// A caller-supplied key named like the marker cannot mask it.
	l.SuspiciousActivity(ctx, "garbled_input", "desc", "", SeverityLow,
		map[string]string{
			"sanitizer_placeholder": "spoofed",
			"identifier":            "<<<>>>",
		})
	evt = sink.Events()[2]
	if evt.Context["sanitizer_placeholder"] != "identifier" {
		t.Fatalf("marker overridden by caller key: %v", evt.Context)
	}
}

func TestCorrelationIDPropagation(t *testing.T) {
	sink := NewInMemorySink()
	l := newTestLogger(sink, zerolog.Nop())

	ctx := WithCorrelationID(context.Background(), "01J8ZN3V9X3Q4R5S6T7U8V9W0X")
	l.AuthorizationOutcome(ctx, authz.Result{Authorized: true, UserID: "alice", Reason: authz.ReasonOK})

	evt := sink.Events()[0]
	if evt.CorrelationID != "01J8ZN3V9X3Q4R5S6T7U8V9W0X" {
		t.Fatalf("correlation id = %q", evt.CorrelationID)
	}

	// No correlation id in context: the field stays empty rather than
	// carrying the sanitizer placeholder.
	l.AuthorizationOutcome(context.Background(), authz.Result{Authorized: true, UserID: "alice", Reason: authz.ReasonOK})
	if got := sink.Events()[1].CorrelationID; got != "" {
		t.Fatalf("correlation id = %q, want empty", got)
	}
}

func TestSinkFailureFallsBack(t *testing.T) {
	var buf bytes.Buffer
	fallback := zerolog.New(&buf)
	l := newTestLogger(failingSink{err: errors.New("sink down")}, fallback)

	l.AuthorizationOutcome(context.Background(), authz.Result{
		UserID: "alice", ResourceType: authz.ResourceSong, ResourceID: "song-1",
		Action: authz.ActionUpdate, Reason: authz.ReasonOwnershipMismatch,
	})

	if buf.Len() == 0 {
		t.Fatal("expected fallback log output")
	}
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("fallback line not JSON: %v", err)
	}
	if entry["error"] != "sink down" {
		t.Fatalf("error field = %v", entry["error"])
	}
	if entry["event_type"] != string(EventAuthorization) {
		t.Fatalf("event_type = %v", entry["event_type"])
	}
}

func TestAsyncDispatchDrainsOnClose(t *testing.T) {
	sink := NewInMemorySink()
	l := New(sink, zerolog.Nop()) // asynchronous, production mode

	for i := 0; i < 10; i++ {
		l.AuthorizationOutcome(context.Background(), authz.Result{
			Authorized: true, UserID: "alice", Reason: authz.ReasonOK,
		})
	}
	l.Close()

	if got := len(sink.Events()); got != 10 {
		t.Fatalf("captured %d events after Close, want 10", got)
	}
}

func TestDispatchSurvivesCallerCancellation(t *testing.T) {
	sink := NewInMemorySink()
	l := newTestLogger(sink, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l.AuthorizationOutcome(ctx, authz.Result{Authorized: true, UserID: "alice", Reason: authz.ReasonOK})
	if len(sink.Events()) != 1 {
		t.Fatal("cancelled request context dropped the audit record")
	}
}
