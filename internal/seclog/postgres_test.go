package seclog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGSinkAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	sink := NewPGSink(db)
	occurred := time.Unix(1_700_000_000, 0).UTC()

	mock.ExpectExec("insert into security_events").
		WithArgs(
			"01J8ZN3V9X3Q4R5S6T7U8V9W0X",
			"authorization",
			"medium",
			"access denied",
			"alice",
			"song",
			"song-3",
			[]byte(`{"reason":"ownership_mismatch"}`),
			nil,
			occurred,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = sink.Append(context.Background(), &Event{
		ID:           "01J8ZN3V9X3Q4R5S6T7U8V9W0X",
		Type:         EventAuthorization,
		Severity:     SeverityMedium,
		Description:  "access denied",
		UserID:       "alice",
		ResourceType: "song",
		ResourceID:   "song-3",
		Context:      map[string]string{"reason": "ownership_mismatch"},
		OccurredAt:   occurred,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGSinkAppendError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into security_events").
		WillReturnError(errors.New("connection refused"))

	sink := NewPGSink(db)
	if err := sink.Append(context.Background(), &Event{ID: "x", Type: EventAuthentication, Severity: SeverityLow, OccurredAt: time.Now()}); err == nil {
		t.Fatal("expected append error")
	}
}
