package seclog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

var _ Sink = (*PGSink)(nil)

// PGSink appends security events to the security_events table. Rows are
// append-only; retention is handled by an external cleanup job.
type PGSink struct {
	db *sql.DB
}

// NewPGSink constructs a PGSink.
func NewPGSink(db *sql.DB) *PGSink {
	return &PGSink{db: db}
}

func (s *PGSink) Append(ctx context.Context, evt *Event) error {
	contextJSON, err := json.Marshal(evt.Context)
	if err != nil {
		return fmt.Errorf("seclog: marshal context: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`insert into security_events(
			id, event_type, severity, description,
			user_id, resource_type, resource_id,
			context, correlation_id, occurred_at
		) values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		evt.ID, string(evt.Type), string(evt.Severity), evt.Description,
		nullable(evt.UserID), nullable(evt.ResourceType), nullable(evt.ResourceID),
		contextJSON, nullable(evt.CorrelationID), evt.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("seclog: append: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
