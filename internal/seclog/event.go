// Package seclog turns authorization and lockout outcomes into canonical,
// sanitized security events and appends them to a durable audit sink.
// Logging here is advisory: a sink failure never alters the decision the
// event describes.
package seclog

import "time"

// EventType classifies a security event.
type EventType string

const (
	EventAuthentication     EventType = "authentication"
	EventAuthorization      EventType = "authorization"
	EventSuspiciousActivity EventType = "suspicious_activity"
)

// Severity ranks how urgently an event should be reviewed.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Event is one append-only audit record. Every string field has passed the
// sanitizer before the event is constructed; sinks may treat the contents
// as safe for any log or structured store.
type Event struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	Severity      Severity          `json:"severity"`
	Description   string            `json:"description"`
	UserID        string            `json:"user_id,omitempty"`
	ResourceType  string            `json:"resource_type,omitempty"`
	ResourceID    string            `json:"resource_id,omitempty"`
	Context       map[string]string `json:"context,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
