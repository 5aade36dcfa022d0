package seclog

import "context"

// Sink persists security events. Implementations are append-only; events
// are never updated or deleted by this core.
type Sink interface {
	Append(ctx context.Context, evt *Event) error
}
