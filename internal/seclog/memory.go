package seclog

import (
	"context"
	"sync"
)

var _ Sink = (*InMemorySink)(nil)

// InMemorySink collects events in process for tests and the smoke binary.
type InMemorySink struct {
	mu     sync.Mutex
	events []*Event
}

// NewInMemorySink creates an empty sink.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

func (s *InMemorySink) Append(ctx context.Context, evt *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *evt
	s.events = append(s.events, &cp)
	return nil
}

// Events returns a snapshot of everything appended so far.
func (s *InMemorySink) Events() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}
