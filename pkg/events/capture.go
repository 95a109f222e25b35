package events

import (
	"context"
	"sync"
)

// CapturingEventSink records every appended envelope in memory. It backs
// tests that assert on emitted events and doubles as a dev-mode sink.
type CapturingEventSink struct {
	mu        sync.Mutex
	envelopes []Envelope
}

// NewCapturingEventSink creates an empty capturing sink.
func NewCapturingEventSink() *CapturingEventSink { return &CapturingEventSink{} }

// Append implements EventSink.Append by recording the envelope.
func (s *CapturingEventSink) Append(_ context.Context, envelope Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes = append(s.envelopes, envelope)
	return nil
}

// Events returns a copy of all captured envelopes in emission order.
func (s *CapturingEventSink) Events() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Envelope, len(s.envelopes))
	copy(out, s.envelopes)
	return out
}

// EventsByType returns captured envelopes matching the given type.
func (s *CapturingEventSink) EventsByType(eventType string) []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Envelope
	for _, e := range s.envelopes {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards all captured envelopes.
func (s *CapturingEventSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes = nil
}
