// Package events provides the generic event infrastructure for domain event
// emission. It defines the Envelope type for wrapping domain events with
// consistent metadata and the EventSink interface for event delivery.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Envelope wraps domain events with consistent metadata for reliable event
// processing. It is a generic container for any domain-specific payload
// while keeping standard fields for routing, idempotency, and correlation.
type Envelope struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type identifies the event for routing and processing.
	// Examples: "ItemPendingReview", "ItemPublished".
	Type string `json:"type"`

	// Source identifies the component that emitted this event.
	// Examples: "review-activity", "publish-activity".
	Source string `json:"source"`

	// Version enables schema evolution and backward compatibility.
	Version string `json:"version"`

	// Timestamp records when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey deduplicates events emitted by redelivered steps.
	// Generated deterministically from workflow context and event content.
	IdempotencyKey string `json:"idempotency_key"`

	// ItemID correlates the event with the moderated item.
	ItemID string `json:"item_id"`

	// WorkflowID identifies the workflow execution that triggered this event.
	WorkflowID string `json:"workflow_id"`

	// RunID identifies the specific workflow execution run.
	RunID string `json:"run_id"`

	// Payload contains the domain-specific event data as JSON.
	Payload json.RawMessage `json:"payload"`
}

// EventSink defines the interface for emitting events to downstream
// consumers: notifiers, audit logs, projections.
//
// Implementations must be failure-tolerant: delivery errors never fail the
// step that owns the emission. Implementations should treat duplicate
// idempotency keys as no-ops and return quickly.
type EventSink interface {
	// Append adds an event to the sink with best-effort delivery.
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink is a null implementation of EventSink for testing or when
// events are disabled. All Append calls succeed immediately.
type NoOpEventSink struct{}

// Append implements EventSink.Append with no-op behavior.
func (n *NoOpEventSink) Append(_ context.Context, _ Envelope) error { return nil }

// NewNoOpEventSink creates a new no-op event sink.
func NewNoOpEventSink() EventSink { return &NoOpEventSink{} }
