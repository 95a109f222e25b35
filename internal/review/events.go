package review

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/pkg/activity"
	"github.com/ahrav/go-greenlight/pkg/events"
)

const eventSource = "review-activity"

// EventEmitter handles event emission for the review steps. Delivery is
// best-effort through BaseActivities; failures never fail the owning step.
type EventEmitter struct {
	base activity.BaseActivities
}

// NewEventEmitter creates an EventEmitter with the provided base activities.
func NewEventEmitter(base activity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

// EmitItemPendingReview emits the event announcing that an item entered
// PENDING with a recorded callback token.
func (e *EventEmitter) EmitItemPendingReview(
	ctx context.Context,
	item domain.Item,
	wfCtx activity.WorkflowContext,
) {
	payload, err := json.Marshal(domain.ItemPendingReviewPayload{
		ItemID:      item.ID,
		OwnerID:     item.OwnerID,
		RequestedAt: item.RequestedAt,
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal pending-review event",
			"item_id", item.ID,
			"error", err)
		return
	}

	e.emit(ctx, domain.EventTypeItemPendingReview, item.ID, wfCtx, payload)
}

// EmitItemDecided emits ItemApproved or ItemRejected for a resolved review.
func (e *EventEmitter) EmitItemDecided(
	ctx context.Context,
	item domain.Item,
	input domain.DecideInput,
	wfCtx activity.WorkflowContext,
) {
	payload, err := json.Marshal(domain.ItemDecidedPayload{
		ItemID:    item.ID,
		Decision:  input.Decision,
		Reason:    item.Reason,
		DecidedBy: input.DecidedBy,
		DecidedAt: item.DecidedAt,
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal decision event",
			"item_id", item.ID,
			"error", err)
		return
	}

	eventType := domain.EventTypeItemApproved
	if input.Decision == domain.DecisionReject {
		eventType = domain.EventTypeItemRejected
	}
	e.emit(ctx, eventType, item.ID, wfCtx, payload)
}

// EmitItemExpired emits the event announcing a timed-out review.
func (e *EventEmitter) EmitItemExpired(
	ctx context.Context,
	item domain.Item,
	wfCtx activity.WorkflowContext,
) {
	payload, err := json.Marshal(domain.ItemExpiredPayload{
		ItemID:    item.ID,
		Reason:    item.Reason,
		ExpiredAt: item.DecidedAt,
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal expired event",
			"item_id", item.ID,
			"error", err)
		return
	}

	e.emit(ctx, domain.EventTypeItemExpired, item.ID, wfCtx, payload)
}

func (e *EventEmitter) emit(
	ctx context.Context,
	eventType domain.EventType,
	itemID string,
	wfCtx activity.WorkflowContext,
	payload json.RawMessage,
) {
	envelope := events.Envelope{
		ID:             uuid.NewString(),
		Type:           string(eventType),
		Source:         eventSource,
		Version:        "1.0.0",
		Timestamp:      time.Now().UTC(),
		IdempotencyKey: domain.EventIdempotencyKey(wfCtx.WorkflowID, eventType, itemID),
		ItemID:         itemID,
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}

	e.base.EmitEventSafe(ctx, envelope, string(eventType))
}
