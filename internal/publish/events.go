package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/pkg/activity"
	"github.com/ahrav/go-greenlight/pkg/events"
)

const eventSource = "publish-activity"

// EventEmitter handles event emission for the publish step.
type EventEmitter struct {
	base activity.BaseActivities
}

// NewEventEmitter creates an EventEmitter with the provided base activities.
func NewEventEmitter(base activity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

// EmitItemPublished emits the event announcing that an item's media reached
// its public location.
func (e *EventEmitter) EmitItemPublished(
	ctx context.Context,
	item domain.Item,
	wfCtx activity.WorkflowContext,
) {
	payload, err := json.Marshal(domain.ItemPublishedPayload{
		ItemID:      item.ID,
		MediaKey:    item.PublishedMediaKey,
		PublishedAt: item.PublishedAt,
	})
	if err != nil {
		activity.SafeLogError(ctx, "Failed to marshal published event",
			"item_id", item.ID,
			"error", err)
		return
	}

	envelope := events.Envelope{
		ID:             uuid.NewString(),
		Type:           string(domain.EventTypeItemPublished),
		Source:         eventSource,
		Version:        "1.0.0",
		Timestamp:      time.Now().UTC(),
		IdempotencyKey: domain.EventIdempotencyKey(wfCtx.WorkflowID, domain.EventTypeItemPublished, item.ID),
		ItemID:         item.ID,
		WorkflowID:     wfCtx.WorkflowID,
		RunID:          wfCtx.RunID,
		Payload:        payload,
	}

	e.base.EmitEventSafe(ctx, envelope, string(domain.EventTypeItemPublished))
}
