// Package activity provides common infrastructure for all Temporal activity
// implementations: base types, context extraction, safe logging, and event
// emission utilities shared across the step packages.
package activity

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/ahrav/go-greenlight/pkg/events"
)

// WorkflowContext contains metadata extracted from the Temporal activity
// context. It gives every step a consistent view of the owning execution,
// with fallback values for test scenarios.
type WorkflowContext struct {
	WorkflowID string
	RunID      string
	ActivityID string
}

// BaseActivities provides common infrastructure for all step types.
// It handles event emission, context extraction, and safe logging in a way
// that works both inside Temporal activity contexts and in plain tests.
type BaseActivities struct {
	eventSink events.EventSink
}

// NewBaseActivities creates a BaseActivities with the provided event sink.
// A nil sink disables emission, which is convenient in tests.
func NewBaseActivities(sink events.EventSink) BaseActivities {
	return BaseActivities{eventSink: sink}
}

// GetWorkflowContext safely extracts workflow context from the activity
// context. In a Temporal activity it returns the actual execution details;
// in test contexts (where activity.GetInfo panics) it generates stable test
// identifiers instead.
func (b *BaseActivities) GetWorkflowContext(ctx context.Context) WorkflowContext {
	var wfCtx WorkflowContext

	func() {
		defer func() {
			if r := recover(); r != nil {
				wfCtx.WorkflowID = "test-workflow"
				wfCtx.RunID = "test-run-" + uuid.NewString()[:8]
				wfCtx.ActivityID = "test-activity"
			}
		}()

		info := activity.GetInfo(ctx)
		wfCtx.WorkflowID = info.WorkflowExecution.ID
		wfCtx.RunID = info.WorkflowExecution.RunID
		wfCtx.ActivityID = info.ActivityID
	}()

	return wfCtx
}

// TaskToken safely extracts the opaque Temporal task token for the current
// activity attempt, encoded for storage. In test contexts it mints a random
// token so suspension logic remains exercisable without a server.
func (b *BaseActivities) TaskToken(ctx context.Context) string {
	var token string

	func() {
		defer func() {
			if r := recover(); r != nil {
				token = "test-token-" + uuid.NewString()
			}
		}()

		raw := activity.GetInfo(ctx).TaskToken
		token = base64.StdEncoding.EncodeToString(raw)
	}()

	return token
}

// DecodeTaskToken reverses TaskToken's encoding. Tokens minted in test
// contexts are returned as raw bytes.
func DecodeTaskToken(token string) []byte {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return []byte(token)
	}
	return raw
}

// EmitEventSafe provides best-effort event emission with a short retry.
// Events matter for notifications and audit but their delivery failure must
// never fail the owning step. The method retries once after a brief delay,
// logs the outcome, and swallows errors.
func (b *BaseActivities) EmitEventSafe(
	ctx context.Context,
	envelope events.Envelope,
	description string,
) {
	if b.eventSink == nil {
		return
	}

	const maxAttempts = 2
	const retryDelay = 200 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				SafeLogError(ctx, fmt.Sprintf("Event emission cancelled: %s", description),
					"event_type", envelope.Type)
				return
			}
		}

		if err := b.eventSink.Append(ctx, envelope); err != nil {
			lastErr = err
			continue
		}

		SafeLog(ctx, fmt.Sprintf("Event emitted: %s", description),
			"event_type", envelope.Type,
			"idempotency_key", envelope.IdempotencyKey)
		return
	}

	SafeLogError(ctx, fmt.Sprintf("Failed to emit %s after %d attempts", description, maxAttempts),
		"event_type", envelope.Type,
		"error", lastErr)
}

// SafeLog performs context-safe logging that works in both activity and test
// contexts. In a Temporal activity it uses the activity logger; in tests it
// silently ignores the call to avoid panics.
func SafeLog(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
}

// SafeLogError performs context-safe error logging, the ERROR-level
// counterpart of SafeLog.
func SafeLogError(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.GetLogger(ctx).Error(msg, keyvals...)
}

// RecordHeartbeat safely records an activity heartbeat with details.
// Safe to call in non-activity contexts where it is ignored.
func RecordHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore
		}
	}()
	activity.RecordHeartbeat(ctx, details...)
}
