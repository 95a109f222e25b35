package activity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-greenlight/pkg/events"
)

// flakySink fails the first n appends, then succeeds.
type flakySink struct {
	mu       sync.Mutex
	failures int
	appended []events.Envelope
}

func (s *flakySink) Append(_ context.Context, envelope events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("sink unavailable")
	}
	s.appended = append(s.appended, envelope)
	return nil
}

func TestGetWorkflowContext_FallbackOutsideActivity(t *testing.T) {
	base := NewBaseActivities(nil)

	wfCtx := base.GetWorkflowContext(context.Background())
	assert.Equal(t, "test-workflow", wfCtx.WorkflowID)
	assert.True(t, strings.HasPrefix(wfCtx.RunID, "test-run-"))
	assert.Equal(t, "test-activity", wfCtx.ActivityID)
}

func TestTaskToken_FallbackOutsideActivity(t *testing.T) {
	base := NewBaseActivities(nil)

	a := base.TaskToken(context.Background())
	b := base.TaskToken(context.Background())
	require.True(t, strings.HasPrefix(a, "test-token-"))
	assert.NotEqual(t, a, b, "each attempt gets a unique token")
}

func TestDecodeTaskToken(t *testing.T) {
	t.Run("round trips base64", func(t *testing.T) {
		raw := []byte{0x01, 0x02, 0xff}
		encoded := "AQL/"
		assert.Equal(t, raw, DecodeTaskToken(encoded))
	})

	t.Run("test tokens pass through", func(t *testing.T) {
		token := "test-token-not-base64!"
		assert.Equal(t, []byte(token), DecodeTaskToken(token))
	})
}

func TestEmitEventSafe(t *testing.T) {
	ctx := context.Background()
	envelope := events.Envelope{ID: "1", Type: "ItemApproved", ItemID: "item-1"}

	t.Run("delivers to the sink", func(t *testing.T) {
		sink := events.NewCapturingEventSink()
		base := NewBaseActivities(sink)

		base.EmitEventSafe(ctx, envelope, "test event")
		assert.Len(t, sink.Events(), 1)
	})

	t.Run("retries one failure", func(t *testing.T) {
		sink := &flakySink{failures: 1}
		base := NewBaseActivities(sink)

		base.EmitEventSafe(ctx, envelope, "test event")
		assert.Len(t, sink.appended, 1)
	})

	t.Run("swallows persistent failure", func(t *testing.T) {
		sink := &flakySink{failures: 10}
		base := NewBaseActivities(sink)

		// Must not panic or error; emission is best-effort.
		base.EmitEventSafe(ctx, envelope, "test event")
		assert.Empty(t, sink.appended)
	})

	t.Run("nil sink is a no-op", func(t *testing.T) {
		base := NewBaseActivities(nil)
		base.EmitEventSafe(ctx, envelope, "test event")
	})
}

func TestSafeLog_OutsideActivityContext(t *testing.T) {
	// Must not panic outside a Temporal activity.
	SafeLog(context.Background(), "message", "key", "value")
	SafeLogError(context.Background(), "message", "key", "value")
	RecordHeartbeat(context.Background(), "detail")
}
