package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-greenlight/internal/domain"
)

func TestDecide_Approve(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t)
	token := f.seedPending(t, "item-1")

	result, err := f.acts.Decide(ctx, domain.DecideInput{
		CallbackToken: token,
		ItemID:        "item-1",
		Decision:      domain.DecisionApprove,
		DecidedBy:     "reviewer-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, result.Status)
	assert.False(t, result.Idempotent)

	item, err := f.items.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, item.Status)
	assert.True(t, item.CallbackToken.IsZero(), "token is consumed")
	assert.False(t, item.DecidedAt.IsZero())

	completions := f.completer.Completions()
	require.Len(t, completions, 1)
	assert.Equal(t, token, completions[0].token)
	assert.True(t, completions[0].outcome.Approved)

	approved := f.sink.EventsByType(string(domain.EventTypeItemApproved))
	assert.Len(t, approved, 1)
}

func TestDecide_RejectRecordsReason(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t)
	token := f.seedPending(t, "item-1")

	result, err := f.acts.Decide(ctx, domain.DecideInput{
		CallbackToken: token,
		Decision:      domain.DecisionReject,
		Reason:        "contains prohibited content",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, result.Status)

	item, err := f.items.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, item.Status)
	assert.Equal(t, "contains prohibited content", item.Reason)

	completions := f.completer.Completions()
	require.Len(t, completions, 1)
	assert.False(t, completions[0].outcome.Approved)
	assert.Equal(t, "contains prohibited content", completions[0].outcome.Reason)

	rejected := f.sink.EventsByType(string(domain.EventTypeItemRejected))
	assert.Len(t, rejected, 1)
}

func TestDecide_RejectWithoutReason(t *testing.T) {
	f := newTestFixture(t)
	token := f.seedPending(t, "item-1")

	_, err := f.acts.Decide(context.Background(), domain.DecideInput{
		CallbackToken: token,
		Decision:      domain.DecisionReject,
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, TagValidation, appErr.Type())
	assert.True(t, appErr.NonRetryable())

	item, err := f.items.Get(context.Background(), "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, item.Status, "invalid input leaves the item untouched")
}

func TestDecide_ReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t)
	token := f.seedPending(t, "item-1")

	input := domain.DecideInput{
		CallbackToken: token,
		ItemID:        "item-1",
		Decision:      domain.DecisionApprove,
	}

	first, err := f.acts.Decide(ctx, input)
	require.NoError(t, err)
	require.False(t, first.Idempotent)

	// At-least-once redelivery of the identical decision.
	second, err := f.acts.Decide(ctx, input)
	require.NoError(t, err)
	assert.True(t, second.Idempotent)
	assert.Equal(t, domain.StatusApproved, second.Status)

	assert.Len(t, f.completer.Completions(), 1, "the orchestrator is signaled exactly once")
}

func TestDecide_ReplayByTokenOnly(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t)
	token := f.seedPending(t, "item-1")

	_, err := f.acts.Decide(ctx, domain.DecideInput{
		CallbackToken: token,
		Decision:      domain.DecisionApprove,
	})
	require.NoError(t, err)

	// The consumed token no longer resolves to any record; the replay is
	// still reported as success.
	result, err := f.acts.Decide(ctx, domain.DecideInput{
		CallbackToken: token,
		Decision:      domain.DecisionApprove,
	})
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
}

func TestDecide_TokenMismatch(t *testing.T) {
	f := newTestFixture(t)
	f.seedPending(t, "item-1")

	_, err := f.acts.Decide(context.Background(), domain.DecideInput{
		CallbackToken: domain.MintCallbackToken(),
		ItemID:        "item-1",
		Decision:      domain.DecisionApprove,
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, TagConflict, appErr.Type())
	assert.True(t, appErr.NonRetryable())
	assert.Empty(t, f.completer.Completions(), "a mismatched token never signals")
}

func TestDecide_AfterExpiry(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t)
	token := f.seedPending(t, "item-1")

	expired, err := f.acts.Expire(ctx, domain.ExpireInput{ItemID: "item-1"})
	require.NoError(t, err)
	require.True(t, expired.Expired)

	// The reviewer's decision arrives after the timeout already resolved
	// the item. The late decision is a benign no-op.
	result, err := f.acts.Decide(ctx, domain.DecideInput{
		CallbackToken: token,
		ItemID:        "item-1",
		Decision:      domain.DecisionApprove,
	})
	require.NoError(t, err)
	assert.True(t, result.Idempotent)
	assert.Equal(t, domain.StatusExpired, result.Status)

	item, err := f.items.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, item.Status, "the expiry outcome stands")
	assert.Empty(t, f.completer.Completions())
}

func TestDecide_CompleterFailureBlocksWrite(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t)
	token := f.seedPending(t, "item-1")
	f.completer.completeErr = errors.New("frontend unavailable")

	_, err := f.acts.Decide(ctx, domain.DecideInput{
		CallbackToken: token,
		ItemID:        "item-1",
		Decision:      domain.DecisionApprove,
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, TagDependency, appErr.Type())
	assert.False(t, appErr.NonRetryable(), "transient signal failures are retryable")

	item, err := f.items.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, item.Status,
		"the store is not touched until the orchestrator is signaled")
	assert.Equal(t, token, item.CallbackToken)
}

func TestDecide_ClosedTokenStillWrites(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t)
	token := f.seedPending(t, "item-1")
	f.completer.completeErr = errors.New("workflow execution already completed")

	result, err := f.acts.Decide(ctx, domain.DecideInput{
		CallbackToken: token,
		ItemID:        "item-1",
		Decision:      domain.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, result.Status)

	item, err := f.items.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, item.Status,
		"the store remains the source of truth when the wait is already gone")
}

func TestDecide_MissingItem(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.acts.Decide(context.Background(), domain.DecideInput{
		CallbackToken: domain.MintCallbackToken(),
		ItemID:        "missing",
		Decision:      domain.DecisionApprove,
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, TagNotFound, appErr.Type())
}
