package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-greenlight/internal/domain"
)

func TestRequestReview(t *testing.T) {
	ctx := context.Background()

	t.Run("first request parks item in pending", func(t *testing.T) {
		f := newTestFixture(t)
		f.seedDraft(t, "item-1")
		token := domain.MintCallbackToken()

		result, err := f.acts.RequestReview(ctx, domain.RequestReviewInput{
			ItemID:        "item-1",
			CallbackToken: token,
		})
		require.NoError(t, err)
		assert.Equal(t, token, result.Token)
		assert.False(t, result.Duplicate)

		item, err := f.items.Get(ctx, "item-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, item.Status)
		assert.Equal(t, token, item.CallbackToken)
		assert.True(t, item.CallbackTokenExpiresAt.After(time.Now()))
		assert.False(t, item.RequestedAt.IsZero())

		pending := f.sink.EventsByType(string(domain.EventTypeItemPendingReview))
		require.Len(t, pending, 1)
		assert.Equal(t, "item-1", pending[0].ItemID)
	})

	t.Run("redelivery returns stored token as duplicate", func(t *testing.T) {
		f := newTestFixture(t)
		f.seedDraft(t, "item-1")
		first := domain.MintCallbackToken()

		_, err := f.acts.RequestReview(ctx, domain.RequestReviewInput{
			ItemID:        "item-1",
			CallbackToken: first,
		})
		require.NoError(t, err)

		second := domain.MintCallbackToken()
		result, err := f.acts.RequestReview(ctx, domain.RequestReviewInput{
			ItemID:        "item-1",
			CallbackToken: second,
		})
		require.NoError(t, err)
		assert.True(t, result.Duplicate)
		assert.Equal(t, first, result.Token, "stored token wins, submitted one is discarded")

		item, err := f.items.Get(ctx, "item-1")
		require.NoError(t, err)
		assert.Equal(t, first, item.CallbackToken, "a token is never overwritten while live")

		pending := f.sink.EventsByType(string(domain.EventTypeItemPendingReview))
		assert.Len(t, pending, 1, "duplicate emits no second event")
	})

	t.Run("expired token is replaced", func(t *testing.T) {
		f := newTestFixture(t)
		stale := domain.MintCallbackToken()
		require.NoError(t, f.items.Create(ctx, domain.Item{
			ID:                     "item-1",
			Status:                 domain.StatusPending,
			CallbackToken:          stale,
			CallbackTokenExpiresAt: time.Now().Add(-time.Minute),
		}))

		fresh := domain.MintCallbackToken()
		result, err := f.acts.RequestReview(ctx, domain.RequestReviewInput{
			ItemID:        "item-1",
			CallbackToken: fresh,
		})
		require.NoError(t, err)
		assert.False(t, result.Duplicate)
		assert.Equal(t, fresh, result.Token)
	})

	t.Run("already decided item rejects re-request", func(t *testing.T) {
		f := newTestFixture(t)
		require.NoError(t, f.items.Create(ctx, domain.Item{
			ID:     "item-1",
			Status: domain.StatusRejected,
		}))

		_, err := f.acts.RequestReview(ctx, domain.RequestReviewInput{
			ItemID:        "item-1",
			CallbackToken: domain.MintCallbackToken(),
		})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, TagConflict, appErr.Type())
		assert.True(t, appErr.NonRetryable())
	})

	t.Run("missing item", func(t *testing.T) {
		f := newTestFixture(t)

		_, err := f.acts.RequestReview(ctx, domain.RequestReviewInput{
			ItemID:        "missing",
			CallbackToken: domain.MintCallbackToken(),
		})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, TagNotFound, appErr.Type())
		assert.True(t, appErr.NonRetryable())
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newTestFixture(t)

		_, err := f.acts.RequestReview(ctx, domain.RequestReviewInput{ItemID: "item-1"})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, TagValidation, appErr.Type())
	})

	t.Run("staging key override is recorded", func(t *testing.T) {
		f := newTestFixture(t)
		f.seedDraft(t, "item-1")

		_, err := f.acts.RequestReview(ctx, domain.RequestReviewInput{
			ItemID:          "item-1",
			CallbackToken:   domain.MintCallbackToken(),
			StagingMediaKey: "staging/item-1/reencoded.mp4",
		})
		require.NoError(t, err)

		item, err := f.items.Get(ctx, "item-1")
		require.NoError(t, err)
		assert.Equal(t, "staging/item-1/reencoded.mp4", item.StagingMediaKey)
	})
}

func TestAwaitReviewDecision(t *testing.T) {
	ctx := context.Background()

	t.Run("parks the activity pending completion", func(t *testing.T) {
		f := newTestFixture(t)
		f.seedDraft(t, "item-1")

		outcome, err := f.acts.AwaitReviewDecision(ctx, domain.AwaitReviewInput{ItemID: "item-1"})
		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, sdkactivity.ErrResultPending)

		item, err := f.items.Get(ctx, "item-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, item.Status)
		assert.False(t, item.CallbackToken.IsZero())
	})

	t.Run("second execution for the same item fails fast", func(t *testing.T) {
		f := newTestFixture(t)
		f.seedDraft(t, "item-1")

		_, err := f.acts.AwaitReviewDecision(ctx, domain.AwaitReviewInput{ItemID: "item-1"})
		require.ErrorIs(t, err, sdkactivity.ErrResultPending)

		// A second attempt mints a different task token and must not park.
		_, err = f.acts.AwaitReviewDecision(ctx, domain.AwaitReviewInput{ItemID: "item-1"})
		require.Error(t, err)
		require.NotErrorIs(t, err, sdkactivity.ErrResultPending)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, TagConflict, appErr.Type())
		assert.True(t, appErr.NonRetryable())
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newTestFixture(t)

		_, err := f.acts.AwaitReviewDecision(ctx, domain.AwaitReviewInput{})
		require.Error(t, err)
		require.NotErrorIs(t, err, sdkactivity.ErrResultPending)
	})
}
