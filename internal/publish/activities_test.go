package publish

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/internal/media"
	"github.com/ahrav/go-greenlight/internal/store"
	"github.com/ahrav/go-greenlight/pkg/activity"
	"github.com/ahrav/go-greenlight/pkg/events"
)

type testFixture struct {
	acts  *Activities
	items *store.InMemoryItemStore
	media *media.InMemoryStore
	sink  *events.CapturingEventSink
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	items := store.NewInMemoryItemStore()
	mediaStore := media.NewInMemoryStore()
	sink := events.NewCapturingEventSink()
	base := activity.NewBaseActivities(sink)
	return &testFixture{
		acts:  NewActivities(base, items, mediaStore, nil),
		items: items,
		media: mediaStore,
		sink:  sink,
	}
}

func (f *testFixture) seedApproved(t *testing.T, id, stagingKey string) {
	t.Helper()
	require.NoError(t, f.items.Create(context.Background(), domain.Item{
		ID:              id,
		Status:          domain.StatusApproved,
		StagingMediaKey: stagingKey,
		DecidedAt:       time.Now().UTC(),
	}))
	f.media.PutObject(stagingKey, []byte("media bytes"))
}

func TestPublish(t *testing.T) {
	ctx := context.Background()

	t.Run("approved item is published", func(t *testing.T) {
		f := newTestFixture(t)
		f.seedApproved(t, "item-1", "staging/item-1/photo.jpg")

		result, err := f.acts.Publish(ctx, domain.PublishInput{ItemID: "item-1"})
		require.NoError(t, err)
		assert.Equal(t, "published/item-1/photo.jpg", result.PublishedMediaKey)
		assert.False(t, result.AlreadyPublished)

		item, err := f.items.Get(ctx, "item-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPublished, item.Status)
		assert.Equal(t, "published/item-1/photo.jpg", item.PublishedMediaKey)
		assert.False(t, item.PublishedAt.IsZero())

		exists, err := f.media.Exists(ctx, "published/item-1/photo.jpg")
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, 1, f.media.CopyCount())

		published := f.sink.EventsByType(string(domain.EventTypeItemPublished))
		assert.Len(t, published, 1)
	})

	t.Run("replay copies at most once", func(t *testing.T) {
		f := newTestFixture(t)
		f.seedApproved(t, "item-1", "staging/item-1/photo.jpg")

		first, err := f.acts.Publish(ctx, domain.PublishInput{ItemID: "item-1"})
		require.NoError(t, err)

		second, err := f.acts.Publish(ctx, domain.PublishInput{ItemID: "item-1"})
		require.NoError(t, err)
		assert.True(t, second.AlreadyPublished)
		assert.Equal(t, first.PublishedMediaKey, second.PublishedMediaKey)
		assert.Equal(t, 1, f.media.CopyCount(), "redelivery never copies again")

		published := f.sink.EventsByType(string(domain.EventTypeItemPublished))
		assert.Len(t, published, 1, "replay emits no second event")
	})

	t.Run("resume after crash between copy and metadata write", func(t *testing.T) {
		f := newTestFixture(t)
		f.seedApproved(t, "item-1", "staging/item-1/photo.jpg")

		// The destination already holds the media but the record never
		// advanced past APPROVED.
		require.NoError(t, f.media.Copy(ctx, "staging/item-1/photo.jpg", "published/item-1/photo.jpg"))
		require.Equal(t, 1, f.media.CopyCount())

		result, err := f.acts.Publish(ctx, domain.PublishInput{ItemID: "item-1"})
		require.NoError(t, err)
		assert.Equal(t, "published/item-1/photo.jpg", result.PublishedMediaKey)
		assert.Equal(t, 1, f.media.CopyCount(), "resumed publish skips the copy")

		item, err := f.items.Get(ctx, "item-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPublished, item.Status)
	})

	t.Run("pending item cannot be published", func(t *testing.T) {
		f := newTestFixture(t)
		require.NoError(t, f.items.Create(ctx, domain.Item{
			ID:              "item-1",
			Status:          domain.StatusPending,
			StagingMediaKey: "staging/item-1/photo.jpg",
		}))

		_, err := f.acts.Publish(ctx, domain.PublishInput{ItemID: "item-1"})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, tagConflict, appErr.Type())
		assert.True(t, appErr.NonRetryable())
		assert.Equal(t, 0, f.media.CopyCount(), "nothing is copied for unapproved items")
	})

	t.Run("rejected item cannot be published", func(t *testing.T) {
		f := newTestFixture(t)
		require.NoError(t, f.items.Create(ctx, domain.Item{
			ID:     "item-1",
			Status: domain.StatusRejected,
			Reason: "not acceptable",
		}))

		_, err := f.acts.Publish(ctx, domain.PublishInput{ItemID: "item-1"})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.True(t, appErr.NonRetryable())
	})

	t.Run("missing staging media key", func(t *testing.T) {
		f := newTestFixture(t)
		require.NoError(t, f.items.Create(ctx, domain.Item{
			ID:     "item-1",
			Status: domain.StatusApproved,
		}))

		_, err := f.acts.Publish(ctx, domain.PublishInput{ItemID: "item-1"})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, tagValidation, appErr.Type())
	})

	t.Run("missing staging object", func(t *testing.T) {
		f := newTestFixture(t)
		require.NoError(t, f.items.Create(ctx, domain.Item{
			ID:              "item-1",
			Status:          domain.StatusApproved,
			StagingMediaKey: "staging/item-1/gone.jpg",
		}))

		_, err := f.acts.Publish(ctx, domain.PublishInput{ItemID: "item-1"})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, tagNotFound, appErr.Type())

		item, err := f.items.Get(ctx, "item-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, item.Status, "record is untouched")
	})

	t.Run("missing item", func(t *testing.T) {
		f := newTestFixture(t)

		_, err := f.acts.Publish(ctx, domain.PublishInput{ItemID: "missing"})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, tagNotFound, appErr.Type())
	})

	t.Run("invalid input", func(t *testing.T) {
		f := newTestFixture(t)

		_, err := f.acts.Publish(ctx, domain.PublishInput{})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, tagValidation, appErr.Type())
	})
}
