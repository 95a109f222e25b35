// Package publish implements the final step of the approval workflow:
// relocating an approved item's media to its durable public location and
// marking the item published. The step is idempotent and re-entrant; a
// crash between the media copy and the metadata write resumes cleanly
// because the destination key is deterministic and the copy is a safe
// no-op under replay.
package publish

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/internal/media"
	"github.com/ahrav/go-greenlight/internal/metrics"
	"github.com/ahrav/go-greenlight/internal/store"
	"github.com/ahrav/go-greenlight/pkg/activity"
)

// Error tags mirroring the review package's classification.
const (
	tagValidation = "Validation"
	tagNotFound   = "NotFound"
	tagConflict   = "Conflict"
	tagDependency = "Dependency"
)

// Activities implements the publish step with explicit dependencies.
type Activities struct {
	activity.BaseActivities

	items   store.ItemStore
	media   media.Store
	metrics *metrics.Metrics
	events  *EventEmitter
}

// NewActivities creates publish activities with the provided dependencies.
func NewActivities(
	base activity.BaseActivities,
	items store.ItemStore,
	mediaStore media.Store,
	m *metrics.Metrics,
) *Activities {
	return &Activities{
		BaseActivities: base,
		items:          items,
		media:          mediaStore,
		metrics:        m,
		events:         NewEventEmitter(base),
	}
}

// Publish relocates the item's staging media to its public location and
// marks the item PUBLISHED. Repeated invocations for an already-published
// item return the existing key without touching media storage; the
// underlying copy runs at most once per item under normal operation.
func (a *Activities) Publish(
	ctx context.Context,
	input domain.PublishInput,
) (*domain.PublishResult, error) {
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(tagValidation, err, "invalid publish input")
	}

	item, err := a.items.Get(ctx, input.ItemID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nonRetryable(tagNotFound, err, "item not found")
	}
	if err != nil {
		return nil, retryable(tagDependency, err, "item store unavailable")
	}

	// Idempotent short-circuit: a prior invocation finished the whole step.
	if item.PublishedMediaKey != "" {
		activity.SafeLog(ctx, "Item already published",
			"item_id", item.ID,
			"media_key", item.PublishedMediaKey)
		a.metrics.RecordBenignConflict("publish")
		return &domain.PublishResult{
			ItemID:            item.ID,
			PublishedMediaKey: item.PublishedMediaKey,
			AlreadyPublished:  true,
		}, nil
	}

	if item.Status != domain.StatusApproved {
		return nil, nonRetryable(tagConflict, domain.ErrNotApproved,
			"item must be approved before publication")
	}
	if item.StagingMediaKey == "" {
		return nil, nonRetryable(tagValidation, domain.ErrStagingMissing,
			"item has no staging media key")
	}

	dest, err := a.relocate(ctx, item)
	if err != nil {
		return nil, err
	}

	key := dest
	updated, err := a.items.ConditionalUpdate(ctx, item.ID,
		store.Expect{Statuses: []domain.Status{domain.StatusApproved}},
		store.Patch{
			Status:            domain.StatusPublished,
			PublishedMediaKey: &key,
			MarkPublished:     true,
			ClearToken:        true, // sweep out any stale token remnants
		},
	)
	switch {
	case err == nil:
		// Published.

	case errors.Is(err, store.ErrConditionFailed):
		current := updated
		if current.Status == domain.StatusPublished && current.PublishedMediaKey != "" {
			// A concurrent invocation completed the metadata write.
			a.metrics.RecordBenignConflict("publish")
			return &domain.PublishResult{
				ItemID:            item.ID,
				PublishedMediaKey: current.PublishedMediaKey,
				AlreadyPublished:  true,
			}, nil
		}
		return nil, nonRetryable(tagConflict, domain.ErrNotApproved,
			"item left the approved state before publication")

	case errors.Is(err, store.ErrNotFound):
		return nil, nonRetryable(tagNotFound, err, "item disappeared during publish")

	default:
		return nil, retryable(tagDependency, err, "item store unavailable")
	}

	a.metrics.RecordPublish()

	wfCtx := a.GetWorkflowContext(ctx)
	a.events.EmitItemPublished(ctx, updated, wfCtx)

	activity.SafeLog(ctx, "Item published",
		"item_id", item.ID,
		"media_key", dest)

	return &domain.PublishResult{ItemID: item.ID, PublishedMediaKey: dest}, nil
}

// relocate copies the staging object to its deterministic public location.
// If the destination already exists (crash after copy, before the metadata
// write) the copy is skipped and only the metadata write remains.
func (a *Activities) relocate(ctx context.Context, item domain.Item) (string, error) {
	dest := media.PublishedKey(item.ID, item.StagingMediaKey)

	exists, err := a.media.Exists(ctx, dest)
	if err != nil {
		return "", retryable(tagDependency, err, "media store unavailable")
	}
	if exists {
		activity.SafeLog(ctx, "Published media already present, skipping copy",
			"item_id", item.ID,
			"media_key", dest)
		return dest, nil
	}

	srcExists, err := a.media.Exists(ctx, item.StagingMediaKey)
	if err != nil {
		return "", retryable(tagDependency, err, "media store unavailable")
	}
	if !srcExists {
		return "", nonRetryable(tagNotFound, domain.ErrStagingMissing, "source not found")
	}

	if err := a.media.Copy(ctx, item.StagingMediaKey, dest); err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return "", nonRetryable(tagNotFound, domain.ErrStagingMissing, "source not found")
		}
		return "", retryable(tagDependency, err, "media copy failed")
	}
	return dest, nil
}

// nonRetryable wraps an error as a Temporal non-retryable application error.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}

// retryable wraps an error as a Temporal retryable application error.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationError(msg, tag, cause)
}
