// Package review implements the moderation steps of the approval workflow:
// RequestReview records a callback token and parks the item in PENDING,
// Decide consumes the token to resolve the wait, and Expire reclaims items
// whose pending decision aged out. Every step is stateless and idempotent
// under the orchestrator's at-least-once redelivery; all coordination runs
// through the item store's conditional writes.
package review

import (
	"context"
	"errors"
	"time"

	sdkactivity "go.temporal.io/sdk/activity"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/internal/metrics"
	"github.com/ahrav/go-greenlight/internal/store"
	"github.com/ahrav/go-greenlight/pkg/activity"
)

// DefaultTokenTTL bounds how long a pending decision may remain outstanding
// before Expire may reclaim it.
const DefaultTokenTTL = 24 * time.Hour

// Activities implements the review steps with explicit dependencies.
// Construct one per worker; the zero value is not usable.
type Activities struct {
	activity.BaseActivities

	items     store.ItemStore
	completer WorkflowCompleter
	metrics   *metrics.Metrics
	events    *EventEmitter

	tokenTTL time.Duration
	now      func() time.Time
}

// NewActivities creates review activities with the provided dependencies.
// A nil completer disables orchestrator signaling (store-only mode);
// nil metrics disable instrumentation; ttl <= 0 selects DefaultTokenTTL.
func NewActivities(
	base activity.BaseActivities,
	items store.ItemStore,
	completer WorkflowCompleter,
	m *metrics.Metrics,
	ttl time.Duration,
) *Activities {
	if completer == nil {
		completer = NoOpCompleter{}
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Activities{
		BaseActivities: base,
		items:          items,
		completer:      completer,
		metrics:        m,
		events:         NewEventEmitter(base),
		tokenTTL:       ttl,
		now:            time.Now,
	}
}

// WithClock overrides the activity clock. Test seam.
func (a *Activities) WithClock(now func() time.Time) *Activities {
	a.now = now
	return a
}

// RequestReview transitions an item into PENDING and records the caller's
// freshly minted callback token. A single conditional write enforces that a
// token is never issued over an existing, unexpired one; losing that write
// while the item is still PENDING is reported as a benign duplicate carrying
// the stored token, so redeliveries observe identical results.
func (a *Activities) RequestReview(
	ctx context.Context,
	input domain.RequestReviewInput,
) (*domain.RequestReviewResult, error) {
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(TagValidation, err, "invalid request-review input")
	}

	now := a.now().UTC()
	token := input.CallbackToken
	patch := store.Patch{
		Status:         domain.StatusPending,
		Token:          &token,
		TokenExpiresAt: now.Add(a.tokenTTL),
		MarkRequested:  true,
	}
	if input.StagingMediaKey != "" {
		key := input.StagingMediaKey
		patch.StagingMediaKey = &key
	}

	updated, err := a.items.ConditionalUpdate(ctx, input.ItemID,
		store.Expect{
			Statuses:      []domain.Status{domain.StatusDraft, domain.StatusPending},
			NoActiveToken: true,
		},
		patch,
	)

	switch {
	case err == nil:
		// First entry into PENDING for this token.

	case isNotFound(err):
		return nil, nonRetryable(TagNotFound, err, "item not found")

	case isConditionFailed(err):
		current := updated
		if current.Status == domain.StatusPending && current.TokenActive(now) {
			// At-least-once redelivery while the original token is still
			// live. Report the stored token so replays are byte-identical.
			activity.SafeLog(ctx, "RequestReview duplicate, review already pending",
				"item_id", input.ItemID)
			a.metrics.RecordBenignConflict("request_review")
			return &domain.RequestReviewResult{
				ItemID:    input.ItemID,
				Token:     current.CallbackToken,
				Duplicate: true,
			}, nil
		}
		if current.Status.Terminal() {
			return nil, nonRetryable(TagConflict, domain.ErrAlreadyDecided,
				"item already decided, review must not be re-requested")
		}
		// No valid prior transition explains the observed state.
		activity.SafeLogError(ctx, "RequestReview conflict with inconsistent state",
			"item_id", input.ItemID,
			"status", current.Status.String())
		return nil, nonRetryable(TagConflict, err, "item in unexpected state")

	default:
		return nil, retryable(TagDependency, err, "item store unavailable")
	}

	wfCtx := a.GetWorkflowContext(ctx)
	a.events.EmitItemPendingReview(ctx, updated, wfCtx)

	activity.SafeLog(ctx, "Review requested",
		"item_id", input.ItemID,
		"token_expires_at", updated.CallbackTokenExpiresAt)

	return &domain.RequestReviewResult{ItemID: input.ItemID, Token: token}, nil
}

// AwaitReviewDecision is the suspension point of the approval workflow.
// It records this activity attempt's task token on the item via
// RequestReview and returns ErrResultPending; the execution stays parked
// until Decide completes the token or the schedule-to-close TTL fires.
func (a *Activities) AwaitReviewDecision(
	ctx context.Context,
	input domain.AwaitReviewInput,
) (*domain.DecisionOutcome, error) {
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(TagValidation, err, "invalid await-review input")
	}

	token := domain.CallbackToken(a.TaskToken(ctx))
	result, err := a.RequestReview(ctx, domain.RequestReviewInput{
		ItemID:          input.ItemID,
		CallbackToken:   token,
		StagingMediaKey: input.StagingMediaKey,
	})
	if err != nil {
		return nil, err
	}
	if result.Duplicate && !result.Token.Equal(token) {
		// Another execution already owns the wait; this attempt's token
		// can never be completed, so fail fast instead of parking forever.
		return nil, nonRetryable(TagConflict, domain.ErrAlreadyDecided,
			"another review request is already pending for this item")
	}

	return nil, sdkactivity.ErrResultPending
}

func isNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }

func isConditionFailed(err error) bool { return errors.Is(err, store.ErrConditionFailed) }
