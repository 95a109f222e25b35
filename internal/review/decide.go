package review

import (
	"context"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/internal/store"
	"github.com/ahrav/go-greenlight/pkg/activity"
)

// Decide consumes a callback token to resolve a pending review. It signals
// the suspended orchestrator execution first, then performs the race-safe
// conditional write; the store remains the source of truth when the two
// disagree. A replayed Decide finds no matching PENDING record and reports
// an idempotent no-op instead of erroring or double-signaling.
func (a *Activities) Decide(
	ctx context.Context,
	input domain.DecideInput,
) (*domain.DecideResult, error) {
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(TagValidation, err, "invalid decide input")
	}

	item, res, err := a.locatePending(ctx, input)
	if err != nil || res != nil {
		return res, err
	}

	outcome := domain.DecisionOutcome{
		Approved: input.Decision == domain.DecisionApprove,
		Reason:   input.Reason,
	}

	// Resume the orchestrator before touching the store, and never again
	// after a successful signal: redelivery after a store failure hits the
	// closed-token branch below instead of double-completing upstream.
	if err := a.completer.Complete(ctx, input.CallbackToken, outcome); err != nil {
		if !IsTokenClosed(err) {
			return nil, retryable(TagDependency, err, "failed to signal workflow completion")
		}
		activity.SafeLog(ctx, "Callback token already closed, continuing with store update",
			"item_id", item.ID)
	}

	token := input.CallbackToken
	reason := input.Reason
	updated, err := a.items.ConditionalUpdate(ctx, item.ID,
		store.Expect{
			Statuses: []domain.Status{domain.StatusPending},
			Token:    &token,
		},
		store.Patch{
			Status:     input.Decision.Status(),
			ClearToken: true,
			MarkDecided: true,
			Reason:     &reason,
		},
	)
	switch {
	case err == nil:
		// Decision landed.

	case isConditionFailed(err):
		// Lost the race to Expire or a concurrent Decide. The intended
		// transition is already complete from the orchestrator's view.
		activity.SafeLog(ctx, "Decide lost conditional write, treating as already decided",
			"item_id", item.ID,
			"observed_status", updated.Status.String())
		a.metrics.RecordBenignConflict("decide")
		return &domain.DecideResult{ItemID: item.ID, Status: updated.Status, Idempotent: true}, nil

	case isNotFound(err):
		return nil, nonRetryable(TagNotFound, err, "item disappeared during decide")

	default:
		return nil, retryable(TagDependency, err, "item store unavailable")
	}

	a.metrics.RecordDecision(string(updated.Status), updated.RequestedAt, updated.DecidedAt)

	wfCtx := a.GetWorkflowContext(ctx)
	a.events.EmitItemDecided(ctx, updated, input, wfCtx)

	activity.SafeLog(ctx, "Review decided",
		"item_id", item.ID,
		"decision", string(input.Decision),
		"decided_by", input.DecidedBy)

	return &domain.DecideResult{ItemID: item.ID, Status: updated.Status}, nil
}

// locatePending finds the PENDING record a decision targets. It returns a
// non-nil result when the call is a benign replay that requires no further
// work, and an error when the decision cannot proceed.
func (a *Activities) locatePending(
	ctx context.Context,
	input domain.DecideInput,
) (domain.Item, *domain.DecideResult, error) {
	if input.ItemID != "" {
		item, err := a.items.Get(ctx, input.ItemID)
		if isNotFound(err) {
			return domain.Item{}, nil, nonRetryable(TagNotFound, err, "item not found")
		}
		if err != nil {
			return domain.Item{}, nil, retryable(TagDependency, err, "item store unavailable")
		}
		if item.Status != domain.StatusPending {
			a.metrics.RecordBenignConflict("decide")
			return domain.Item{}, &domain.DecideResult{
				ItemID:     item.ID,
				Status:     item.Status,
				Idempotent: true,
			}, nil
		}
		if !item.CallbackToken.Equal(input.CallbackToken) {
			return domain.Item{}, nil, nonRetryable(TagConflict, domain.ErrTokenNotFound,
				"callback token does not match the pending review")
		}
		return item, nil, nil
	}

	item, err := a.items.GetByToken(ctx, input.CallbackToken)
	if isNotFound(err) {
		// The token was already consumed by a prior Decide or Expire.
		// Replays report success, not an error.
		activity.SafeLog(ctx, "Decide found no pending record for token, already decided")
		a.metrics.RecordBenignConflict("decide")
		return domain.Item{}, &domain.DecideResult{Idempotent: true}, nil
	}
	if err != nil {
		return domain.Item{}, nil, retryable(TagDependency, err, "item store unavailable")
	}
	if item.Status != domain.StatusPending {
		a.metrics.RecordBenignConflict("decide")
		return domain.Item{}, &domain.DecideResult{
			ItemID:     item.ID,
			Status:     item.Status,
			Idempotent: true,
		}, nil
	}
	return item, nil, nil
}
