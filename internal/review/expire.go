package review

import (
	"context"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/internal/store"
	"github.com/ahrav/go-greenlight/pkg/activity"
)

// DefaultSweepLimit caps how many stale records one sweep pass reclaims.
const DefaultSweepLimit = 25

// Expire reclaims an item whose pending decision aged out. The conditional
// write requires only status == PENDING, ignoring the stored token: any
// pending decision that reached this step is eligible. If Decide already
// resolved the item the write fails harmlessly and the call reports an
// idempotent no-op. A missing item is likewise a no-op, since expiration is
// a best-effort reclamation.
func (a *Activities) Expire(
	ctx context.Context,
	input domain.ExpireInput,
) (*domain.ExpireResult, error) {
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(TagValidation, err, "invalid expire input")
	}

	reason := domain.ReasonExpired
	updated, err := a.items.ConditionalUpdate(ctx, input.ItemID,
		store.Expect{Statuses: []domain.Status{domain.StatusPending}},
		store.Patch{
			Status:      domain.StatusExpired,
			ClearToken:  true,
			MarkDecided: true,
			Reason:      &reason,
		},
	)
	switch {
	case err == nil:
		// Reclaimed.

	case isConditionFailed(err):
		activity.SafeLog(ctx, "Expire found item already resolved",
			"item_id", input.ItemID,
			"observed_status", updated.Status.String())
		a.metrics.RecordBenignConflict("expire")
		return &domain.ExpireResult{ItemID: input.ItemID}, nil

	case isNotFound(err):
		activity.SafeLog(ctx, "Expire found no item, treating as resolved",
			"item_id", input.ItemID)
		return &domain.ExpireResult{ItemID: input.ItemID}, nil

	default:
		return nil, retryable(TagDependency, err, "item store unavailable")
	}

	a.metrics.RecordExpiration()
	a.metrics.RecordDecision(string(domain.StatusExpired), updated.RequestedAt, updated.DecidedAt)

	wfCtx := a.GetWorkflowContext(ctx)
	a.events.EmitItemExpired(ctx, updated, wfCtx)

	activity.SafeLog(ctx, "Pending review expired", "item_id", input.ItemID)

	return &domain.ExpireResult{ItemID: input.ItemID, Expired: true}, nil
}

// ExpireStale sweeps the store for PENDING items whose callback token TTL
// elapsed and expires each one. Before the conditional write it fails the
// suspended execution holding the token so orphaned workflows unwind
// promptly; closed tokens are tolerated. Per-item conflicts and errors are
// counted, never fatal to the sweep.
func (a *Activities) ExpireStale(
	ctx context.Context,
	input domain.ExpireStaleInput,
) (*domain.ExpireStaleResult, error) {
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(TagValidation, err, "invalid expire-stale input")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSweepLimit
	}

	stale, err := a.items.ListStalePending(ctx, a.now().UTC(), limit)
	if err != nil {
		return nil, retryable(TagDependency, err, "item store unavailable")
	}

	result := &domain.ExpireStaleResult{Scanned: len(stale)}
	for i, item := range stale {
		activity.RecordHeartbeat(ctx, "expiring", i+1, len(stale))

		if !item.CallbackToken.IsZero() {
			if err := a.completer.Fail(ctx, item.CallbackToken, domain.ReasonExpired); err != nil {
				if !IsTokenClosed(err) {
					activity.SafeLogError(ctx, "Failed to fail suspended execution, expiring anyway",
						"item_id", item.ID,
						"error", err)
					result.Errors++
				}
			}
		}

		expired, err := a.Expire(ctx, domain.ExpireInput{ItemID: item.ID})
		if err != nil {
			activity.SafeLogError(ctx, "Sweep failed to expire item",
				"item_id", item.ID,
				"error", err)
			result.Errors++
			continue
		}
		if expired.Expired {
			result.Expired++
		} else {
			result.Skipped++
		}
	}

	activity.SafeLog(ctx, "Expire sweep finished",
		"scanned", result.Scanned,
		"expired", result.Expired,
		"skipped", result.Skipped,
		"errors", result.Errors)

	return result, nil
}
