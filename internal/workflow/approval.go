package workflow

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ahrav/go-greenlight/internal/domain"
	"github.com/ahrav/go-greenlight/internal/review"
)

// Activity registration names. The worker registers each activity method
// under its method name; workflows reference them by these constants so the
// workflow package needs no activity instances.
const (
	ActivityAwaitReviewDecision = "AwaitReviewDecision"
	ActivityExpire              = "Expire"
	ActivityPublish             = "Publish"
)

// ItemApprovalWorkflow carries one item from review request to its terminal
// state. The human wait is a single asynchronously completed activity
// bounded by the callback-token TTL: Decide resumes it through the stored
// token, and the TTL firing routes to Expire. Only an approval proceeds to
// Publish.
func ItemApprovalWorkflow(
	ctx workflow.Context,
	req domain.ApprovalRequest,
) (*domain.ApprovalVerdict, error) {
	// Version gate enables safe evolution and backward compatibility.
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "approval.v", workflow.DefaultVersion, currentVersion)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid approval request",
			"Validation",
			err,
		)
	}

	ttl := time.Duration(req.TokenTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = review.DefaultTokenTTL
	}

	// The wait runs as exactly one attempt: a retry would mint a second
	// task token while the first is still recorded on the item, and the
	// conditional write forbids overwriting an unexpired token.
	awaitCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout:    ttl,
		ScheduleToCloseTimeout: ttl,
		RetryPolicy:            &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	stepCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    5,
		},
	})

	var outcome domain.DecisionOutcome
	err := workflow.ExecuteActivity(awaitCtx, ActivityAwaitReviewDecision, domain.AwaitReviewInput{
		ItemID:          req.ItemID,
		StagingMediaKey: req.StagingMediaKey,
	}).Get(ctx, &outcome)

	if err != nil {
		var timeoutErr *temporal.TimeoutError
		if !errors.As(err, &timeoutErr) {
			return nil, err
		}

		// No decision landed inside the TTL; reclaim the pending record.
		var expired domain.ExpireResult
		expireErr := workflow.ExecuteActivity(stepCtx, ActivityExpire, domain.ExpireInput{
			ItemID: req.ItemID,
		}).Get(ctx, &expired)
		if expireErr != nil {
			return nil, expireErr
		}

		return &domain.ApprovalVerdict{
			ItemID: req.ItemID,
			Status: domain.StatusExpired,
			Reason: domain.ReasonExpired,
		}, nil
	}

	if !outcome.Approved {
		return &domain.ApprovalVerdict{
			ItemID: req.ItemID,
			Status: domain.StatusRejected,
			Reason: outcome.Reason,
		}, nil
	}

	var published domain.PublishResult
	err = workflow.ExecuteActivity(stepCtx, ActivityPublish, domain.PublishInput{
		ItemID: req.ItemID,
	}).Get(ctx, &published)
	if err != nil {
		return nil, err
	}

	return &domain.ApprovalVerdict{
		ItemID:            req.ItemID,
		Status:            domain.StatusPublished,
		PublishedMediaKey: published.PublishedMediaKey,
	}, nil
}
