package review

import (
	"context"
	"errors"
	"strings"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-greenlight/internal/domain"
	pkgactivity "github.com/ahrav/go-greenlight/pkg/activity"
)

// WorkflowCompleter resumes the suspended workflow execution associated with
// a callback token. Decide delivers the reviewer's outcome through it;
// the expiry sweep fails the wait so orphaned executions unwind promptly.
//
// Implementations must guarantee at most one successful completion per
// token; callers never re-signal after a success.
type WorkflowCompleter interface {
	// Complete resumes the execution holding token with the given outcome.
	Complete(ctx context.Context, token domain.CallbackToken, outcome domain.DecisionOutcome) error

	// Fail resumes the execution holding token with a failure cause.
	Fail(ctx context.Context, token domain.CallbackToken, reason string) error
}

// TemporalCompleter completes suspended activities through a Temporal client.
type TemporalCompleter struct {
	client client.Client
}

// NewTemporalCompleter creates a completer backed by the given client.
func NewTemporalCompleter(c client.Client) *TemporalCompleter {
	return &TemporalCompleter{client: c}
}

// Complete implements WorkflowCompleter.Complete.
func (c *TemporalCompleter) Complete(
	ctx context.Context,
	token domain.CallbackToken,
	outcome domain.DecisionOutcome,
) error {
	return c.client.CompleteActivity(ctx, pkgactivity.DecodeTaskToken(string(token)), outcome, nil)
}

// Fail implements WorkflowCompleter.Fail.
func (c *TemporalCompleter) Fail(ctx context.Context, token domain.CallbackToken, reason string) error {
	cause := temporal.NewApplicationError(reason, TagConflict, nil)
	return c.client.CompleteActivity(ctx, pkgactivity.DecodeTaskToken(string(token)), nil, cause)
}

// IsTokenClosed reports whether a completer error means the token's
// execution is already gone: completed, timed out, or never known. Such
// errors are benign for callers that also perform the race-safe conditional
// write, because the store remains the source of truth.
func IsTokenClosed(err error) bool {
	if err == nil {
		return false
	}
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid token") ||
		strings.Contains(msg, "task not found") ||
		strings.Contains(msg, "already completed") ||
		strings.Contains(msg, "workflow execution already completed") ||
		strings.Contains(msg, "timed out")
}

// NoOpCompleter discards completion signals. Used when steps run outside an
// orchestrated workflow, e.g. store-only tooling and tests.
type NoOpCompleter struct{}

// Complete implements WorkflowCompleter.Complete with no-op behavior.
func (NoOpCompleter) Complete(context.Context, domain.CallbackToken, domain.DecisionOutcome) error {
	return nil
}

// Fail implements WorkflowCompleter.Fail with no-op behavior.
func (NoOpCompleter) Fail(context.Context, domain.CallbackToken, string) error { return nil }
