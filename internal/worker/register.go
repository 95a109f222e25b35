package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-greenlight/internal/media"
	"github.com/ahrav/go-greenlight/internal/metrics"
	"github.com/ahrav/go-greenlight/internal/publish"
	"github.com/ahrav/go-greenlight/internal/review"
	"github.com/ahrav/go-greenlight/internal/store"
	"github.com/ahrav/go-greenlight/internal/workflow"
	"github.com/ahrav/go-greenlight/pkg/activity"
	"github.com/ahrav/go-greenlight/pkg/events"
)

// Dependencies bundles the shared infrastructure handed to RegisterAll.
// Completer may be nil when the worker runs without a Temporal client
// (store-only tooling); Metrics may be nil to disable instrumentation.
type Dependencies struct {
	Items     store.ItemStore
	Media     media.Store
	Completer review.WorkflowCompleter
	Metrics   *metrics.Metrics
	Config    Config
}

// NewMetrics registers workflow metrics on the given registerer.
// A nil registerer disables metrics.
func NewMetrics(reg prometheus.Registerer) *metrics.Metrics {
	if reg == nil {
		return nil
	}
	return metrics.MustNew(reg)
}

// RegisterAll registers all workflows and activities with the Temporal worker.
// This function must be called during worker initialization before starting
// the worker. The registration is not thread-safe and should only be called
// once during application startup.
//
// When the item store supports audit persistence, emitted events are mirrored
// into its audit log; otherwise events are dropped.
func RegisterAll(w sdkworker.Worker, deps Dependencies) {
	var sink events.EventSink = events.NewNoOpEventSink()
	if log, ok := deps.Items.(store.AuditLog); ok {
		sink = store.NewAuditSink(log)
	}

	base := activity.NewBaseActivities(sink)

	reviewActivities := review.NewActivities(
		base, deps.Items, deps.Completer, deps.Metrics, deps.Config.TokenTTL)
	publishActivities := publish.NewActivities(
		base, deps.Items, deps.Media, deps.Metrics)

	// Register workflow.
	w.RegisterWorkflow(workflow.ItemApprovalWorkflow)

	// Register activities from each step package.
	w.RegisterActivity(reviewActivities.AwaitReviewDecision)
	w.RegisterActivity(reviewActivities.RequestReview)
	w.RegisterActivity(reviewActivities.Decide)
	w.RegisterActivity(reviewActivities.Expire)
	w.RegisterActivity(reviewActivities.ExpireStale)
	w.RegisterActivity(publishActivities.Publish)
}
