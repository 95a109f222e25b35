package review

import "go.temporal.io/sdk/temporal"

// Error tags used to classify step failures for the orchestrator.
// "Validation", "NotFound", and "Conflict" are non-retryable; "Dependency"
// marks transient store or completer failures the orchestrator may redeliver.
const (
	TagValidation = "Validation"
	TagNotFound   = "NotFound"
	TagConflict   = "Conflict"
	TagDependency = "Dependency"
)

// nonRetryable wraps an error as a Temporal non-retryable application error.
// Used for validation failures, unknown items, and genuine conflicts that a
// redelivery cannot fix.
func nonRetryable(tag string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, tag, cause)
}

// retryable wraps an error as a Temporal retryable application error.
// Used for transient store or completer failures.
func retryable(tag string, cause error, msg string) error {
	return temporal.NewApplicationError(msg, tag, cause)
}
