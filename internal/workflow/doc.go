// Package workflow orchestrates the item approval lifecycle as a Temporal
// workflow: request review, suspend on the human decision, then publish,
// reject, or expire. All workflow code is deterministic and uses
// workflow-safe APIs only; every side effect lives in the activities.
package workflow
