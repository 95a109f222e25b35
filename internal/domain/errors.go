package domain

import "errors"

// ErrInvalidInput indicates that a step input failed contract validation.
// Callers must not retry without fixing the input.
var ErrInvalidInput = errors.New("invalid step input")

// ErrTokenNotFound indicates no pending item carries the given callback token.
var ErrTokenNotFound = errors.New("callback token not found")

// ErrInvalidDecision indicates a decision value outside {APPROVE, REJECT}.
var ErrInvalidDecision = errors.New("decision must be APPROVE or REJECT")

// ErrReasonRequired indicates a REJECT decision arrived without a rationale.
var ErrReasonRequired = errors.New("rejection requires a non-empty reason")

// ErrAlreadyDecided indicates the item left PENDING before this call landed.
// Steps classify this as an idempotent no-op, not a failure.
var ErrAlreadyDecided = errors.New("item already decided")

// ErrNotApproved indicates a publish attempt against an item that is not in
// the APPROVED state.
var ErrNotApproved = errors.New("item is not approved for publication")

// ErrStagingMissing indicates the staging media object could not be found.
var ErrStagingMissing = errors.New("staging media object not found")
