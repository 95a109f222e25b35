package domain

import (
	"fmt"
	"strings"
)

// Decision is the outcome a reviewer records for a pending item.
type Decision string

const (
	// DecisionApprove accepts the item for publication.
	DecisionApprove Decision = "APPROVE"

	// DecisionReject declines the item.
	DecisionReject Decision = "REJECT"
)

// Valid reports whether d is a member of the closed decision enum.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Status returns the item status a decision resolves to.
func (d Decision) Status() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Each step consumes exactly one strict, versioned input shape. Anything
// that does not satisfy the contract is rejected as a validation error
// rather than guessed at.

// RequestReviewInput transitions an item into PENDING and records a fresh
// callback token.
type RequestReviewInput struct {
	// ItemID identifies the item entering review.
	ItemID string `json:"item_id" validate:"required"`

	// CallbackToken is the freshly minted resumption handle to record.
	CallbackToken CallbackToken `json:"callback_token" validate:"required"`

	// StagingMediaKey optionally overrides the item's staging media
	// reference, e.g. when an upstream processing step produced a new key.
	StagingMediaKey string `json:"staging_media_key,omitempty"`
}

// Validate checks the input against its contract.
func (in *RequestReviewInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// RequestReviewResult acknowledges a review request.
type RequestReviewResult struct {
	ItemID string `json:"item_id"`

	// Token is the token now recorded on the item. On a benign duplicate
	// this is the previously stored token, not the one submitted.
	Token CallbackToken `json:"token"`

	// Duplicate reports that the item was already PENDING with an active
	// token and the conditional write was a no-op.
	Duplicate bool `json:"duplicate,omitempty"`
}

// AwaitReviewInput starts the suspended wait for a human decision.
// It carries no token: the orchestrator supplies the resumption handle.
type AwaitReviewInput struct {
	ItemID          string `json:"item_id" validate:"required"`
	StagingMediaKey string `json:"staging_media_key,omitempty"`
}

// Validate checks the input against its contract.
func (in *AwaitReviewInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// DecisionOutcome is the completion payload delivered to the suspended
// orchestrator execution when a pending decision resolves.
type DecisionOutcome struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

// DecideInput resolves a pending decision by consuming its callback token.
type DecideInput struct {
	// CallbackToken is the resumption handle issued at RequestReview.
	CallbackToken CallbackToken `json:"callback_token" validate:"required"`

	// ItemID optionally names the item, allowing replay classification
	// when the token has already been consumed.
	ItemID string `json:"item_id,omitempty"`

	// Decision is APPROVE or REJECT.
	Decision Decision `json:"decision" validate:"required"`

	// Reason is the rejection rationale. Required for REJECT.
	Reason string `json:"reason,omitempty"`

	// DecidedBy identifies the reviewer, for the audit trail. The caller
	// is assumed to have been authorized before this step is invoked.
	DecidedBy string `json:"decided_by,omitempty"`
}

// Validate checks the input against its contract, including the
// reason-required-on-reject rule.
func (in *DecideInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if !in.Decision.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ErrInvalidDecision)
	}
	if in.Decision == DecisionReject && strings.TrimSpace(in.Reason) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInput, ErrReasonRequired)
	}
	return nil
}

// DecideResult reports the resolved state of the item.
type DecideResult struct {
	ItemID string `json:"item_id"`
	Status Status `json:"status"`

	// Idempotent reports that the decision had already landed (replay or
	// lost race) and this call mutated nothing.
	Idempotent bool `json:"idempotent,omitempty"`
}

// ExpireInput reclaims an item whose pending decision aged out.
type ExpireInput struct {
	ItemID string `json:"item_id" validate:"required"`
}

// Validate checks the input against its contract.
func (in *ExpireInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// ExpireResult reports the outcome of an expiry attempt.
type ExpireResult struct {
	ItemID string `json:"item_id"`

	// Expired reports whether this call performed the PENDING→EXPIRED
	// transition. False means the item was already resolved or absent,
	// which expiry treats as success.
	Expired bool `json:"expired"`
}

// ExpireStaleInput drives one pass of the stale-review sweep.
type ExpireStaleInput struct {
	// Limit caps how many stale records one pass may reclaim.
	// Zero selects the sweep default.
	Limit int `json:"limit,omitempty" validate:"min=0"`
}

// Validate checks the input against its contract.
func (in *ExpireStaleInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// ExpireStaleResult summarizes one sweep pass.
type ExpireStaleResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// PublishInput relocates an approved item's media and marks it published.
type PublishInput struct {
	ItemID string `json:"item_id" validate:"required"`
}

// Validate checks the input against its contract.
func (in *PublishInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// PublishResult reports the public media location.
type PublishResult struct {
	ItemID            string `json:"item_id"`
	PublishedMediaKey string `json:"published_media_key"`

	// AlreadyPublished reports that the item was published by an earlier
	// invocation and no media copy was performed.
	AlreadyPublished bool `json:"already_published,omitempty"`
}

// ApprovalRequest is the input to the end-to-end approval workflow.
type ApprovalRequest struct {
	ItemID          string `json:"item_id" validate:"required"`
	OwnerID         string `json:"owner_id,omitempty"`
	StagingMediaKey string `json:"staging_media_key,omitempty"`

	// TokenTTLSeconds bounds how long the pending decision may remain
	// outstanding. Zero selects the worker default.
	TokenTTLSeconds int64 `json:"token_ttl_seconds,omitempty" validate:"min=0"`
}

// Validate checks the request against its contract.
func (r *ApprovalRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// ApprovalVerdict is the final output of the approval workflow.
type ApprovalVerdict struct {
	ItemID            string `json:"item_id"`
	Status            Status `json:"status"`
	PublishedMediaKey string `json:"published_media_key,omitempty"`
	Reason            string `json:"reason,omitempty"`
}
