// Package domain provides the core types and business rules for the item
// approval and publication workflow. It defines the moderated item record,
// its status state machine, the per-step input/output contracts, and the
// typed events emitted as items move through review.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status represents an item's position in the moderation lifecycle.
// Using typed constants instead of raw strings provides compile-time safety
// and enables exhaustive switch statements over the state machine.
type Status string

const (
	// StatusDraft is the initial state of a freshly created item.
	StatusDraft Status = "DRAFT"

	// StatusPending indicates the item is awaiting a human review decision.
	// This is the only state in which a callback token is outstanding.
	StatusPending Status = "PENDING"

	// StatusApproved indicates a reviewer accepted the item. The item still
	// awaits publication.
	StatusApproved Status = "APPROVED"

	// StatusRejected indicates a reviewer declined the item.
	StatusRejected Status = "REJECTED"

	// StatusPublished indicates the item's media has been relocated to its
	// public location.
	StatusPublished Status = "PUBLISHED"

	// StatusExpired indicates the pending decision aged out before any
	// reviewer acted.
	StatusExpired Status = "EXPIRED"
)

// String returns the string representation of the status.
func (s Status) String() string { return string(s) }

// Valid reports whether s is a member of the closed status enum.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusPublished, StatusExpired:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transition initiated
// by this subsystem, except APPROVED which may still move to PUBLISHED.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusPublished, StatusExpired:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next. The only edges are DRAFT→PENDING, PENDING→{APPROVED,REJECTED,EXPIRED},
// and APPROVED→PUBLISHED.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusPending
	case StatusPending:
		return next == StatusApproved || next == StatusRejected || next == StatusExpired
	case StatusApproved:
		return next == StatusPublished
	default:
		return false
	}
}

// CallbackToken is the opaque resumption handle issued when an item enters
// PENDING. It is held by the external orchestrator and consumed exactly once
// by Decide or invalidated by Expire. The token has no semantics beyond
// equality comparison; it is never parsed or constructed from parts.
type CallbackToken string

// IsZero reports whether no token is present.
func (t CallbackToken) IsZero() bool { return t == "" }

// Equal compares two tokens for exact equality.
func (t CallbackToken) Equal(other CallbackToken) bool { return t == other }

// MintCallbackToken returns a fresh opaque token for callers that do not
// already hold an orchestrator-issued one (sweeps, tooling, tests).
func MintCallbackToken() CallbackToken {
	return CallbackToken(uuid.NewString())
}

// ReasonExpired is the fixed, machine-readable rejection rationale recorded
// when a pending decision times out. Downstream consumers rely on this exact
// string to distinguish timeouts from human rejections.
const ReasonExpired = "timed out awaiting decision"

// Item is the unit of moderation. A single record per item id holds the
// entire approval state; all mutation goes through conditional writes keyed
// on the current status (and, for Decide, the callback token).
type Item struct {
	// ID uniquely identifies the item. Assigned at creation, immutable.
	ID string `json:"id"`

	// OwnerID identifies the submitting user.
	OwnerID string `json:"owner_id"`

	// Status is the item's current lifecycle state.
	Status Status `json:"status"`

	// StagingMediaKey references the not-yet-public media object.
	StagingMediaKey string `json:"staging_media_key,omitempty"`

	// PublishedMediaKey references the public media object.
	// Present iff Status == PUBLISHED, and written at most once.
	PublishedMediaKey string `json:"published_media_key,omitempty"`

	// CallbackToken is the outstanding resumption handle.
	// Non-zero iff Status == PENDING.
	CallbackToken CallbackToken `json:"callback_token,omitempty"`

	// CallbackTokenExpiresAt bounds the token's validity. Meaningful only
	// while CallbackToken is present.
	CallbackTokenExpiresAt time.Time `json:"callback_token_expires_at,omitzero"`

	// RequestedAt records first entry into PENDING. Set once.
	RequestedAt time.Time `json:"requested_at,omitzero"`

	// DecidedAt records when the pending decision resolved, by a reviewer
	// or by expiry. Set once.
	DecidedAt time.Time `json:"decided_at,omitzero"`

	// PublishedAt records first entry into PUBLISHED. Set once.
	PublishedAt time.Time `json:"published_at,omitzero"`

	// Reason carries the rejection rationale. Present only for REJECTED
	// and EXPIRED items; for EXPIRED it is always ReasonExpired.
	Reason string `json:"reason,omitempty"`

	// CreatedAt records item creation time.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// UpdatedAt is the last-write timestamp, used as the optimistic
	// concurrency witness by the item store.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// TokenActive reports whether the item carries a callback token that has not
// expired as of now.
func (i Item) TokenActive(now time.Time) bool {
	if i.CallbackToken.IsZero() {
		return false
	}
	return i.CallbackTokenExpiresAt.After(now)
}
