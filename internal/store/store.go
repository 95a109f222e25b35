// Package store persists moderated item records and provides the
// conditional-write primitive that serializes the four workflow steps.
// Predicates are expressed over the item's status (and, for Decide, its
// callback token) rather than full-document equality, so concurrent
// unrelated field updates do not spuriously fail writers.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahrav/go-greenlight/internal/domain"
)

var (
	// ErrNotFound indicates no record exists for the requested item id or
	// callback token.
	ErrNotFound = errors.New("item record not found")

	// ErrAlreadyExists indicates an attempt to create a record whose id is
	// already taken.
	ErrAlreadyExists = errors.New("item record already exists")

	// ErrConditionFailed indicates a conditional update lost its race: the
	// record no longer satisfies the expected predicate. Callers classify
	// this against the observed record rather than treating it as fatal.
	ErrConditionFailed = errors.New("conditional update predicate failed")
)

// ItemStore is the persistence port for moderated items. Writes to a single
// item are linearized by ConditionalUpdate; no multi-item transactions exist.
type ItemStore interface {
	// Get returns the record for the given item id, or ErrNotFound.
	Get(ctx context.Context, id string) (domain.Item, error)

	// GetByToken returns the record currently holding the given callback
	// token, or ErrNotFound. At most one record can hold a token.
	GetByToken(ctx context.Context, token domain.CallbackToken) (domain.Item, error)

	// Create inserts a new record, or returns ErrAlreadyExists.
	Create(ctx context.Context, item domain.Item) error

	// ConditionalUpdate applies patch to the record iff expect holds.
	// On success it returns the updated record. If the predicate fails it
	// returns the current record together with ErrConditionFailed so the
	// caller can decide whether the lost race was benign.
	ConditionalUpdate(ctx context.Context, id string, expect Expect, patch Patch) (domain.Item, error)

	// ListStalePending returns up to limit PENDING records whose callback
	// token expired at or before now. Used by the expiry sweep.
	ListStalePending(ctx context.Context, now time.Time, limit int) ([]domain.Item, error)
}

// Expect is the predicate a conditional update requires of the current
// record. A zero Expect matches any record.
type Expect struct {
	// Statuses restricts the record's current status to this set.
	Statuses []domain.Status

	// Token, when set, requires the stored callback token to match exactly.
	Token *domain.CallbackToken

	// NoActiveToken requires that no unexpired callback token is
	// outstanding: either none is stored, or the stored one has aged out.
	NoActiveToken bool
}

// Check evaluates the predicate against a record at the given instant.
// Returns nil when the predicate holds, ErrConditionFailed otherwise.
func (e Expect) Check(item domain.Item, now time.Time) error {
	if len(e.Statuses) > 0 {
		ok := false
		for _, s := range e.Statuses {
			if item.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return ErrConditionFailed
		}
	}
	if e.Token != nil && !item.CallbackToken.Equal(*e.Token) {
		return ErrConditionFailed
	}
	if e.NoActiveToken && item.TokenActive(now) {
		return ErrConditionFailed
	}
	return nil
}

// Patch describes the mutation a conditional update applies. Timestamps
// marked by the Mark* flags are set only on first entry into the
// corresponding state and never overwritten.
type Patch struct {
	// Status is the record's new status.
	Status domain.Status

	// Token, when set, records a new callback token with the given expiry.
	Token          *domain.CallbackToken
	TokenExpiresAt time.Time

	// ClearToken removes any stored callback token and its expiry.
	ClearToken bool

	// StagingMediaKey, when set, overrides the staging media reference.
	StagingMediaKey *string

	// PublishedMediaKey, when set, records the public media reference.
	PublishedMediaKey *string

	// Reason, when set, records the decision rationale.
	Reason *string

	// MarkRequested sets RequestedAt to the write time if unset.
	MarkRequested bool

	// MarkDecided sets DecidedAt to the write time if unset.
	MarkDecided bool

	// MarkPublished sets PublishedAt to the write time if unset.
	MarkPublished bool
}

// Apply returns a copy of item with the patch applied at the given instant.
// UpdatedAt always advances to now; it is the optimistic-concurrency witness.
func (p Patch) Apply(item domain.Item, now time.Time) domain.Item {
	item.Status = p.Status
	if p.Token != nil {
		item.CallbackToken = *p.Token
		item.CallbackTokenExpiresAt = p.TokenExpiresAt
	}
	if p.ClearToken {
		item.CallbackToken = ""
		item.CallbackTokenExpiresAt = time.Time{}
	}
	if p.StagingMediaKey != nil {
		item.StagingMediaKey = *p.StagingMediaKey
	}
	if p.PublishedMediaKey != nil {
		item.PublishedMediaKey = *p.PublishedMediaKey
	}
	if p.Reason != nil {
		item.Reason = *p.Reason
	}
	if p.MarkRequested && item.RequestedAt.IsZero() {
		item.RequestedAt = now
	}
	if p.MarkDecided && item.DecidedAt.IsZero() {
		item.DecidedAt = now
	}
	if p.MarkPublished && item.PublishedAt.IsZero() {
		item.PublishedAt = now
	}
	item.UpdatedAt = now
	return item
}
