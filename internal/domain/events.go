package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventType identifies a domain event for routing and processing.
type EventType string

const (
	// EventTypeItemPendingReview is emitted when an item enters PENDING
	// with a freshly recorded callback token.
	EventTypeItemPendingReview EventType = "ItemPendingReview"

	// EventTypeItemApproved is emitted when a reviewer approves an item.
	EventTypeItemApproved EventType = "ItemApproved"

	// EventTypeItemRejected is emitted when a reviewer rejects an item.
	EventTypeItemRejected EventType = "ItemRejected"

	// EventTypeItemExpired is emitted when a pending decision times out.
	EventTypeItemExpired EventType = "ItemExpired"

	// EventTypeItemPublished is emitted when an item's media reaches its
	// public location.
	EventTypeItemPublished EventType = "ItemPublished"
)

// ItemPendingReviewPayload carries the data for ItemPendingReview events.
type ItemPendingReviewPayload struct {
	ItemID      string    `json:"item_id" validate:"required"`
	OwnerID     string    `json:"owner_id,omitempty"`
	RequestedAt time.Time `json:"requested_at" validate:"required"`
}

// Validate checks if the payload meets all requirements.
func (p *ItemPendingReviewPayload) Validate() error { return validate.Struct(p) }

// ItemDecidedPayload carries the data for ItemApproved and ItemRejected
// events.
type ItemDecidedPayload struct {
	ItemID    string    `json:"item_id" validate:"required"`
	Decision  Decision  `json:"decision" validate:"required"`
	Reason    string    `json:"reason,omitempty"`
	DecidedBy string    `json:"decided_by,omitempty"`
	DecidedAt time.Time `json:"decided_at" validate:"required"`
}

// Validate checks if the payload meets all requirements.
func (p *ItemDecidedPayload) Validate() error { return validate.Struct(p) }

// ItemExpiredPayload carries the data for ItemExpired events.
type ItemExpiredPayload struct {
	ItemID    string    `json:"item_id" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	ExpiredAt time.Time `json:"expired_at" validate:"required"`
}

// Validate checks if the payload meets all requirements.
func (p *ItemExpiredPayload) Validate() error { return validate.Struct(p) }

// ItemPublishedPayload carries the data for ItemPublished events.
type ItemPublishedPayload struct {
	ItemID      string    `json:"item_id" validate:"required"`
	MediaKey    string    `json:"media_key" validate:"required"`
	PublishedAt time.Time `json:"published_at" validate:"required"`
}

// Validate checks if the payload meets all requirements.
func (p *ItemPublishedPayload) Validate() error { return validate.Struct(p) }

// EventIdempotencyKey derives a deterministic deduplication key for an event
// so redelivered steps emit byte-identical events. The key binds the
// workflow execution, event type, and item id.
func EventIdempotencyKey(workflowID string, eventType EventType, itemID string) string {
	h := sha256.Sum256([]byte(workflowID + ":" + string(eventType) + ":" + itemID))
	return hex.EncodeToString(h[:16])
}
