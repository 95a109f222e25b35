package store

import (
	"context"
	"strings"
	"time"

	"github.com/ahrav/go-greenlight/pkg/events"
)

// AuditEntry is one append-only record of something a step did to an item.
// The trail exists for operators and compliance review; it is never read
// back by the workflow itself.
type AuditEntry struct {
	ItemID         string
	Action         string
	At             time.Time
	IdempotencyKey string
	Detail         string
}

// AuditLog appends entries to a durable trail. Writes are best-effort from
// the caller's perspective; a duplicate idempotency key is a silent no-op.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
}

// AppendAudit implements AuditLog for the SQLite store.
func (s *SQLiteItemStore) AppendAudit(ctx context.Context, entry AuditEntry) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	at := entry.At
	if at.IsZero() {
		at = s.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO review_audit (item_id, action, at_ns, idempotency_key, detail)
VALUES (?, ?, ?, ?, ?)
`, entry.ItemID, entry.Action, unixNs(at), entry.IdempotencyKey, entry.Detail)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return nil // replayed step, entry already recorded
	}
	return err
}

// AppendAudit implements AuditLog for the in-memory store.
func (s *InMemoryItemStore) AppendAudit(_ context.Context, entry AuditEntry) error {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	if entry.IdempotencyKey != "" {
		for _, e := range s.audit {
			if e.IdempotencyKey == entry.IdempotencyKey {
				return nil
			}
		}
	}
	if entry.At.IsZero() {
		entry.At = s.Now().UTC()
	}
	s.audit = append(s.audit, entry)
	return nil
}

// AuditEntries returns a copy of the in-memory audit trail, for tests.
func (s *InMemoryItemStore) AuditEntries() []AuditEntry {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	out := make([]AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// auditSink adapts an AuditLog into an events.EventSink so every emitted
// domain event also lands in the audit trail without extra step code.
type auditSink struct {
	log AuditLog
}

// NewAuditSink wraps an AuditLog as an EventSink.
func NewAuditSink(log AuditLog) events.EventSink {
	return &auditSink{log: log}
}

// Append implements events.EventSink.
func (a *auditSink) Append(ctx context.Context, envelope events.Envelope) error {
	return a.log.AppendAudit(ctx, AuditEntry{
		ItemID:         envelope.ItemID,
		Action:         envelope.Type,
		At:             envelope.Timestamp,
		IdempotencyKey: envelope.IdempotencyKey,
		Detail:         string(envelope.Payload),
	})
}
