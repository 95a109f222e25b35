package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/ahrav/go-greenlight/internal/domain"
)

// SQLiteItemStore is a durable ItemStore backed by SQLite. Conditional
// updates are serialized through a transaction that re-validates the
// expected predicate and uses the record's last-write timestamp as the
// optimistic-concurrency witness.
type SQLiteItemStore struct {
	dsn string

	mu sync.Mutex
	db *sql.DB

	// Now supplies the write clock. Overridable in tests.
	Now func() time.Time
}

// NewSQLiteItemStore opens (and migrates) an item store at the given DSN.
func NewSQLiteItemStore(dsn string) (*SQLiteItemStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("missing sqlite dsn")
	}
	s := &SQLiteItemStore{dsn: dsn, Now: time.Now}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteItemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Get implements ItemStore.Get.
func (s *SQLiteItemStore) Get(ctx context.Context, id string) (domain.Item, error) {
	if err := s.ensureOpen(); err != nil {
		return domain.Item{}, err
	}
	return s.queryOne(ctx, `WHERE id = ?`, id)
}

// GetByToken implements ItemStore.GetByToken.
func (s *SQLiteItemStore) GetByToken(ctx context.Context, token domain.CallbackToken) (domain.Item, error) {
	if err := s.ensureOpen(); err != nil {
		return domain.Item{}, err
	}
	if token.IsZero() {
		return domain.Item{}, ErrNotFound
	}
	return s.queryOne(ctx, `WHERE callback_token = ?`, string(token))
}

// Create implements ItemStore.Create.
func (s *SQLiteItemStore) Create(ctx context.Context, item domain.Item) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	now := s.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}
	if item.Status == "" {
		item.Status = domain.StatusDraft
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO items (
  id, owner_id, status, staging_media_key, published_media_key,
  callback_token, callback_token_expires_at_ns,
  requested_at_ns, decided_at_ns, published_at_ns,
  reason, created_at_ns, updated_at_ns
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		item.ID, item.OwnerID, string(item.Status), item.StagingMediaKey, item.PublishedMediaKey,
		string(item.CallbackToken), unixNs(item.CallbackTokenExpiresAt),
		unixNs(item.RequestedAt), unixNs(item.DecidedAt), unixNs(item.PublishedAt),
		item.Reason, unixNs(item.CreatedAt), unixNs(item.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ConditionalUpdate implements ItemStore.ConditionalUpdate. The UPDATE is
// guarded by the record's updated_at witness so a writer that read a stale
// record loses cleanly; the predicate is then re-checked against the fresh
// record to classify the loss.
func (s *SQLiteItemStore) ConditionalUpdate(
	ctx context.Context,
	id string,
	expect Expect,
	patch Patch,
) (domain.Item, error) {
	if err := s.ensureOpen(); err != nil {
		return domain.Item{}, err
	}

	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		current, err := s.queryOne(ctx, `WHERE id = ?`, id)
		if err != nil {
			return domain.Item{}, err
		}

		now := s.Now().UTC()
		if err := expect.Check(current, now); err != nil {
			return current, err
		}

		updated := patch.Apply(current, now)
		res, err := s.db.ExecContext(ctx, `
UPDATE items SET
  status = ?, staging_media_key = ?, published_media_key = ?,
  callback_token = ?, callback_token_expires_at_ns = ?,
  requested_at_ns = ?, decided_at_ns = ?, published_at_ns = ?,
  reason = ?, updated_at_ns = ?
WHERE id = ? AND updated_at_ns = ?
`,
			string(updated.Status), updated.StagingMediaKey, updated.PublishedMediaKey,
			string(updated.CallbackToken), unixNs(updated.CallbackTokenExpiresAt),
			unixNs(updated.RequestedAt), unixNs(updated.DecidedAt), unixNs(updated.PublishedAt),
			updated.Reason, unixNs(updated.UpdatedAt),
			id, unixNs(current.UpdatedAt),
		)
		if err != nil {
			return domain.Item{}, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return domain.Item{}, err
		}
		if n == 1 {
			return updated, nil
		}
		// Witness moved under us; re-read and re-check the predicate.
	}

	current, err := s.queryOne(ctx, `WHERE id = ?`, id)
	if err != nil {
		return domain.Item{}, err
	}
	return current, ErrConditionFailed
}

// ListStalePending implements ItemStore.ListStalePending.
func (s *SQLiteItemStore) ListStalePending(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]domain.Item, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 25
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+`
WHERE status = ?
  AND callback_token != ''
  AND callback_token_expires_at_ns > 0
  AND callback_token_expires_at_ns <= ?
ORDER BY callback_token_expires_at_ns ASC
LIMIT ?
`, string(domain.StatusPending), now.UTC().UnixNano(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const selectColumns = `
SELECT
  id, owner_id, status, staging_media_key, published_media_key,
  callback_token, callback_token_expires_at_ns,
  requested_at_ns, decided_at_ns, published_at_ns,
  reason, created_at_ns, updated_at_ns
FROM items
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var (
		item                                            domain.Item
		status, token                                   string
		tokenExpNs, requestedNs, decidedNs, publishedNs int64
		createdNs, updatedNs                            int64
	)
	err := row.Scan(
		&item.ID, &item.OwnerID, &status, &item.StagingMediaKey, &item.PublishedMediaKey,
		&token, &tokenExpNs,
		&requestedNs, &decidedNs, &publishedNs,
		&item.Reason, &createdNs, &updatedNs,
	)
	if err != nil {
		return domain.Item{}, err
	}
	item.Status = domain.Status(status)
	item.CallbackToken = domain.CallbackToken(token)
	item.CallbackTokenExpiresAt = fromUnixNs(tokenExpNs)
	item.RequestedAt = fromUnixNs(requestedNs)
	item.DecidedAt = fromUnixNs(decidedNs)
	item.PublishedAt = fromUnixNs(publishedNs)
	item.CreatedAt = fromUnixNs(createdNs)
	item.UpdatedAt = fromUnixNs(updatedNs)
	return item, nil
}

func (s *SQLiteItemStore) queryOne(ctx context.Context, where string, arg any) (domain.Item, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+where, arg)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, ErrNotFound
	}
	if err != nil {
		return domain.Item{}, err
	}
	return item, nil
}

func (s *SQLiteItemStore) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return err
	}
	s.db = db
	return s.migrate()
}

func (s *SQLiteItemStore) ensureOpen() error {
	if s.db != nil {
		return nil
	}
	return s.open()
}

func (s *SQLiteItemStore) migrate() error {
	if s.db == nil {
		return fmt.Errorf("sqlite db is not open")
	}
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  owner_id TEXT,
  status TEXT NOT NULL,
  staging_media_key TEXT,
  published_media_key TEXT,
  callback_token TEXT,
  callback_token_expires_at_ns INTEGER NOT NULL DEFAULT 0,
  requested_at_ns INTEGER NOT NULL DEFAULT 0,
  decided_at_ns INTEGER NOT NULL DEFAULT 0,
  published_at_ns INTEGER NOT NULL DEFAULT 0,
  reason TEXT,
  created_at_ns INTEGER NOT NULL,
  updated_at_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);
CREATE INDEX IF NOT EXISTS idx_items_callback_token ON items(callback_token);

CREATE TABLE IF NOT EXISTS review_audit (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  item_id TEXT NOT NULL,
  action TEXT NOT NULL,
  at_ns INTEGER NOT NULL,
  idempotency_key TEXT,
  detail TEXT
);
CREATE INDEX IF NOT EXISTS idx_review_audit_item ON review_audit(item_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_review_audit_idem
  ON review_audit(idempotency_key) WHERE idempotency_key IS NOT NULL AND idempotency_key != '';
`)
	return err
}

func unixNs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromUnixNs(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}
