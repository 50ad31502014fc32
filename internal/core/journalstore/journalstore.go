// Package journalstore persists the write-ahead journal and its snapshots
// to Postgres (spec.md §4.10), behind the same shape the in-memory
// journal.Journal already exposes. The host wires PostgresStore when
// KANDEV_DATABASE_DRIVER=postgres and keeps everything in memory
// otherwise; either way internal/core never imports pgx directly, so the
// core stays free of I/O (spec.md §9 "core has no goroutines, no network
// or disk I/O").
package journalstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kandev/kandev/internal/common/database"
	"github.com/kandev/kandev/internal/core/journal"
)

// PostgresStore persists journal entries and snapshots as rows in two
// tables, reusing the generic pool wrapper from internal/common/database.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore wraps an already-connected pool. Callers are expected
// to have run the migrations that create kandev_journal_entries and
// kandev_journal_snapshots (see Migrate).
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the backing tables if they do not already exist. It is
// safe to call on every startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS kandev_journal_entries (
	sequence     BIGINT PRIMARY KEY,
	timestamp_ms BIGINT NOT NULL,
	record       JSONB NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("journalstore: migrate entries: %w", err)
	}
	_, err = s.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS kandev_journal_snapshots (
	timestamp_ms BIGINT PRIMARY KEY,
	checksum     TEXT NOT NULL,
	record       JSONB NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("journalstore: migrate snapshots: %w", err)
	}
	return nil
}

// AppendEntry persists one journal entry, keyed by its sequence so a
// replayed Append (e.g. after a crash mid-write) is idempotent.
func (s *PostgresStore) AppendEntry(ctx context.Context, e journal.Entry) error {
	lines, err := journal.ToJSONLines([]journal.Entry{e})
	if err != nil {
		return fmt.Errorf("journalstore: serialize entry: %w", err)
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO kandev_journal_entries (sequence, timestamp_ms, record)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (sequence) DO NOTHING`, e.Sequence, e.TimestampMs, lines)
	if err != nil {
		return fmt.Errorf("journalstore: append entry: %w", err)
	}
	return nil
}

// LoadEntries rehydrates every persisted entry, oldest first, suitable
// for journal.NewFromEntries.
func (s *PostgresStore) LoadEntries(ctx context.Context) ([]journal.Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT record FROM kandev_journal_entries ORDER BY sequence ASC`)
	if err != nil {
		return nil, fmt.Errorf("journalstore: load entries: %w", err)
	}
	defer rows.Close()

	var out []journal.Entry
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("journalstore: scan entry: %w", err)
		}
		parsed, err := journal.FromJSONLines(line)
		if err != nil {
			return nil, fmt.Errorf("journalstore: parse entry: %w", err)
		}
		out = append(out, parsed...)
	}
	return out, rows.Err()
}

// SaveSnapshot persists one system snapshot, keyed by its timestamp.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap journal.SystemSnapshot) error {
	body, err := journal.ToJSON(snap)
	if err != nil {
		return fmt.Errorf("journalstore: serialize snapshot: %w", err)
	}
	checksum, err := journal.SnapshotChecksum(snap)
	if err != nil {
		return fmt.Errorf("journalstore: checksum snapshot: %w", err)
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO kandev_journal_snapshots (timestamp_ms, checksum, record)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (timestamp_ms) DO UPDATE SET checksum = EXCLUDED.checksum, record = EXCLUDED.record`,
		snap.TimestampMs, checksum, body)
	if err != nil {
		return fmt.Errorf("journalstore: save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recently saved snapshot, if any.
func (s *PostgresStore) LatestSnapshot(ctx context.Context) (journal.SystemSnapshot, bool, error) {
	row := s.db.QueryRow(ctx, `
SELECT record FROM kandev_journal_snapshots ORDER BY timestamp_ms DESC LIMIT 1`)
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return journal.SystemSnapshot{}, false, nil
		}
		return journal.SystemSnapshot{}, false, fmt.Errorf("journalstore: load latest snapshot: %w", err)
	}
	snap, err := journal.FromJSON(body)
	if err != nil {
		return journal.SystemSnapshot{}, false, fmt.Errorf("journalstore: parse snapshot: %w", err)
	}
	return snap, true, nil
}
