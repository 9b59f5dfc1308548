// Package suppression persists rejected torrent matches so reconciliation
// stops re-reporting pairs the user has already dismissed.
package suppression

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// Entry is one suppressed match with its history.
type Entry struct {
	Key             string
	TorrentTitle    string
	CandidateName   string
	Similarity      float64
	Count           int64
	FirstSuppressed time.Time
	LastSuppressed  time.Time
}

// Store manages suppression persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the suppression database.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version.Int64 != schemaVersion:
		return fmt.Errorf("suppression database has schema version %d, expected %d (delete %s to reset)",
			version.Int64, schemaVersion, s.path)
	}
	return nil
}

// Record stores a suppression, incrementing the counter when the key is
// already present.
func (s *Store) Record(ctx context.Context, key Key, similarity float64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suppressions (
            key, torrent_title, candidate_name, similarity, count,
            first_suppressed_at, last_suppressed_at
        ) VALUES (?, ?, ?, ?, 1, ?, ?)
        ON CONFLICT(key) DO UPDATE SET
            count = count + 1,
            last_suppressed_at = excluded.last_suppressed_at`,
		key.String(), key.Title, key.Candidate, similarity, now, now,
	)
	if err != nil {
		return fmt.Errorf("record suppression: %w", err)
	}
	return nil
}

// Touch bumps the counter for an existing suppression. The returned bool
// reports whether the key was present.
func (s *Store) Touch(ctx context.Context, key Key) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		"UPDATE suppressions SET count = count + 1, last_suppressed_at = ? WHERE key = ?",
		now, key.String(),
	)
	if err != nil {
		return false, fmt.Errorf("touch suppression: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("touch suppression rows: %w", err)
	}
	return affected > 0, nil
}

// Contains reports whether the key has been suppressed before.
func (s *Store) Contains(ctx context.Context, key Key) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM suppressions WHERE key = ?", key.String(),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query suppression: %w", err)
	}
	return true, nil
}

// List returns all suppressions, most recently touched first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, torrent_title, candidate_name, similarity, count,
            first_suppressed_at, last_suppressed_at
        FROM suppressions ORDER BY last_suppressed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list suppressions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var first, last string
		if err := rows.Scan(&entry.Key, &entry.TorrentTitle, &entry.CandidateName,
			&entry.Similarity, &entry.Count, &first, &last); err != nil {
			return nil, fmt.Errorf("scan suppression: %w", err)
		}
		if entry.FirstSuppressed, err = time.Parse(time.RFC3339Nano, first); err != nil {
			return nil, fmt.Errorf("parse first_suppressed_at: %w", err)
		}
		if entry.LastSuppressed, err = time.Parse(time.RFC3339Nano, last); err != nil {
			return nil, fmt.Errorf("parse last_suppressed_at: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear removes every suppression and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM suppressions")
	if err != nil {
		return 0, fmt.Errorf("clear suppressions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear suppressions rows: %w", err)
	}
	return deleted, nil
}
