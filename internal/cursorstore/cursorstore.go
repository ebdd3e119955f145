// Package cursorstore persists the sequential-selection cursor (C5) per
// frame/source pair across restarts, grounded on the teacher's SQLite
// wiring (WAL mode, busy timeout, pooled connections, prepared statements).
package cursorstore

import (
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"strings"

	_ "modernc.org/sqlite"
)

// Store persists, per (frameID, sourceID) pair, the index at which
// sequential selection resumes (one past the asset last handed out).
type Store struct {
	db *sql.DB

	getStmt    *sql.Stmt
	upsertStmt *sql.Stmt
}

// Open opens (creating if needed) the cursor database at connectionString.
func Open(connectionString string) (*Store, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, fmt.Errorf("cursorstore: open: %w", err)
	}

	// Enable WAL mode for better concurrency and set a busy timeout to
	// mitigate lock contention between the scheduler tick and the API.
	_, _ = db.Exec(`PRAGMA journal_mode=WAL;`)
	_, _ = db.Exec(`PRAGMA busy_timeout=3000;`)

	if strings.Contains(strings.ToLower(connectionString), ":memory:") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		max := runtime.GOMAXPROCS(0) * 2
		if max < 4 {
			max = 4
		}
		db.SetMaxOpenConns(max)
		db.SetMaxIdleConns(max)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS cursors (
		frame_id TEXT NOT NULL,
		source_id TEXT NOT NULL,
		asset_index INTEGER NOT NULL,
		PRIMARY KEY (frame_id, source_id)
	)`)
	if err != nil {
		return fmt.Errorf("cursorstore: migrate: %w", err)
	}

	if s.getStmt, err = s.db.Prepare(
		`SELECT asset_index FROM cursors WHERE frame_id = ? AND source_id = ?`); err != nil {
		return fmt.Errorf("cursorstore: prepare get: %w", err)
	}
	if s.upsertStmt, err = s.db.Prepare(
		`INSERT INTO cursors (frame_id, source_id, asset_index) VALUES (?, ?, ?)
		 ON CONFLICT(frame_id, source_id) DO UPDATE SET asset_index = excluded.asset_index`); err != nil {
		return fmt.Errorf("cursorstore: prepare upsert: %w", err)
	}
	return nil
}

// Get returns the persisted cursor index for (frameID, sourceID), or 0 with
// ok=false if no cursor has been recorded yet.
func (s *Store) Get(frameID, sourceID string) (index int, ok bool, err error) {
	row := s.getStmt.QueryRow(frameID, sourceID)
	if err := row.Scan(&index); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("cursorstore: get: %w", err)
	}
	return index, true, nil
}

// Set persists the next cursor index for (frameID, sourceID).
func (s *Store) Set(frameID, sourceID string, index int) error {
	if _, err := s.upsertStmt.Exec(frameID, sourceID, index); err != nil {
		return fmt.Errorf("cursorstore: set: %w", err)
	}
	return nil
}

// Close releases prepared statements and the underlying connection pool.
func (s *Store) Close() error {
	var errs []error
	if s.getStmt != nil {
		if err := s.getStmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.upsertStmt != nil {
		if err := s.upsertStmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
