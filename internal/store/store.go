// Package store keeps a history of analysis runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"aipm/internal/logging"

	_ "modernc.org/sqlite"
)

// schemaVersion is recorded in PRAGMA user_version.
const schemaVersion = 1

var (
	// ErrRunNotFound is returned when no run matches the requested ID.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousID is returned when an ID prefix matches more than one run.
	ErrAmbiguousID = errors.New("run ID prefix is ambiguous")
)

// Store persists analysis runs.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.StoreError("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logging.StoreDebug("Failed to apply %q: %v", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("History store ready at %s", path)
	return s, nil
}

// initialize creates the tables and records the schema version.
func (s *Store) initialize() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("history database schema v%d is newer than supported v%d", version, schemaVersion)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			catalog TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			parallel_threads INTEGER NOT NULL DEFAULT 0,
			passed INTEGER NOT NULL,
			total INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE TABLE IF NOT EXISTS verdicts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			rule_name TEXT NOT NULL,
			decision INTEGER NOT NULL,
			justification TEXT NOT NULL,
			PRIMARY KEY (run_id, rule_name)
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if version < schemaVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
		logging.StoreDebug("Schema upgraded from v%d to v%d", version, schemaVersion)
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
