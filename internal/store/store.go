// Package store implements the durable plugin store on SQLite: plugin
// source and descriptions, the requests each plugin has satisfied, declared
// dependencies, and the oracle chat transcript.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"plugsmith/internal/logging"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested plugin does not exist.
var ErrNotFound = errors.New("plugin not found")

// Transcript roles.
const (
	RoleApplication = "application"
	RoleOracle      = "oracle"
)

// PluginStore persists plugins, their requests and dependencies, and the
// chat transcript. Safe for use from a single logical turn at a time; the
// mutex only guards against accidental cross-goroutine reuse.
type PluginStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewPluginStore initializes the SQLite database at the given path.
func NewPluginStore(path string) (*PluginStore, error) {
	logging.StoreDebug("Initializing PluginStore at path: %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: the store serves one logical turn at a time, and the
	// foreign_keys pragma is per-connection.
	db.SetMaxOpenConns(1)

	s := &PluginStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("PluginStore initialized at %s", path)
	return s, nil
}

// initialize creates the required tables.
func (s *PluginStore) initialize() error {
	if _, err := s.db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS plugins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plugin_id INTEGER NOT NULL,
		request TEXT NOT NULL,
		UNIQUE (plugin_id, request),
		FOREIGN KEY (plugin_id) REFERENCES plugins(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS dependencies (
		plugin_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (plugin_id, name),
		FOREIGN KEY (plugin_id) REFERENCES plugins(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS chat_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_user_requests_plugin ON user_requests(plugin_id);
	CREATE INDEX IF NOT EXISTS idx_dependencies_name ON dependencies(name);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PluginStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		logging.Store("Closing PluginStore at %s", s.dbPath)
		return s.db.Close()
	}
	return nil
}
