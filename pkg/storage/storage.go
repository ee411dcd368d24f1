// Package storage persists diagnostic runs and device inventory to a local
// SQLite database, with an optional JSONL sink for capability reports.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	_ "modernc.org/sqlite"

	razerdiag "github.com/openrazer-tools/razerdiag"
)

const (
	defaultDBDirName  = ".razerdiag"
	defaultDBFileName = "records.sqlite"

	runTableName    = "diag_runs"
	deviceTableName = "devices"
)

// ResolveDatabasePath returns the absolute path to the diagnostics SQLite
// database, creating the parent directory if necessary. The default location
// under the user home can be overridden through the environment.
func ResolveDatabasePath() (string, error) {
	if custom := strings.TrimSpace(os.Getenv(razerdiag.EnvDatabasePath)); custom != "" {
		if err := ensureDirExists(filepath.Dir(custom)); err != nil {
			return "", err
		}
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", pkgerrors.Wrap(err, "storage: locate user home failed")
	}
	dir := filepath.Join(home, defaultDBDirName)
	if err := ensureDirExists(dir); err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultDBFileName), nil
}

func ensureDirExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return pkgerrors.Wrapf(err, "storage: create dir %s failed", path)
	}
	return nil
}

// Store wraps the diagnostics database. A single Store owns the connection;
// SQLite runs with one open connection to avoid writer lock contention.
type Store struct {
	db   *sql.DB
	path string
}

// Open resolves the database path from the environment and opens the store.
func Open() (*Store, error) {
	path, err := ResolveDatabasePath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt opens the store at an explicit path. Used by tests and by callers
// that already resolved the location.
func OpenAt(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, pkgerrors.New("storage: database path is empty")
	}
	if err := ensureDirExists(filepath.Dir(trimmed)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "storage: open sqlite database failed")
	}
	if err := configureSQLite(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := prepareSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: trimmed}, nil
}

// Path returns the database file backing this store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=MEMORY;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return pkgerrors.Wrapf(err, "storage: execute %s failed", pragma)
		}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return nil
}

func prepareSchema(db *sql.DB) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			passed INTEGER NOT NULL,
			total INTEGER NOT NULL,
			issues TEXT NOT NULL DEFAULT '[]'
		);`, quoteIdent(runTableName)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_kind_started ON %s(kind, started_at DESC);`,
			runTableName, quoteIdent(runTableName)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			serial TEXT PRIMARY KEY,
			name TEXT,
			type TEXT,
			firmware TEXT,
			driver_version TEXT,
			vid_pid TEXT,
			status TEXT NOT NULL,
			toolkit_version TEXT,
			last_error TEXT,
			last_seen_at INTEGER NOT NULL
		);`, quoteIdent(deviceTableName)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_status ON %s(status);`,
			deviceTableName, quoteIdent(deviceTableName)),
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return pkgerrors.Wrap(err, "storage: init sqlite schema failed")
		}
	}
	return nil
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
