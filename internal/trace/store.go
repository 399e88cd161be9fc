// Package trace persists run transition events to SQLite. It is one
// Collector implementation; the compiler never depends on it succeeding.
package trace

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flowsmith/flowsmith/internal/observe"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the SQLite-backed transition trace.
type Store struct {
	db *sql.DB
}

// Open opens dataDir/trace.db, creating dataDir if needed, enables WAL
// mode, and runs pending migrations. Caller must Close when done.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("trace store: data_dir is required")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("trace store: %w", err)
	}
	dbPath := filepath.Join(dataDir, "trace.db")
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("trace store: open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("trace store: WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Collect appends one transition row. Failures are logged and swallowed;
// tracing must never fail a run.
func (s *Store) Collect(ev observe.Event) {
	_, err := s.db.Exec(
		`INSERT INTO transitions (run_id, state, detail, at) VALUES (?, ?, ?, ?)`,
		ev.RunID, ev.State, ev.Detail, ev.Time.UTC().Format(time.RFC3339Nano))
	if err != nil {
		log.Printf("trace: collect %s/%s: %v", ev.RunID, ev.State, err)
	}
}

// RunTrace returns the recorded transitions of one run in order.
func (s *Store) RunTrace(runID string) ([]observe.Event, error) {
	rows, err := s.db.Query(
		`SELECT run_id, state, detail, at FROM transitions WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("trace query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []observe.Event
	for rows.Next() {
		var ev observe.Event
		var at string
		if err := rows.Scan(&ev.RunID, &ev.State, &ev.Detail, &at); err != nil {
			return nil, fmt.Errorf("trace scan: %w", err)
		}
		ev.Time, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) runMigrations() error {
	if _, err := s.db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL PRIMARY KEY)"); err != nil {
		return fmt.Errorf("migrations: create schema_version: %w", err)
	}
	current, err := s.currentVersion()
	if err != nil {
		return err
	}
	names, err := migrationNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		n, err := migrationNumber(name)
		if err != nil || n <= 0 || n <= current {
			continue
		}
		body, err := fs.ReadFile(migrationsFS, "migrations/"+name)
		if err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("migration %s: begin: %w", name, err)
		}
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s: %w", name, err)
		}
		if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s: clear version: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", n); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s: set version: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %s: commit: %w", name, err)
		}
	}
	return nil
}

func (s *Store) currentVersion() (int, error) {
	var v sql.NullInt64
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err == sql.ErrNoRows || (err == nil && !v.Valid) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migrations: read version: %w", err)
	}
	return int(v.Int64), nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func migrationNumber(name string) (int, error) {
	base := strings.TrimSuffix(name, ".sql")
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid migration name")
	}
	return strconv.Atoi(parts[0])
}
