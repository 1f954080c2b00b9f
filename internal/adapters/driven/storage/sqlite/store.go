package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/kicad-lcsc/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
)

// dbFileName is the database file inside the data directory.
const dbFileName = "sources.db"

// Store is a SQLite-backed cache of raw source responses.
type Store struct {
	db   *sql.DB
	path string
}

// Ensure Store implements the interface.
var _ driven.SourceCache = (*Store)(nil)

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.kicad-lcsc/cache.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".kicad-lcsc", "cache")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// WAL lets a concurrent reader proceed while an import writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate brings the schema up to the newest embedded version. Each
// step and its version row commit together.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	current, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	pending, err := migrations.After(current)
	if err != nil {
		return err
	}

	for _, m := range pending {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("executing migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("recording migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", m.Name, err)
		}
	}
	return nil
}

// SchemaVersion is the newest applied migration, 0 for a fresh file.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Get returns the payload stored under (source, id) after notBefore.
func (s *Store) Get(ctx context.Context, source, id string, notBefore time.Time) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT payload FROM source_cache
		WHERE source = ? AND id = ? AND stored_at >= ?
	`, source, id, stamp(notBefore))

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scanning cache entry: %w", err)
	}
	return payload, true, nil
}

// Put stores or replaces the payload under (source, id).
func (s *Store) Put(ctx context.Context, source, id string, payload []byte, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO source_cache (source, id, payload, stored_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source, id) DO UPDATE SET
			payload = excluded.payload,
			stored_at = excluded.stored_at
	`, source, id, payload, stamp(at))
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// Purge removes entries stored before the given time.
func (s *Store) Purge(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM source_cache WHERE stored_at < ?", stamp(before))
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged entries: %w", err)
	}
	return int(n), nil
}

// stamp converts t to the stored_at column value. The zero time maps to 0.
func stamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
