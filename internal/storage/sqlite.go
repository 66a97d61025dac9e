package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the document context singleton and
// the manual override entries.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "htsgate.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Document context (singleton, replace-on-set) ---

// GetContext returns the active document context, or ErrNotFound when none
// has been set. Absence is a valid state for a fresh install.
func (s *Store) GetContext() (DocumentContext, error) {
	var c DocumentContext
	var mimeType sql.NullString
	var updatedAt string
	err := s.db.QueryRow(`
		SELECT kind, content, mime_type, name, extracted_text, updated_at
		FROM document_context WHERE id = 1`,
	).Scan(&c.Kind, &c.Content, &mimeType, &c.Name, &c.ExtractedText, &updatedAt)
	if err == sql.ErrNoRows {
		return DocumentContext{}, ErrNotFound
	}
	if err != nil {
		return DocumentContext{}, err
	}
	c.MimeType = mimeType.String
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return DocumentContext{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	c.UpdatedAt = t
	return c, nil
}

// SetContext replaces the active document context.
func (s *Store) SetContext(c DocumentContext) error {
	var mimeType any
	if c.MimeType != "" {
		mimeType = c.MimeType
	}
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO document_context (id, kind, content, mime_type, name, extracted_text, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			content = excluded.content,
			mime_type = excluded.mime_type,
			name = excluded.name,
			extracted_text = excluded.extracted_text,
			updated_at = excluded.updated_at`,
		c.Kind, c.Content, mimeType, c.Name, c.ExtractedText,
		updatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ClearContext removes the active document context. Clearing an already
// empty context is not an error.
func (s *Store) ClearContext() error {
	_, err := s.db.Exec(`DELETE FROM document_context WHERE id = 1`)
	return err
}

// --- Manual entries ---

// SaveEntry inserts the entry, or replaces the existing entry with the same
// ID. CreatedAt is preserved on replace.
func (s *Store) SaveEntry(e ManualEntry) error {
	now := time.Now().UTC()
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := e.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	_, err := s.db.Exec(`
		INSERT INTO manual_entries (id, code, category, description, metal_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			category = excluded.category,
			description = excluded.description,
			metal_type = excluded.metal_type,
			updated_at = excluded.updated_at`,
		e.ID, e.Code, e.Category, e.Description, e.MetalType,
		createdAt.Format(time.RFC3339), updatedAt.Format(time.RFC3339),
	)
	return err
}

// GetEntry returns a single manual entry by ID.
func (s *Store) GetEntry(id string) (ManualEntry, error) {
	var e ManualEntry
	var createdAt, updatedAt string
	err := s.db.QueryRow(`
		SELECT id, code, category, description, metal_type, created_at, updated_at
		FROM manual_entries WHERE id = ?`, id,
	).Scan(&e.ID, &e.Code, &e.Category, &e.Description, &e.MetalType, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return ManualEntry{}, ErrNotFound
	}
	if err != nil {
		return ManualEntry{}, err
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return ManualEntry{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return ManualEntry{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return e, nil
}

// ListEntries returns all manual entries in insertion order.
func (s *Store) ListEntries() ([]ManualEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, code, category, description, metal_type, created_at, updated_at
		FROM manual_entries ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ManualEntry
	for rows.Next() {
		var e ManualEntry
		var createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.Code, &e.Category, &e.Description, &e.MetalType, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if e.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// DeleteEntry removes the entry with the given ID.
func (s *Store) DeleteEntry(id string) error {
	res, err := s.db.Exec(`DELETE FROM manual_entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountEntries returns the number of manual entries.
func (s *Store) CountEntries() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM manual_entries`).Scan(&n)
	return n, err
}
