package askdocs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// manifest records which source documents the collection holds. The vector
// store keeps only flat chunk records, so listing distinct sources and
// detecting unknown filenames go through this table.
type manifest struct {
	db *sql.DB
}

const manifestSchema = `
CREATE TABLE IF NOT EXISTS documents (
	filename  TEXT PRIMARY KEY,
	chunks    INTEGER NOT NULL,
	added_at  TIMESTAMP NOT NULL
);`

// openManifest opens (and creates if needed) the manifest database under
// dataDir. An empty dataDir opens an in-memory database.
func openManifest(dataDir string) (*manifest, error) {
	dbPath := ":memory:"
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		dbPath = filepath.Join(dataDir, "manifest.db") + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest database: %w", err)
	}

	if _, err := db.Exec(manifestSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize manifest schema: %w", err)
	}

	return &manifest{db: db}, nil
}

func (m *manifest) Close() error {
	return m.db.Close()
}

func (m *manifest) Add(ctx context.Context, filename string, chunks int) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO documents (filename, chunks, added_at) VALUES (?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET chunks = chunks + excluded.chunks`,
		filename, chunks, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record document %s: %w", filename, err)
	}
	return nil
}

func (m *manifest) Remove(ctx context.Context, filename string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM documents WHERE filename = ?`, filename)
	if err != nil {
		return fmt.Errorf("failed to remove document %s: %w", filename, err)
	}
	return nil
}

func (m *manifest) Has(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM documents WHERE filename = ?)`, filename).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up document %s: %w", filename, err)
	}
	return exists, nil
}

func (m *manifest) List(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT filename FROM documents ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var filenames []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		filenames = append(filenames, name)
	}
	return filenames, rows.Err()
}
