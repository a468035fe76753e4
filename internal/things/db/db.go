// Package db reads tasks from the Things 3 SQLite database.
//
// The database is always opened read-only. Things keeps its store in WAL mode
// and may be running while we read; nothing here writes to it.
//
// Tables used:
//   - TMTask: tasks (type 0), projects (type 1) and headings (type 2)
//   - TMTag, TMTaskTag: tag titles and task membership
//   - TMArea: areas
//   - TMChecklistItem: ordered checklist entries per task
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrSchema is returned by Open when the file is a SQLite database but not a
// Things database.
var ErrSchema = errors.New("not a Things database")

// DB wraps a read-only connection to a Things database.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens the database at path read-only and verifies the Things schema.
//
// The caller MUST call Close() when done.
//
// Example:
//
//	handle, err := db.Open(ctx, res.Path)
//	if err != nil {
//	    return err
//	}
//	defer handle.Close()
func Open(ctx context.Context, path string) (*DB, error) {
	dsn, err := readOnlyDSN(path)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single pass reads sequentially; one connection is enough.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.verifySchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// readOnlyDSN builds a file: URI that opens path read-only.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: "mode=ro&_pragma=busy_timeout(5000)",
	}
	return u.String(), nil
}

// verifySchema checks that the tables we query exist.
func (db *DB) verifySchema(ctx context.Context) error {
	required := []string{"TMTask", "TMTag", "TMTaskTag", "TMArea", "TMChecklistItem"}

	for _, table := range required {
		var count int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
		if err := db.conn.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
			return fmt.Errorf("failed to inspect schema: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("%w: missing table %s", ErrSchema, table)
		}
	}
	return nil
}

// Path returns the file the handle was opened on.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// CountTasks returns the number of live, untrashed to-dos in the database.
func (db *DB) CountTasks(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM TMTask WHERE type = 0 AND trashed = 0`
	if err := db.conn.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}
