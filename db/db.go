package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

//go:embed migration.sql
var baseMigration string

// New opens (and migrates) a SQLite database at the given path.
func New(path string) (*sql.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	if _, err := db.Exec(baseMigration); err != nil {
		return nil, fmt.Errorf("migrating db: %w", err)
	}
	return db, nil
}

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, err
}

// NewTest creates a migrated database in a temporary directory.
func NewTest(t *testing.T) *sql.DB {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating db: %s", err)
	}
	return db
}
