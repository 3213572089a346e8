// Package history persists the snippets inserted into notebooks.
package history

import (
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one inserted snippet.
type Entry struct {
	ID         int
	Engine     string
	Database   string
	Schema     string
	Table      string
	Snippet    string
	InsertedAt time.Time
}

// Store manages snippet history persistence.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the history database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Add records an inserted snippet.
func (s *Store) Add(e Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO snippet_history (engine, database_name, schema_name, table_name, snippet, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Engine, e.Database, e.Schema, e.Table, e.Snippet, time.Now())
	return err
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, engine, database_name, schema_name, table_name, snippet, inserted_at
		FROM snippet_history
		ORDER BY inserted_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Engine, &e.Database, &e.Schema, &e.Table, &e.Snippet, &e.InsertedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes everything but the newest max entries.
func (s *Store) Prune(max int) error {
	_, err := s.db.Exec(`
		DELETE FROM snippet_history
		WHERE id NOT IN (
			SELECT id FROM snippet_history ORDER BY inserted_at DESC, id DESC LIMIT ?
		)`, max)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
