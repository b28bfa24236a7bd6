package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gwngames/scholargraph/internal/graph"
)

// CacheFile is the SQLite cache path relative to the workspace.
const CacheFile = "cache/graph.db"

// DB wraps the SQLite cache connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Every author seen in a merged result, once
		CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			image TEXT,
			is_root INTEGER NOT NULL DEFAULT 0,
			freq_conf_rank TEXT,
			freq_journal_rank TEXT,
			seq INTEGER NOT NULL
		);

		CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
			id,
			label
		);

		-- Author detail responses, kept verbatim
		CREATE TABLE IF NOT EXISTS author_details (
			id TEXT PRIMARY KEY,
			data_json TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);

		-- Small key/value state carried between invocations
		CREATE TABLE IF NOT EXISTS session_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RebuildFromJournal replays the journal into s and re-indexes the nodes s
// ends up holding, so authors pruned from the store leave the index too. It
// returns the number of distinct nodes indexed.
func (d *DB) RebuildFromJournal(journalPath string, s *graph.Store) (int, error) {
	if _, err := Replay(journalPath, s); err != nil {
		return 0, fmt.Errorf("replaying journal: %w", err)
	}
	if _, err := d.ReplaceNodes(s.Snapshot().Nodes); err != nil {
		return 0, err
	}
	return d.CountNodes()
}

// Clear empties every cache table.
func (d *DB) Clear() error {
	if err := d.ClearNodes(); err != nil {
		return err
	}
	if _, err := d.db.Exec("DELETE FROM author_details"); err != nil {
		return fmt.Errorf("clearing author details: %w", err)
	}
	if _, err := d.db.Exec("DELETE FROM session_state"); err != nil {
		return fmt.Errorf("clearing session state: %w", err)
	}
	return nil
}

func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery turns free text into an FTS5 prefix phrase query.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	query = strings.ReplaceAll(query, "\"", "\"\"")
	return "\"" + query + "\"*"
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
