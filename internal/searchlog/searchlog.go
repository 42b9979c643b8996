// Package searchlog records search queries to a small on-disk SQLite
// database for later reporting. The serve command records each local search
// made through GET /api/search; CLI, MCP, and federation searches are not
// recorded. It is an auxiliary analytics trail alongside the JSON-cached
// index, never a replacement for it.
package searchlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the on-disk query log, relative to the vault root.
const FileName = ".org-viewer-searchlog.db"

// Log records search queries against a SQLite-backed store.
type Log struct {
	db *sql.DB
}

// Entry is one recorded search call.
type Entry struct {
	Query  string `json:"query"`
	Hits   int    `json:"hits"`
	AtUnix int64  `json:"at"`
}

// Open creates (if needed) and opens the search log at path.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("searchlog: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("searchlog: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("searchlog: open: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		hits INTEGER NOT NULL,
		at_unix INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("searchlog: create schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends one search call. Callers treat failures as non-fatal —
// losing a log entry must never interrupt a search response.
func (l *Log) Record(ctx context.Context, query string, hits int, atUnix int64) error {
	_, err := l.db.ExecContext(ctx, `INSERT INTO searches (query, hits, at_unix) VALUES (?, ?, ?)`, query, hits, atUnix)
	return err
}

// Recent returns the most recently recorded searches, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `SELECT query, hits, at_unix FROM searches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Query, &e.Hits, &e.AtUnix); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TopQueries returns the most frequently issued queries with their total
// hit counts, descending by frequency.
func (l *Log) TopQueries(ctx context.Context, limit int) ([]TopQuery, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT query, COUNT(*) AS calls, SUM(hits) AS total_hits FROM searches GROUP BY query ORDER BY calls DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopQuery
	for rows.Next() {
		var t TopQuery
		if err := rows.Scan(&t.Query, &t.Calls, &t.TotalHits); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TopQuery summarizes repeated search calls for the same query text.
type TopQuery struct {
	Query     string `json:"query"`
	Calls     int    `json:"calls"`
	TotalHits int    `json:"totalHits"`
}
