package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open creates the database file (and its parent directory) if needed,
// applies the schema, and returns a connection limited to one writer.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// The pipeline stages share this store; a single connection serializes
	// their writes.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS digests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sent_at TEXT NOT NULL,
			paper_count INTEGER NOT NULL,
			recipients TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT NOT NULL DEFAULT '[]',
			abstract TEXT NOT NULL DEFAULT '',
			published TEXT NOT NULL DEFAULT '',
			updated TEXT NOT NULL DEFAULT '',
			categories TEXT NOT NULL DEFAULT '[]',
			pdf_url TEXT NOT NULL DEFAULT '',
			abstract_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'collected',
			relevance_score INTEGER,
			overview TEXT,
			commentary TEXT,
			topics TEXT,
			processing_error TEXT NOT NULL DEFAULT '',
			digest_id INTEGER REFERENCES digests(id),
			collected_at TEXT NOT NULL,
			scored_at TEXT,
			sent_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_papers_status ON papers(status);`,
		`CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published);`,
		`CREATE INDEX IF NOT EXISTS idx_papers_digest ON papers(digest_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
