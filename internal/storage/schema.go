package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the tables the engine reads. Written to run on
// both SQLite and Postgres.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS officers (
		id INTEGER PRIMARY KEY,
		org_id INTEGER REFERENCES organizations(id),
		name TEXT NOT NULL,
		phone TEXT,
		is_active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY,
		parent_id INTEGER,
		name TEXT NOT NULL,
		pdf_path TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS category_contacts (
		id INTEGER PRIMARY KEY,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		contact TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS faq_entries (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		category_id INTEGER REFERENCES categories(id),
		officer_id INTEGER REFERENCES officers(id),
		reviewed_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS keywords (
		id INTEGER PRIMARY KEY,
		text TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS entry_keywords (
		entry_id INTEGER NOT NULL REFERENCES faq_entries(id),
		keyword_id INTEGER NOT NULL REFERENCES keywords(id),
		PRIMARY KEY (entry_id, keyword_id)
	)`,
	`CREATE TABLE IF NOT EXISTS stopwords (
		id INTEGER PRIMARY KEY,
		text TEXT NOT NULL UNIQUE,
		updated_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS keyword_synonyms (
		id INTEGER PRIMARY KEY,
		input_word TEXT NOT NULL UNIQUE,
		keyword_id INTEGER NOT NULL REFERENCES keywords(id),
		is_active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS negative_keywords (
		id INTEGER PRIMARY KEY,
		word TEXT NOT NULL UNIQUE,
		weight_modifier REAL NOT NULL DEFAULT -1.0,
		is_active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS negative_keyword_ignores (
		id INTEGER PRIMARY KEY,
		word TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS semantic_pairs (
		id INTEGER PRIMARY KEY,
		word_a TEXT NOT NULL,
		word_b TEXT NOT NULL,
		similarity REAL NOT NULL,
		UNIQUE (word_a, word_b)
	)`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
