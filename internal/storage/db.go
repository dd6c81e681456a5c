package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/campusbot/faq-engine/internal/config"
)

// Open connects to the configured database and verifies the connection.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.SQLite.Path
		if cfg.SQLite.JournalMode != "" {
			dsn = fmt.Sprintf("%s?_journal_mode=%s", dsn, cfg.SQLite.JournalMode)
		}
		db, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if cfg.SQLite.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.SQLite.MaxOpenConns)
		}
	case "postgres":
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.Postgres.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		}
		if cfg.Postgres.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
