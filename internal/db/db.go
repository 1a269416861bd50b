package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"surfsup-api/internal/config"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open returns a pooled handle to the observation dataset described by cfg.
// A read-only sqlite open fails when the database file does not exist.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		db, err = sql.Open("postgres", cfg.DSN)
	default:
		dsn, dsnErr := buildDSN(cfg)
		if dsnErr != nil {
			return nil, dsnErr
		}
		if cfg.LogSQL {
			connector, connErr := NewLoggingConnector(dsn, slog.Default())
			if connErr != nil {
				return nil, fmt.Errorf("db connector: %w", connErr)
			}
			db = sql.OpenDB(connector)
		} else {
			db, err = sql.Open(cfg.Driver, dsn)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildDSN(cfg config.Config) (string, error) {
	path := cfg.Path
	if cfg.DSN != "" {
		if !cfg.ReadOnly {
			return cfg.DSN, nil
		}
		path = cfg.DSN
	}

	file, _, _ := strings.Cut(strings.TrimPrefix(path, "file:"), "?")
	var params []string
	if cfg.ReadOnly {
		// sqlite would silently create an empty file otherwise
		if file != ":memory:" {
			if _, err := os.Stat(file); err != nil {
				return "", fmt.Errorf("dataset %s: %w", file, err)
			}
		}
		params = []string{
			"mode=ro",
			"_busy_timeout=5000",
		}
	} else {
		dir := filepath.Dir(file)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		params = []string{
			"_foreign_keys=on",
			"_busy_timeout=5000",
			"_journal_mode=WAL",
		}
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
