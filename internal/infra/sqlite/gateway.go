// Package sqlite persists progress keys in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ranczo-quiz/internal/domain"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// Gateway is an app.Gateway backed by a kv table.
type Gateway struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Gateway, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &Gateway{db: db}, nil
}

func (g *Gateway) Get(ctx context.Context, key string) (string, error) {
	query, args, err := sqlBuilder.Select("value").From("kv").Where(squirrel.Eq{"key": key}).ToSql()
	if err != nil {
		return "", err
	}
	var value string
	err = g.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (g *Gateway) Set(ctx context.Context, key, value string) error {
	query, args, err := sqlBuilder.Insert("kv").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (g *Gateway) Remove(ctx context.Context, key string) error {
	query, args, err := sqlBuilder.Delete("kv").Where(squirrel.Eq{"key": key}).ToSql()
	if err != nil {
		return err
	}
	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (g *Gateway) Close() error {
	return g.db.Close()
}
