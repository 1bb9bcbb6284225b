package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vfg2006/daylog-migrator/infrastructure/database"
	"github.com/vfg2006/daylog-migrator/internal/config"
	_ "modernc.org/sqlite"
)

// Schema cria as tabelas no SQLite
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS entity_records (
		owner_id    TEXT NOT NULL,
		day_key     TEXT NOT NULL,
		kind        TEXT NOT NULL,
		natural_key TEXT NOT NULL,
		payload     TEXT NOT NULL,
		created_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (owner_id, day_key, kind, natural_key)
	)`,
	`CREATE TABLE IF NOT EXISTS migration_runs (
		run_id         TEXT PRIMARY KEY,
		owner_id       TEXT NOT NULL,
		status         TEXT NOT NULL,
		started_at     TEXT NOT NULL,
		completed_at   TEXT NULL,
		processed      INTEGER NOT NULL DEFAULT 0,
		total          INTEGER NOT NULL DEFAULT 0,
		counts_by_kind TEXT NOT NULL,
		error_summary  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_migration_runs_owner ON migration_runs (owner_id, started_at)`,
}

// NewConnection abre o arquivo SQLite (ou ":memory:") e cria as tabelas
func NewConnection(ctx context.Context, cfg config.Database) (*database.Connection, error) {
	return Open(ctx, cfg.SQLitePath)
}

// Open abre o SQLite no caminho informado
func Open(ctx context.Context, path string) (*database.Connection, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// um único escritor; também mantém o mesmo banco quando o caminho é ":memory:"
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	conn := database.NewConnection(db, database.DialectSQLite, Schema)
	if err := conn.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return conn, nil
}
