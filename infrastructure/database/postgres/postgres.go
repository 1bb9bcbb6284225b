package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/vfg2006/daylog-migrator/infrastructure/database"
	"github.com/vfg2006/daylog-migrator/internal/config"
)

// Schema cria as tabelas no Postgres. payload é JSON (e não JSONB) para preservar os bytes gravados.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS entity_records (
		owner_id    TEXT NOT NULL,
		day_key     DATE NOT NULL,
		kind        TEXT NOT NULL,
		natural_key TEXT NOT NULL,
		payload     JSON NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (owner_id, day_key, kind, natural_key)
	)`,
	`CREATE TABLE IF NOT EXISTS migration_runs (
		run_id         TEXT PRIMARY KEY,
		owner_id       TEXT NOT NULL,
		status         TEXT NOT NULL,
		started_at     TIMESTAMPTZ NOT NULL,
		completed_at   TIMESTAMPTZ NULL,
		processed      INTEGER NOT NULL DEFAULT 0,
		total          INTEGER NOT NULL DEFAULT 0,
		counts_by_kind JSON NOT NULL,
		error_summary  JSON NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_migration_runs_owner ON migration_runs (owner_id, started_at)`,
}

func NewConnection(
	ctx context.Context,
	cfg config.Database,
) (*database.Connection, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return database.NewConnection(db, database.DialectPostgres, Schema), nil
}
