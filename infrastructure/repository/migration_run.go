package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/vfg2006/daylog-migrator/infrastructure/database"
	"github.com/vfg2006/daylog-migrator/internal/domain"
)

//go:generate mockgen -source=migration_run.go -destination=mocks/migration_run.go -package=mocks

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	migrationRunsTable = "migration_runs"

	// timestampLayout tem largura fixa para que a ordenação textual no SQLite siga a cronológica
	timestampLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// MigrationRunRepository guarda o registro de status das execuções
type MigrationRunRepository interface {
	SaveRun(ctx context.Context, run *domain.MigrationRun) error
	GetLatestRun(ctx context.Context, ownerID string) (*domain.MigrationRun, error)
}

type migrationRunRepository struct {
	conn *database.Connection
}

func NewMigrationRunRepository(conn *database.Connection) MigrationRunRepository {
	return &migrationRunRepository{
		conn: conn,
	}
}

// SaveRun grava ou atualiza a execução pelo run_id
func (r *migrationRunRepository) SaveRun(ctx context.Context, run *domain.MigrationRun) error {
	counts, err := json.Marshal(run.CountsByKind)
	if err != nil {
		return errors.Wrap(err, "erro ao serializar counts_by_kind")
	}
	summary, err := json.Marshal(run.ErrorSummary)
	if err != nil {
		return errors.Wrap(err, "erro ao serializar error_summary")
	}

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = formatTimestamp(*run.CompletedAt)
	}

	query, args, err := r.conn.Builder().
		Insert(migrationRunsTable).
		Columns("run_id", "owner_id", "status", "started_at", "completed_at", "processed", "total", "counts_by_kind", "error_summary").
		Values(
			run.RunID,
			run.OwnerID,
			string(run.Status),
			formatTimestamp(run.StartedAt),
			completedAt,
			run.Processed,
			run.Total,
			string(counts),
			string(summary),
		).
		Suffix(`
			ON CONFLICT (run_id) DO UPDATE SET
				status = EXCLUDED.status,
				completed_at = EXCLUDED.completed_at,
				processed = EXCLUDED.processed,
				total = EXCLUDED.total,
				counts_by_kind = EXCLUDED.counts_by_kind,
				error_summary = EXCLUDED.error_summary
		`).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "erro ao construir a query")
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "erro ao gravar execução")
	}
	return nil
}

// GetLatestRun retorna a execução mais recente do dono, ou nil se não houver
func (r *migrationRunRepository) GetLatestRun(ctx context.Context, ownerID string) (*domain.MigrationRun, error) {
	query, args, err := r.conn.Builder().
		Select("run_id", "owner_id", "status", "started_at", "completed_at", "processed", "total", "counts_by_kind", "error_summary").
		From(migrationRunsTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query")
	}

	row := r.conn.QueryRowContext(ctx, query, args...)
	run, err := scanMigrationRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err, "erro ao escanear execução")
	}
	return run, nil
}

func scanMigrationRun(row *sql.Row) (*domain.MigrationRun, error) {
	var (
		run         domain.MigrationRun
		status      string
		startedAt   any
		completedAt any
		counts      []byte
		summary     []byte
	)
	err := row.Scan(
		&run.RunID,
		&run.OwnerID,
		&status,
		&startedAt,
		&completedAt,
		&run.Processed,
		&run.Total,
		&counts,
		&summary,
	)
	if err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)

	if run.StartedAt, err = scanTimestamp(startedAt); err != nil {
		return nil, errors.Wrap(err, "erro ao converter started_at")
	}
	if completedAt != nil {
		t, err := scanTimestamp(completedAt)
		if err != nil {
			return nil, errors.Wrap(err, "erro ao converter completed_at")
		}
		run.CompletedAt = &t
	}

	run.CountsByKind = make(map[domain.EntityKind]*domain.KindCount)
	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &run.CountsByKind); err != nil {
			return nil, errors.Wrap(err, "erro ao deserializar counts_by_kind")
		}
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &run.ErrorSummary); err != nil {
			return nil, errors.Wrap(err, "erro ao deserializar error_summary")
		}
	}
	return &run, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func scanTimestamp(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case []byte:
		return scanTimestamp(string(v))
	case string:
		for _, layout := range []string{timestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, errors.Errorf("timestamp inválido %q", v)
	default:
		return time.Time{}, errors.Errorf("tipo inesperado para timestamp: %T", value)
	}
}
