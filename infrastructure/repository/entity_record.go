package repository

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/vfg2006/daylog-migrator/infrastructure/database"
	"github.com/vfg2006/daylog-migrator/internal/domain"
)

//go:generate mockgen -source=entity_record.go -destination=mocks/entity_record.go -package=mocks

const (
	entityRecordsTable = "entity_records"
)

// upsertSuffix faz o create-or-replace pela chave natural; funciona no Postgres e no SQLite
const upsertSuffix = `
			ON CONFLICT (owner_id, day_key, kind, natural_key) DO UPDATE SET
				payload = EXCLUDED.payload,
				updated_at = CURRENT_TIMESTAMP`

// EntityRecordRepository é a porta de persistência dos registros gerados pelo fan-out
type EntityRecordRepository interface {
	Upsert(ctx context.Context, record domain.EntityRecord) error
	FindExisting(ctx context.Context, ownerID string, day domain.DayKey, kind domain.EntityKind) ([]domain.EntityRecord, error)
	ListDay(ctx context.Context, ownerID string, day domain.DayKey) ([]domain.EntityRecord, error)
	ReplaceDay(ctx context.Context, ownerID string, day domain.DayKey, records []domain.EntityRecord) (int64, error)
	Ping(ctx context.Context) error
}

type entityRecordRepository struct {
	conn *database.Connection
}

func NewEntityRecordRepository(conn *database.Connection) EntityRecordRepository {
	return &entityRecordRepository{
		conn: conn,
	}
}

func (r *entityRecordRepository) Ping(ctx context.Context) error {
	return classify(r.conn.Ping(ctx), "erro ao testar conexão")
}

func (r *entityRecordRepository) Upsert(ctx context.Context, record domain.EntityRecord) error {
	query, args, err := r.upsertQuery(record)
	if err != nil {
		return errors.Wrap(err, "erro ao construir a query")
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "erro ao executar o upsert")
	}
	return nil
}

func (r *entityRecordRepository) upsertQuery(record domain.EntityRecord) (string, []any, error) {
	if record.OwnerID == "" || record.DayKey.IsZero() || !record.Kind.IsValid() {
		return "", nil, errors.Errorf("registro inválido: %s", record.Identity())
	}
	return r.conn.Builder().
		Insert(entityRecordsTable).
		Columns("owner_id", "day_key", "kind", "natural_key", "payload").
		Values(
			record.OwnerID,
			record.DayKey.String(),
			string(record.Kind),
			record.NaturalKey,
			string(record.Payload),
		).
		Suffix(upsertSuffix).
		ToSql()
}

func (r *entityRecordRepository) FindExisting(ctx context.Context, ownerID string, day domain.DayKey, kind domain.EntityKind) ([]domain.EntityRecord, error) {
	return r.list(ctx, squirrel.Eq{
		"owner_id": ownerID,
		"day_key":  day.String(),
		"kind":     string(kind),
	})
}

func (r *entityRecordRepository) ListDay(ctx context.Context, ownerID string, day domain.DayKey) ([]domain.EntityRecord, error) {
	return r.list(ctx, squirrel.Eq{
		"owner_id": ownerID,
		"day_key":  day.String(),
	})
}

func (r *entityRecordRepository) list(ctx context.Context, where squirrel.Eq) ([]domain.EntityRecord, error) {
	query, args, err := r.conn.Builder().
		Select("owner_id", "day_key", "kind", "natural_key", "payload").
		From(entityRecordsTable).
		Where(where).
		OrderBy("kind ASC", "natural_key ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query")
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "erro ao executar a query")
	}
	defer rows.Close()

	records := make([]domain.EntityRecord, 0)
	for rows.Next() {
		record, err := scanEntityRecord(rows)
		if err != nil {
			return nil, errors.Wrap(err, "erro ao escanear registro")
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, classify(err, "erro durante a iteração de linhas")
	}

	return records, nil
}

// ReplaceDay apaga todos os registros do dono no dia e grava os novos numa única transação
func (r *entityRecordRepository) ReplaceDay(ctx context.Context, ownerID string, day domain.DayKey, records []domain.EntityRecord) (int64, error) {
	var deleted int64

	err := r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		query, args, err := r.conn.Builder().
			Delete(entityRecordsTable).
			Where(squirrel.Eq{"owner_id": ownerID, "day_key": day.String()}).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "erro ao construir a query")
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return classify(err, "erro ao apagar registros do dia")
		}
		if deleted, err = result.RowsAffected(); err != nil {
			return errors.Wrap(err, "erro ao obter número de linhas afetadas")
		}

		for _, record := range records {
			if record.OwnerID != ownerID || record.DayKey != day {
				return errors.Errorf("registro %s fora do dia %s/%s", record.Identity(), ownerID, day)
			}
			query, args, err := r.upsertQuery(record)
			if err != nil {
				return errors.Wrap(err, "erro ao construir a query")
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return classify(err, "erro ao gravar registro "+record.Identity())
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "erro ao substituir o dia")
	}

	return deleted, nil
}

func scanEntityRecord(rows *sql.Rows) (domain.EntityRecord, error) {
	var (
		record  domain.EntityRecord
		dayRaw  any
		kind    string
		payload []byte
	)
	if err := rows.Scan(&record.OwnerID, &dayRaw, &kind, &record.NaturalKey, &payload); err != nil {
		return record, err
	}

	day, err := domain.ScanDayKey(dayRaw)
	if err != nil {
		return record, err
	}
	record.DayKey = day
	record.Kind = domain.EntityKind(kind)
	record.Payload = payload
	return record, nil
}
