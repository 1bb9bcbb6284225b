package repository

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/daylog-migrator/infrastructure/database"
	"github.com/vfg2006/daylog-migrator/infrastructure/database/sqlite"
	"github.com/vfg2006/daylog-migrator/internal/domain"
)

func openSQLite(t *testing.T) *database.Connection {
	t.Helper()
	conn, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func openPostgresMock(t *testing.T) (*database.Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.NewConnection(db, database.DialectPostgres, nil), mock
}

func record(kind domain.EntityKind, day, key, payload string) domain.EntityRecord {
	return domain.EntityRecord{
		Kind:       kind,
		OwnerID:    "alice",
		DayKey:     domain.MustParseDayKey(day),
		NaturalKey: key,
		Payload:    []byte(payload),
	}
}

func TestEntityRecordRepository_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewEntityRecordRepository(openSQLite(t))

	breakfast := record(domain.KindExpense, "2025-01-15", "breakfast", `{"amount":15.5}`)
	require.NoError(t, repo.Upsert(ctx, breakfast))
	require.NoError(t, repo.Upsert(ctx, breakfast))

	found, err := repo.FindExisting(ctx, "alice", breakfast.DayKey, domain.KindExpense)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, breakfast, found[0])

	// edição no artefato substitui o payload pela mesma chave natural
	edited := record(domain.KindExpense, "2025-01-15", "breakfast", `{"amount":20}`)
	require.NoError(t, repo.Upsert(ctx, edited))

	found, err = repo.FindExisting(ctx, "alice", breakfast.DayKey, domain.KindExpense)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, `{"amount":20}`, string(found[0].Payload))
}

func TestEntityRecordRepository_ListDayIsScoped(t *testing.T) {
	ctx := context.Background()
	repo := NewEntityRecordRepository(openSQLite(t))

	records := []domain.EntityRecord{
		record(domain.KindTask, "2025-01-15", "t1", `{}`),
		record(domain.KindExpense, "2025-01-15", "lunch", `{}`),
		record(domain.KindExpense, "2025-01-16", "lunch", `{}`),
		{Kind: domain.KindTask, OwnerID: "bob", DayKey: domain.MustParseDayKey("2025-01-15"), NaturalKey: "t1", Payload: []byte(`{}`)},
	}
	for _, r := range records {
		require.NoError(t, repo.Upsert(ctx, r))
	}

	day, err := repo.ListDay(ctx, "alice", domain.MustParseDayKey("2025-01-15"))
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, domain.KindExpense, day[0].Kind)
	assert.Equal(t, domain.KindTask, day[1].Kind)

	none, err := repo.ListDay(ctx, "carol", domain.MustParseDayKey("2025-01-15"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEntityRecordRepository_UpsertRejectsInvalidRecord(t *testing.T) {
	repo := NewEntityRecordRepository(openSQLite(t))

	err := repo.Upsert(context.Background(), domain.EntityRecord{Kind: "unknown", OwnerID: "alice", DayKey: domain.MustParseDayKey("2025-01-15")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestEntityRecordRepository_ReplaceDay(t *testing.T) {
	ctx := context.Background()
	repo := NewEntityRecordRepository(openSQLite(t))
	day := domain.MustParseDayKey("2025-01-15")

	require.NoError(t, repo.Upsert(ctx, record(domain.KindExpense, "2025-01-15", "lunch", `{"amount":10}`)))
	require.NoError(t, repo.Upsert(ctx, record(domain.KindTask, "2025-01-15", "t-removed", `{}`)))
	require.NoError(t, repo.Upsert(ctx, record(domain.KindTask, "2025-01-16", "t-other-day", `{}`)))

	deleted, err := repo.ReplaceDay(ctx, "alice", day, []domain.EntityRecord{
		record(domain.KindExpense, "2025-01-15", "lunch", `{"amount":12}`),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	current, err := repo.ListDay(ctx, "alice", day)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, `{"amount":12}`, string(current[0].Payload))

	other, err := repo.ListDay(ctx, "alice", day.AddDays(1))
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestEntityRecordRepository_ReplaceDayRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewEntityRecordRepository(openSQLite(t))
	day := domain.MustParseDayKey("2025-01-15")

	require.NoError(t, repo.Upsert(ctx, record(domain.KindExpense, "2025-01-15", "lunch", `{"amount":10}`)))

	_, err := repo.ReplaceDay(ctx, "alice", day, []domain.EntityRecord{
		record(domain.KindExpense, "2025-01-15", "dinner", `{}`),
		record(domain.KindExpense, "2025-01-16", "dinner", `{}`),
	})
	require.Error(t, err)

	current, err := repo.ListDay(ctx, "alice", day)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "lunch", current[0].NaturalKey)
}

func TestEntityRecordRepository_PostgresUpsert(t *testing.T) {
	conn, mock := openPostgresMock(t)
	repo := NewEntityRecordRepository(conn)
	rec := record(domain.KindExpense, "2025-01-15", "breakfast", `{"amount":15.5}`)

	mock.ExpectExec(`INSERT INTO entity_records \(owner_id,day_key,kind,natural_key,payload\) VALUES \(\$1,\$2,\$3,\$4,\$5\)\s+ON CONFLICT \(owner_id, day_key, kind, natural_key\) DO UPDATE`).
		WithArgs("alice", "2025-01-15", "expense", "breakfast", `{"amount":15.5}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRecordRepository_PostgresFindExistingScansDate(t *testing.T) {
	conn, mock := openPostgresMock(t)
	repo := NewEntityRecordRepository(conn)

	rows := sqlmock.NewRows([]string{"owner_id", "day_key", "kind", "natural_key", "payload"}).
		AddRow("alice", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), "expense", "breakfast", []byte(`{"amount":15.5}`))

	mock.ExpectQuery(`SELECT owner_id, day_key, kind, natural_key, payload FROM entity_records WHERE day_key = \$1 AND kind = \$2 AND owner_id = \$3 ORDER BY kind ASC, natural_key ASC`).
		WithArgs("2025-01-15", "expense", "alice").
		WillReturnRows(rows)

	found, err := repo.FindExisting(context.Background(), "alice", domain.MustParseDayKey("2025-01-15"), domain.KindExpense)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "2025-01-15", found[0].DayKey.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityRecordRepository_ErrorClassification(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantUnavailable bool
	}{
		{name: "Falha de conexão do Postgres", err: &pq.Error{Code: "08006", Message: "connection failure"}, wantUnavailable: true},
		{name: "Servidor encerrando", err: &pq.Error{Code: "57P01", Message: "admin shutdown"}, wantUnavailable: true},
		{name: "Erro de rede", err: &net.OpError{Op: "dial", Net: "tcp", Err: assert.AnError}, wantUnavailable: true},
		{name: "Violação de constraint", err: &pq.Error{Code: "23505", Message: "duplicate key"}, wantUnavailable: false},
		{name: "Erro genérico", err: assert.AnError, wantUnavailable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := openPostgresMock(t)
			repo := NewEntityRecordRepository(conn)

			mock.ExpectExec(`INSERT INTO entity_records`).WillReturnError(tt.err)

			err := repo.Upsert(context.Background(), record(domain.KindHealth, "2025-01-15", "health", `{}`))
			require.Error(t, err)
			assert.Equal(t, tt.wantUnavailable, domain.IsFatal(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEntityRecordRepository_ClosedSQLiteIsUnavailable(t *testing.T) {
	conn, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	repo := NewEntityRecordRepository(conn)
	err = repo.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
