package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/daylog-migrator/internal/domain"
)

func TestMigrationRunRepository_SaveAndGetLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewMigrationRunRepository(openSQLite(t))

	none, err := repo.GetLatestRun(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, none)

	base := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)

	older := domain.NewMigrationRun("run-old", "alice")
	require.NoError(t, older.Transition(domain.RunRunning, base))
	require.NoError(t, older.Transition(domain.RunFailed, base.Add(time.Minute)))
	require.NoError(t, repo.SaveRun(ctx, older))

	latest := domain.NewMigrationRun("run-new", "alice")
	require.NoError(t, latest.Transition(domain.RunRunning, base.Add(time.Hour)))
	latest.Total = 10
	require.NoError(t, repo.SaveRun(ctx, latest))

	got, err := repo.GetLatestRun(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run-new", got.RunID)
	assert.Equal(t, domain.RunRunning, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.True(t, base.Add(time.Hour).Equal(got.StartedAt))

	// a mesma execução é atualizada pelo run_id
	latest.Processed = 10
	latest.Count(domain.KindExpense).Attempted = 3
	latest.Count(domain.KindExpense).Succeeded = 3
	latest.RecordError(domain.NewParseError("day-9", assert.AnError))
	require.NoError(t, latest.Transition(domain.RunCompleted, base.Add(2*time.Hour)))
	require.NoError(t, repo.SaveRun(ctx, latest))

	got, err = repo.GetLatestRun(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, base.Add(2*time.Hour).Equal(*got.CompletedAt))
	assert.Equal(t, 10, got.Processed)
	assert.Equal(t, 10, got.Total)
	assert.Equal(t, &domain.KindCount{Attempted: 3, Succeeded: 3}, got.CountsByKind[domain.KindExpense])
	assert.Equal(t, 1, got.ErrorSummary.ParseErrors)

	other, err := repo.GetLatestRun(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, other)
}
