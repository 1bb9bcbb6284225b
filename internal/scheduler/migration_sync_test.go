package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/daylog-migrator/internal/config"
	"github.com/vfg2006/daylog-migrator/internal/domain"
	"github.com/vfg2006/daylog-migrator/internal/usecases/migrating/mocks"
	"go.uber.org/mock/gomock"
)

func newTestService(t *testing.T, enabled bool) (*MigrationSyncService, *mocks.MockMigrator) {
	ctrl := gomock.NewController(t)
	migrator := mocks.NewMockMigrator(ctrl)
	cfg := &config.Config{MigrationSync: config.MigrationSync{CronSchedule: "0 3 * * *", Enabled: enabled}}
	return NewMigrationSyncService(migrator, cfg), migrator
}

func TestMigrationSyncService_syncMigration(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(m *mocks.MockMigrator)
		validate func(t *testing.T, status map[string]any)
	}{
		{
			name: "Lote concluído registra resultado",
			setup: func(m *mocks.MockMigrator) {
				run := domain.NewMigrationRun("run-1", "alice")
				run.Status = domain.RunCompleted
				m.EXPECT().Run(gomock.Any()).Return(&domain.BatchResult{Runs: []*domain.MigrationRun{run}}, nil)
			},
			validate: func(t *testing.T, status map[string]any) {
				assert.Equal(t, false, status["sync_running"])
				assert.Equal(t, 1, status["last_runs"])
				assert.Equal(t, false, status["last_failed"])
				assert.NotContains(t, status, "last_error")
			},
		},
		{
			name: "Erro fatal fica visível no status",
			setup: func(m *mocks.MockMigrator) {
				m.EXPECT().Run(gomock.Any()).Return(nil, domain.NewFatalError(domain.ErrStoreUnavailable))
			},
			validate: func(t *testing.T, status map[string]any) {
				assert.Contains(t, status["last_error"], "persistence store unavailable")
				assert.NotContains(t, status, "last_runs")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, migrator := newTestService(t, true)
			tt.setup(migrator)

			service.syncMigration(context.Background())

			status := service.GetStatus()
			assert.Equal(t, "0 3 * * *", status["sync_cron"])
			tt.validate(t, status)
		})
	}
}

func TestMigrationSyncService_skipsWhenRunning(t *testing.T) {
	service, _ := newTestService(t, true)
	service.syncRunning = true

	// nenhuma chamada a Run é esperada pelo mock
	service.syncMigration(context.Background())
	service.TriggerManualSync(context.Background())

	assert.Equal(t, true, service.GetStatus()["sync_running"])
}

func TestMigrationSyncService_StartDisabled(t *testing.T) {
	service, _ := newTestService(t, false)

	require.NoError(t, service.Start(context.Background()))
	assert.Equal(t, false, service.GetStatus()["sync_enabled"])
}

func TestMigrationSyncService_StartInvalidCron(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := &config.Config{MigrationSync: config.MigrationSync{CronSchedule: "not a cron", Enabled: true}}
	service := NewMigrationSyncService(mocks.NewMockMigrator(ctrl), cfg)

	err := service.Start(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
