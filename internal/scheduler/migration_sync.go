package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/daylog-migrator/internal/config"
	"github.com/vfg2006/daylog-migrator/internal/domain"
	"github.com/vfg2006/daylog-migrator/internal/usecases/migrating"
	"github.com/vfg2006/daylog-migrator/pkg/log"
)

// MigrationSyncConfig representa a configuração do agendador de migração
type MigrationSyncConfig struct {
	CronSchedule string
	SyncEnabled  bool
}

// MigrationSyncService reexecuta a migração periodicamente até todos os donos concluírem
type MigrationSyncService struct {
	scheduler           *gocron.Scheduler
	config              MigrationSyncConfig
	migrator            migrating.Migrator
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastResult          *domain.BatchResult
	lastError           error
}

// NewMigrationSyncService cria uma nova instância do agendador de migração
func NewMigrationSyncService(migrator migrating.Migrator, appConfig *config.Config) *MigrationSyncService {
	syncConfig := MigrationSyncConfig{
		CronSchedule: appConfig.MigrationSync.CronSchedule,
		SyncEnabled:  appConfig.MigrationSync.Enabled,
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule": syncConfig.CronSchedule,
		"sync_enabled":  syncConfig.SyncEnabled,
	}).Info("Configuração do agendador de migração carregada")

	return &MigrationSyncService{
		scheduler: gocron.NewScheduler(time.UTC),
		config:    syncConfig,
		migrator:  migrator,
	}
}

// Start inicia o agendador
func (s *MigrationSyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Agendador de migração desabilitado por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de migração")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.syncMigration(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar migração: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de migração")
		s.scheduler.Stop()
	}()

	return nil
}

// syncMigration executa um lote; ignora o disparo se outro lote ainda estiver rodando
func (s *MigrationSyncService) syncMigration(ctx context.Context) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Migração já em andamento, ignorando")
		return
	}
	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	s.syncMutex.Unlock()

	ctx, correlationID := log.WithCorrelationID(ctx)
	logger := log.ForContext(ctx)
	logger.Info("Iniciando lote de migração agendado")

	result, err := s.migrator.Run(ctx)

	s.syncMutex.Lock()
	s.syncRunning = false
	s.lastSyncCompletedAt = time.Now()
	s.lastResult = result
	s.lastError = err
	duration := s.lastSyncCompletedAt.Sub(s.lastSyncStartedAt)
	s.syncMutex.Unlock()

	fields := log.Fields{
		"correlation_id": correlationID,
		"duration_ms":    duration.Milliseconds(),
	}
	if result != nil {
		fields["count_runs"] = len(result.Runs)
	}
	if err != nil {
		logger.WithFields(fields).WithError(err).Error("Lote de migração terminou com erro")
		return
	}
	logger.WithFields(fields).Info("Lote de migração concluído")
}

// TriggerManualSync inicia manualmente um lote de migração
func (s *MigrationSyncService) TriggerManualSync(ctx context.Context) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Migração já em andamento, ignorando solicitação manual")
		return
	}
	s.syncMutex.Unlock()

	logrus.Info("Iniciando migração manual")
	go s.syncMigration(ctx)
}

// GetStatus retorna o status atual do agendador
func (s *MigrationSyncService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	status := map[string]any{
		"sync_running":           s.syncRunning,
		"sync_cron":              s.config.CronSchedule,
		"sync_enabled":           s.config.SyncEnabled,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
	if s.lastResult != nil {
		status["last_runs"] = len(s.lastResult.Runs)
		status["last_failed"] = s.lastResult.Failed()
	}
	if s.lastError != nil {
		status["last_error"] = s.lastError.Error()
	}
	return status
}
