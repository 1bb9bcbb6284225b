package migrating

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vfg2006/daylog-migrator/infrastructure/repository"
	"github.com/vfg2006/daylog-migrator/internal/config"
	"github.com/vfg2006/daylog-migrator/internal/domain"
	"github.com/vfg2006/daylog-migrator/internal/usecases/expanding"
	"github.com/vfg2006/daylog-migrator/internal/usecases/normalizing"
	"github.com/vfg2006/daylog-migrator/pkg/log"
	"github.com/vfg2006/daylog-migrator/pkg/utils"
)

// CompletedPolicy define o que fazer quando o dono já tem uma execução COMPLETED
type CompletedPolicy string

const (
	PolicySkip    CompletedPolicy = config.OnCompletedSkip
	PolicyRestart CompletedPolicy = config.OnCompletedRestart
)

// checkpointEvery é a frequência, em artefatos, com que o progresso é gravado
const checkpointEvery = 25

// Options é a configuração injetada no orquestrador
type Options struct {
	Owners              []domain.Owner
	OnCompleted         CompletedPolicy
	MaxConcurrentOwners int
	TimeBudget          time.Duration
	StaleRunAfter       time.Duration
}

// OptionsFromConfig monta as opções a partir da configuração da aplicação
func OptionsFromConfig(cfg *config.Config) Options {
	owners := make([]domain.Owner, 0, len(cfg.Migration.Owners))
	for _, id := range cfg.Migration.Owners {
		tz := cfg.Migration.OwnerTimezones[id]
		if tz == "" {
			tz = cfg.Migration.DefaultTimezone
		}
		owners = append(owners, domain.Owner{ID: id, Timezone: tz})
	}
	return Options{
		Owners:              owners,
		OnCompleted:         CompletedPolicy(cfg.Migration.OnCompleted),
		MaxConcurrentOwners: cfg.Migration.MaxConcurrentOwners,
		TimeBudget:          cfg.Migration.TimeBudget,
		StaleRunAfter:       cfg.Migration.StaleRunAfter,
	}
}

// DayReplacement é o resultado de um replace-day
type DayReplacement struct {
	OwnerID  string                     `json:"ownerId"`
	DayKey   domain.DayKey              `json:"dayKey"`
	Deleted  int64                      `json:"deleted"`
	Written  int                        `json:"written"`
	Warnings []domain.ValidationWarning `json:"warnings,omitempty"`
}

// Service orquestra Loader → Normalizer → Expander → persistência
type Service struct {
	opts       Options
	source     ArtifactSource
	normalizer *normalizing.Normalizer
	records    repository.EntityRecordRepository
	runs       repository.MigrationRunRepository
	now        func() time.Time

	mu      sync.Mutex
	running map[string]bool
}

// NewService cria o orquestrador de migração
func NewService(
	cfg *config.Config,
	source ArtifactSource,
	normalizer *normalizing.Normalizer,
	records repository.EntityRecordRepository,
	runs repository.MigrationRunRepository,
) *Service {
	return newService(OptionsFromConfig(cfg), source, normalizer, records, runs)
}

func newService(
	opts Options,
	source ArtifactSource,
	normalizer *normalizing.Normalizer,
	records repository.EntityRecordRepository,
	runs repository.MigrationRunRepository,
) *Service {
	if opts.MaxConcurrentOwners < 1 {
		opts.MaxConcurrentOwners = 1
	}
	if opts.OnCompleted == "" {
		opts.OnCompleted = PolicySkip
	}
	return &Service{
		opts:       opts,
		source:     source,
		normalizer: normalizer,
		records:    records,
		runs:       runs,
		now:        func() time.Time { return time.Now().UTC() },
		running:    make(map[string]bool),
	}
}

// Owners retorna os donos configurados
func (s *Service) Owners() []domain.Owner {
	return s.opts.Owners
}

// Run processa todos os donos configurados, com no máximo MaxConcurrentOwners em paralelo.
// Cada dono tem um único worker, então dois escritores nunca disputam a mesma chave natural.
// O TimeBudget vale para o lote inteiro: donos que começam depois do prazo terminam em FAILED com 0/N.
func (s *Service) Run(ctx context.Context) (*domain.BatchResult, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := s.records.Ping(ctx); err != nil {
		return nil, domain.NewFatalError(err)
	}

	budgetCtx, cancel := s.withBudget(ctx)
	defer cancel()

	results := make([]*domain.MigrationRun, len(s.opts.Owners))
	semaphore := make(chan struct{}, s.opts.MaxConcurrentOwners)
	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)

	for i, owner := range s.opts.Owners {
		wg.Add(1)
		semaphore <- struct{}{} // Adquirir semáforo

		go func(i int, owner domain.Owner) {
			defer func() {
				<-semaphore // Liberar semáforo
				wg.Done()
			}()

			run, err := s.runOwner(ctx, budgetCtx, owner)
			results[i] = run
			if err != nil {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("owner %s: %w", owner.ID, err))
				errMu.Unlock()
			}
		}(i, owner)
	}

	wg.Wait()

	batch := &domain.BatchResult{}
	for _, run := range results {
		if run != nil {
			batch.Runs = append(batch.Runs, run)
		}
	}
	return batch, errors.Join(errs...)
}

func (s *Service) validate() error {
	if len(s.opts.Owners) == 0 {
		return domain.NewFatalError(fmt.Errorf("%w: nenhum dono configurado", domain.ErrInvalidConfig))
	}
	seen := make(map[string]bool, len(s.opts.Owners))
	for _, owner := range s.opts.Owners {
		if owner.ID == "" || seen[owner.ID] {
			return domain.NewFatalError(fmt.Errorf("%w: dono vazio ou repetido %q", domain.ErrInvalidConfig, owner.ID))
		}
		seen[owner.ID] = true
	}
	if s.opts.OnCompleted != PolicySkip && s.opts.OnCompleted != PolicyRestart {
		return domain.NewFatalError(fmt.Errorf("%w: política %q", domain.ErrInvalidConfig, s.opts.OnCompleted))
	}
	return nil
}

// acquire impede duas execuções simultâneas para o mesmo dono neste processo
func (s *Service) acquire(ownerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[ownerID] {
		return false
	}
	s.running[ownerID] = true
	return true
}

func (s *Service) release(ownerID string) {
	s.mu.Lock()
	delete(s.running, ownerID)
	s.mu.Unlock()
}

// RunOwner executa a migração de um dono com seu próprio TimeBudget. Só retorna erro
// para falhas fatais ou quando já existe uma execução em andamento para o dono.
func (s *Service) RunOwner(ctx context.Context, owner domain.Owner) (*domain.MigrationRun, error) {
	budgetCtx, cancel := s.withBudget(ctx)
	defer cancel()
	return s.runOwner(ctx, budgetCtx, owner)
}

// runOwner consulta budgetCtx apenas entre artefatos; leituras e escritas usam ctx
func (s *Service) runOwner(ctx, budgetCtx context.Context, owner domain.Owner) (*domain.MigrationRun, error) {
	if !s.acquire(owner.ID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, owner.ID)
	}
	defer s.release(owner.ID)

	logger := log.ForContext(ctx).WithField("owner_id", owner.ID)

	previous, err := s.runs.GetLatestRun(ctx, owner.ID)
	if err != nil {
		return nil, domain.NewFatalError(err)
	}
	if previous != nil {
		switch previous.Status {
		case domain.RunCompleted:
			if s.opts.OnCompleted == PolicySkip {
				logger.WithField("run_id", previous.RunID).Info("Migração já concluída para o dono, ignorando")
				previous.Skipped = true
				return previous, nil
			}
			logger.WithField("run_id", previous.RunID).Info("Migração já concluída, reiniciando por configuração")
		case domain.RunRunning:
			if s.opts.StaleRunAfter == 0 || s.now().Sub(previous.StartedAt) < s.opts.StaleRunAfter {
				return nil, fmt.Errorf("%w: run %s", domain.ErrRunInProgress, previous.RunID)
			}
			if err := s.abandon(ctx, previous); err != nil {
				return nil, err
			}
		}
	}

	runID, err := utils.GenerateRunID()
	if err != nil {
		return nil, domain.NewFatalError(fmt.Errorf("erro ao gerar id da execução: %w", err))
	}
	run := domain.NewMigrationRun(runID, owner.ID)
	if err := run.Transition(domain.RunRunning, s.now()); err != nil {
		return nil, domain.NewFatalError(err)
	}

	ctx = log.WithRunID(ctx, runID)
	logger = log.ForContext(ctx).WithField("owner_id", owner.ID)

	if err := s.runs.SaveRun(ctx, run); err != nil {
		return s.finish(ctx, run, domain.NewFatalError(err), nil)
	}

	refs, err := s.source.List(ctx, owner.ID)
	if err != nil {
		return s.finish(ctx, run, domain.NewFatalError(fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)), nil)
	}
	run.Total = len(refs)

	logger.WithField("count_artifacts", run.Total).Info("Iniciando migração do dono")

	// escritas de um artefato não são interrompidas no meio; o corte acontece entre artefatos
	writeCtx := context.WithoutCancel(ctx)
	seenDays := make(map[domain.DayKey]string)

	for _, ref := range refs {
		if err := budgetCtx.Err(); err != nil {
			return s.finish(ctx, run, nil, err)
		}
		if err := s.processArtifact(writeCtx, run, owner, ref, seenDays); err != nil {
			return s.finish(ctx, run, err, nil)
		}
		run.Processed++

		if run.Processed%checkpointEvery == 0 && run.Processed < run.Total {
			if err := s.runs.SaveRun(writeCtx, run); err != nil {
				logger.WithError(err).Warn("Erro ao gravar progresso da execução")
			}
		}
	}

	return s.finish(ctx, run, nil, nil)
}

func (s *Service) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.TimeBudget > 0 {
		return context.WithTimeout(ctx, s.opts.TimeBudget)
	}
	return context.WithCancel(ctx)
}

// abandon marca como FAILED uma execução RUNNING antiga, deixada por um processo que morreu
func (s *Service) abandon(ctx context.Context, run *domain.MigrationRun) error {
	log.ForContext(ctx).WithFields(log.Fields{
		"owner_id": run.OwnerID,
		"run_id":   run.RunID,
	}).Warn("Execução RUNNING abandonada, marcando como FAILED")

	if err := run.Transition(domain.RunFailed, s.now()); err != nil {
		return domain.NewFatalError(err)
	}
	run.ErrorSummary.Interrupted = "execução abandonada"
	if err := s.runs.SaveRun(ctx, run); err != nil {
		return domain.NewFatalError(err)
	}
	return nil
}

// processArtifact leva um artefato até a persistência. Erros de parse, validação e escrita
// são agregados na execução; apenas erros fatais são retornados.
func (s *Service) processArtifact(
	ctx context.Context,
	run *domain.MigrationRun,
	owner domain.Owner,
	ref domain.ArtifactRef,
	seenDays map[domain.DayKey]string,
) error {
	logger := log.ForContext(ctx).WithFields(log.Fields{
		"owner_id":    owner.ID,
		"artifact_id": ref.ID,
	})

	raw, err := s.source.Load(ctx, ref)
	if err != nil {
		s.recordRecoverable(logger, run, domain.NewParseError(ref.ID, err))
		return nil
	}
	raw.Timezone = owner.Timezone

	snap, err := s.normalizer.Normalize(raw)
	if err != nil {
		s.recordRecoverable(logger, run, err)
		return nil
	}
	for _, w := range snap.Warnings {
		run.RecordError(&domain.MigrationError{
			Class:      domain.ClassValidation,
			ArtifactID: ref.ID,
			Field:      w.Section + "." + w.Field,
			Err:        w,
		})
	}
	if len(snap.Warnings) > 0 {
		logger.WithField("count_warnings", len(snap.Warnings)).Debug("Campos opcionais substituídos pelo padrão")
	}

	if other, ok := seenDays[snap.DayKey]; ok {
		logger.WithFields(log.Fields{
			"day_key":        snap.DayKey.String(),
			"other_artifact": other,
		}).Warn("Dia repetido no lote, o artefato mais recente sobrescreve os registros")
	}
	seenDays[snap.DayKey] = ref.ID

	records, err := expanding.Expand(snap)
	if err != nil {
		s.recordRecoverable(logger, run, domain.NewParseError(ref.ID, err))
		return nil
	}

	return s.writeRecords(ctx, logger, run, ref.ID, snap, records)
}

// writeRecords grava os registros por tipo. Payloads idênticos aos já gravados contam
// como unchanged e não geram escrita.
func (s *Service) writeRecords(
	ctx context.Context,
	logger log.Logger,
	run *domain.MigrationRun,
	artifactID string,
	snap *domain.DaySnapshot,
	records []domain.EntityRecord,
) error {
	for _, group := range groupByKind(records) {
		kind := group[0].Kind
		existing := make(map[string][]byte)

		found, err := s.records.FindExisting(ctx, snap.OwnerID, snap.DayKey, kind)
		switch {
		case err != nil && domain.IsFatal(err):
			run.Count(kind).Attempted += len(group)
			run.Count(kind).Failed += len(group)
			return &domain.MigrationError{Class: domain.ClassFatal, ArtifactID: artifactID, Kind: kind, Err: err}
		case err != nil:
			logger.WithField("kind", string(kind)).WithError(err).Warn("Erro ao consultar registros existentes, gravando sem comparar")
		default:
			for _, rec := range found {
				existing[rec.NaturalKey] = rec.Payload
			}
		}

		for _, rec := range group {
			count := run.Count(kind)
			count.Attempted++

			if prev, ok := existing[rec.NaturalKey]; ok && bytes.Equal(prev, rec.Payload) {
				count.Unchanged++
				count.Succeeded++
				continue
			}

			if err := s.records.Upsert(ctx, rec); err != nil {
				count.Failed++
				if domain.IsFatal(err) {
					return &domain.MigrationError{Class: domain.ClassFatal, ArtifactID: artifactID, Kind: kind, Err: err}
				}
				s.recordRecoverable(logger.WithField("kind", string(kind)), run, domain.NewWriteError(artifactID, kind, err))
				continue
			}
			count.Succeeded++
		}
	}
	return nil
}

// recordRecoverable registra um erro recuperável na execução
func (s *Service) recordRecoverable(logger log.Logger, run *domain.MigrationRun, err error) {
	run.RecordError(err)
	logger.WithError(err).Warn("Erro recuperado durante a migração")
}

// finish fecha a execução: COMPLETED sem erro fatal nem interrupção, FAILED caso contrário
func (s *Service) finish(ctx context.Context, run *domain.MigrationRun, fatal error, interrupted error) (*domain.MigrationRun, error) {
	saveCtx := context.WithoutCancel(ctx)
	logger := log.ForContext(ctx).WithField("owner_id", run.OwnerID)

	status := domain.RunCompleted
	switch {
	case fatal != nil:
		status = domain.RunFailed
		run.RecordError(fatal)
	case interrupted != nil:
		status = domain.RunFailed
		run.ErrorSummary.Interrupted = fmt.Sprintf("interrompida após %d/%d artefatos: %v", run.Processed, run.Total, interrupted)
	}
	if err := run.Transition(status, s.now()); err != nil {
		return run, domain.NewFatalError(err)
	}

	if err := s.runs.SaveRun(saveCtx, run); err != nil {
		logger.WithError(err).Error("Erro ao gravar status final da execução")
		if fatal == nil {
			fatal = domain.NewFatalError(err)
		}
	}

	for _, kind := range run.SortedKinds() {
		c := run.CountsByKind[kind]
		logger.WithFields(log.Fields{
			"kind":            string(kind),
			"count_attempted": c.Attempted,
			"count_succeeded": c.Succeeded,
			"count_unchanged": c.Unchanged,
			"count_failed":    c.Failed,
		}).Info("Registros migrados por tipo")
	}

	fields := log.Fields{
		"count_processed": run.Processed,
		"count_total":     run.Total,
		"count_parse":     run.ErrorSummary.ParseErrors,
		"count_write":     run.ErrorSummary.WriteErrors,
		"count_warnings":  run.ErrorSummary.ValidationWarnings,
	}
	switch {
	case fatal != nil:
		logger.WithFields(fields).WithError(fatal).Error("Migração do dono falhou")
	case interrupted != nil:
		logger.WithFields(fields).Warn("Migração do dono interrompida, execução parcial")
	default:
		logger.WithFields(fields).Info("Migração do dono concluída")
	}

	return run, fatal
}

// ReplaceDay apaga e regrava todos os registros do dia do artefato. É a única operação que remove registros.
func (s *Service) ReplaceDay(ctx context.Context, owner domain.Owner, ref domain.ArtifactRef) (*DayReplacement, error) {
	if !s.acquire(owner.ID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, owner.ID)
	}
	defer s.release(owner.ID)

	raw, err := s.source.Load(ctx, ref)
	if err != nil {
		return nil, domain.NewParseError(ref.ID, err)
	}
	raw.OwnerID = owner.ID
	raw.Timezone = owner.Timezone

	snap, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}
	records, err := expanding.Expand(snap)
	if err != nil {
		return nil, domain.NewParseError(ref.ID, err)
	}

	deleted, err := s.records.ReplaceDay(ctx, owner.ID, snap.DayKey, records)
	if err != nil {
		if domain.IsFatal(err) {
			return nil, domain.NewFatalError(err)
		}
		return nil, domain.NewWriteError(ref.ID, "", err)
	}

	log.ForContext(ctx).WithFields(log.Fields{
		"owner_id":      owner.ID,
		"artifact_id":   ref.ID,
		"day_key":       snap.DayKey.String(),
		"count_deleted": deleted,
		"count_written": len(records),
	}).Info("Dia substituído")

	return &DayReplacement{
		OwnerID:  owner.ID,
		DayKey:   snap.DayKey,
		Deleted:  deleted,
		Written:  len(records),
		Warnings: snap.Warnings,
	}, nil
}

// groupByKind agrupa registros consecutivos do mesmo tipo; Expand já os entrega ordenados
func groupByKind(records []domain.EntityRecord) [][]domain.EntityRecord {
	var groups [][]domain.EntityRecord
	for i, rec := range records {
		if i == 0 || rec.Kind != records[i-1].Kind {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], rec)
	}
	return groups
}
