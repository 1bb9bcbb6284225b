package domain

import (
	"fmt"
	"sort"
	"time"
)

// RunStatus é o estado de uma execução de migração
type RunStatus string

const (
	RunNotStarted RunStatus = "NOT_STARTED"
	RunRunning    RunStatus = "RUNNING"
	RunCompleted  RunStatus = "COMPLETED"
	RunFailed     RunStatus = "FAILED"
)

// IsTerminal indica se o estado é final
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

func allowedTransition(from, to RunStatus) bool {
	switch from {
	case RunNotStarted:
		return to == RunRunning
	case RunRunning:
		return to == RunCompleted || to == RunFailed
	default:
		return false
	}
}

// maxErrorSamples limita as mensagens guardadas no resumo de erros
const maxErrorSamples = 20

// KindCount são os contadores de um tipo de registro
type KindCount struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// ErrorSummary agrega os erros de uma execução
type ErrorSummary struct {
	ParseErrors        int      `json:"parseErrors"`
	ValidationWarnings int      `json:"validationWarnings"`
	WriteErrors        int      `json:"writeErrors"`
	Fatal              string   `json:"fatal,omitempty"`
	Interrupted        string   `json:"interrupted,omitempty"`
	Samples            []string `json:"samples,omitempty"`
}

// MigrationRun é o registro de status de uma execução para um dono
type MigrationRun struct {
	RunID        string                    `json:"runId"`
	OwnerID      string                    `json:"ownerId"`
	Status       RunStatus                 `json:"status"`
	StartedAt    time.Time                 `json:"startedAt"`
	CompletedAt  *time.Time                `json:"completedAt,omitempty"`
	CountsByKind map[EntityKind]*KindCount `json:"countsByKind"`
	ErrorSummary ErrorSummary              `json:"errorSummary"`
	Processed    int                       `json:"processed"`
	Total        int                       `json:"total"`
	Skipped      bool                      `json:"skipped,omitempty"`
}

// NewMigrationRun cria uma execução no estado NOT_STARTED
func NewMigrationRun(runID, ownerID string) *MigrationRun {
	return &MigrationRun{
		RunID:        runID,
		OwnerID:      ownerID,
		Status:       RunNotStarted,
		CountsByKind: make(map[EntityKind]*KindCount),
	}
}

// Transition muda o estado validando a máquina NOT_STARTED → RUNNING → {COMPLETED, FAILED}
func (r *MigrationRun) Transition(to RunStatus, at time.Time) error {
	if !allowedTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s (run %s)", ErrInvalidTransition, r.Status, to, r.RunID)
	}
	r.Status = to
	switch to {
	case RunRunning:
		r.StartedAt = at
	case RunCompleted, RunFailed:
		r.CompletedAt = &at
	}
	return nil
}

// Count retorna os contadores do tipo, criando-os se necessário
func (r *MigrationRun) Count(kind EntityKind) *KindCount {
	if r.CountsByKind == nil {
		r.CountsByKind = make(map[EntityKind]*KindCount)
	}
	c, ok := r.CountsByKind[kind]
	if !ok {
		c = &KindCount{}
		r.CountsByKind[kind] = c
	}
	return c
}

// RecordError agrega um erro recuperado no resumo
func (r *MigrationRun) RecordError(err error) {
	switch {
	case IsFatal(err):
		r.ErrorSummary.Fatal = err.Error()
		return
	case isClass(err, ErrParse):
		r.ErrorSummary.ParseErrors++
	case isClass(err, ErrWrite):
		r.ErrorSummary.WriteErrors++
	case isClass(err, ErrValidation):
		r.ErrorSummary.ValidationWarnings++
	}
	if len(r.ErrorSummary.Samples) < maxErrorSamples {
		r.ErrorSummary.Samples = append(r.ErrorSummary.Samples, err.Error())
	}
}

// SortedKinds retorna os tipos com contadores em ordem alfabética
func (r *MigrationRun) SortedKinds() []EntityKind {
	kinds := make([]EntityKind, 0, len(r.CountsByKind))
	for k := range r.CountsByKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// BatchResult reúne as execuções de todos os donos de um lote
type BatchResult struct {
	Runs []*MigrationRun `json:"runs"`
}

// Failed indica se alguma execução terminou em FAILED
func (b *BatchResult) Failed() bool {
	for _, r := range b.Runs {
		if r.Status == RunFailed {
			return true
		}
	}
	return false
}
