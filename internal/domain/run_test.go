package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationRun_Transition(t *testing.T) {
	at := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		path    []RunStatus
		wantErr bool
	}{
		{name: "Fluxo completo", path: []RunStatus{RunRunning, RunCompleted}},
		{name: "Fluxo com falha", path: []RunStatus{RunRunning, RunFailed}},
		{name: "Não pode concluir sem iniciar", path: []RunStatus{RunCompleted}, wantErr: true},
		{name: "Estado final não volta", path: []RunStatus{RunRunning, RunCompleted, RunRunning}, wantErr: true},
		{name: "Não pode falhar duas vezes", path: []RunStatus{RunRunning, RunFailed, RunFailed}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := NewMigrationRun("run-1", "alice")
			var err error
			for _, status := range tt.path {
				if err = run.Transition(status, at); err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, at, run.StartedAt)
			require.NotNil(t, run.CompletedAt)
			assert.True(t, run.Status.IsTerminal())
		})
	}
}

func TestMigrationRun_RecordError(t *testing.T) {
	run := NewMigrationRun("run-1", "alice")

	run.RecordError(NewParseError("day-1", errors.New("json inválido")))
	run.RecordError(NewWriteError("day-2", KindTask, errors.New("constraint")))
	run.RecordError(ValidationWarning{Section: "health", Field: "weight", Message: "negativo"})
	run.RecordError(NewFatalError(ErrStoreUnavailable))

	assert.Equal(t, 1, run.ErrorSummary.ParseErrors)
	assert.Equal(t, 1, run.ErrorSummary.WriteErrors)
	assert.Equal(t, 1, run.ErrorSummary.ValidationWarnings)
	assert.Contains(t, run.ErrorSummary.Fatal, ErrStoreUnavailable.Error())
	assert.Len(t, run.ErrorSummary.Samples, 3)
}

func TestMigrationRun_SamplesAreCapped(t *testing.T) {
	run := NewMigrationRun("run-1", "alice")
	for i := 0; i < maxErrorSamples+5; i++ {
		run.RecordError(NewParseError(fmt.Sprintf("day-%d", i), errors.New("x")))
	}

	assert.Equal(t, maxErrorSamples+5, run.ErrorSummary.ParseErrors)
	assert.Len(t, run.ErrorSummary.Samples, maxErrorSamples)
}

func TestMigrationError_Is(t *testing.T) {
	err := fmt.Errorf("contexto: %w", NewFatalError(NewWriteError("day-1", KindHealth, ErrStoreUnavailable)))

	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrFatal)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrParse)

	var migrationErr *MigrationError
	require.ErrorAs(t, err, &migrationErr)
	assert.Equal(t, ClassFatal, migrationErr.Class)
}

func TestBatchResult_Failed(t *testing.T) {
	ok := &MigrationRun{Status: RunCompleted}
	failed := &MigrationRun{Status: RunFailed}

	assert.False(t, (&BatchResult{Runs: []*MigrationRun{ok}}).Failed())
	assert.True(t, (&BatchResult{Runs: []*MigrationRun{ok, failed}}).Failed())
}
