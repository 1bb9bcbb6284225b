package expanding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/daylog-migrator/internal/domain"
)

func baseSnapshot() *domain.DaySnapshot {
	return &domain.DaySnapshot{
		OwnerID:  "alice",
		DayKey:   domain.MustParseDayKey("2025-01-15"),
		Timezone: "Asia/Shanghai",
		Exercise: map[string]float64{},
		Expenses: domain.ExpenseBreakdown{
			Meals:            map[domain.Meal]domain.MealExpense{},
			CustomCategories: map[string]float64{},
		},
		Provenance: domain.Provenance{SchemaVersion: domain.SchemaV2, ArtifactID: "2025-01-15"},
	}
}

func byKind(records []domain.EntityRecord, kind domain.EntityKind) []domain.EntityRecord {
	var out []domain.EntityRecord
	for _, r := range records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func TestExpand_MealExpense(t *testing.T) {
	snap := baseSnapshot()
	snap.Expenses.Meals[domain.MealBreakfast] = domain.MealExpense{Amount: 15.5, Time: "08:00"}

	records, err := Expand(snap)
	require.NoError(t, err)

	expenses := byKind(records, domain.KindExpense)
	require.Len(t, expenses, 1)
	assert.Equal(t, "breakfast", expenses[0].NaturalKey)
	assert.Equal(t, "alice", expenses[0].OwnerID)
	assert.Equal(t, "2025-01-15", expenses[0].DayKey.String())
	assert.JSONEq(t, `{"category":"breakfast","amount":15.5,"time":"08:00"}`, string(expenses[0].Payload))

	summary := byKind(records, domain.KindDaySummary)
	require.Len(t, summary, 1)
	assert.Equal(t, DaySummaryKey, summary[0].NaturalKey)
	assert.Contains(t, string(summary[0].Payload), `"expenseTotal":15.5`)
}

func TestExpand_EmptySnapshotYieldsOnlySummary(t *testing.T) {
	records, err := Expand(baseSnapshot())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, domain.KindDaySummary, records[0].Kind)
}

func TestExpand_StudySessionsAreCorrelated(t *testing.T) {
	start := time.Date(2025, 1, 15, 1, 0, 0, 0, time.UTC)
	snap := baseSnapshot()
	snap.Study = domain.StudyLog{
		TotalMinutes: 55,
		Sessions: []domain.StudyEntry{
			{StartedAt: start, DurationMinutes: 25, TaskID: "t1"},
			{StartedAt: start, DurationMinutes: 30},
		},
	}

	records, err := Expand(snap)
	require.NoError(t, err)

	study := byKind(records, domain.KindStudySession)
	pomodoro := byKind(records, domain.KindPomodoroSession)
	require.Len(t, study, 2)
	require.Len(t, pomodoro, 2)

	assert.Equal(t, "2025-01-15T01:00:00Z", study[0].NaturalKey)
	assert.Equal(t, "2025-01-15T01:00:00Z#2", study[1].NaturalKey)
	for i := range study {
		assert.Equal(t, study[i].NaturalKey, pomodoro[i].NaturalKey)
		assert.Contains(t, string(pomodoro[i].Payload), `"studySessionKey":"`+study[i].NaturalKey+`"`)
	}
	assert.JSONEq(t,
		`{"startedAt":"2025-01-15T01:00:00Z","completedAt":"2025-01-15T01:25:00Z","durationMinutes":25,"taskId":"t1"}`,
		string(study[0].Payload))
	assert.JSONEq(t,
		`{"startedAt":"2025-01-15T01:00:00Z","completedAt":"2025-01-15T01:30:00Z","durationMinutes":30,"type":"focus","completed":true,"studySessionKey":"2025-01-15T01:00:00Z#2"}`,
		string(pomodoro[1].Payload))
}

func TestExpand_RejectsOutOfRangeDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
	}{
		{name: "Negativa", duration: -5},
		{name: "Acima de um dia", duration: domain.MaxSessionMinutes + 1},
		{name: "Estoura time.Duration", duration: 1e10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := baseSnapshot()
			snap.Study.Sessions = []domain.StudyEntry{
				{StartedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), DurationMinutes: tt.duration},
			}

			records, err := Expand(snap)
			require.Error(t, err)
			assert.Nil(t, records)
		})
	}
}

func TestExpand_FullDaySessionCompletesAfterStart(t *testing.T) {
	snap := baseSnapshot()
	snap.Study.Sessions = []domain.StudyEntry{
		{StartedAt: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), DurationMinutes: domain.MaxSessionMinutes},
	}

	records, err := Expand(snap)
	require.NoError(t, err)

	sessions := byKind(records, domain.KindStudySession)
	require.Len(t, sessions, 1)
	assert.Contains(t, string(sessions[0].Payload), `"completedAt":"2025-01-02T09:00:00Z"`)
}

func TestExpand_TaskIdentity(t *testing.T) {
	created := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	snap := baseSnapshot()
	snap.Tasks = []domain.TaskItem{
		{ID: "t1", Text: "ler", Completed: true},
		{Text: "revisar", CreatedAt: created},
		{ID: "t1", Text: "duplicada"},
	}

	records, err := Expand(snap)
	require.NoError(t, err)

	tasks := byKind(records, domain.KindTask)
	require.Len(t, tasks, 3)

	keys := map[string]bool{}
	for _, task := range tasks {
		keys[task.NaturalKey] = true
	}
	derived := DerivedTaskID("alice", snap.DayKey, "revisar", created)
	assert.True(t, keys["t1"])
	assert.True(t, keys["t1#2"])
	assert.True(t, keys[derived])

	// o id derivado é estável e depende do dono e do dia
	assert.Equal(t, derived, DerivedTaskID("alice", snap.DayKey, " revisar ", created))
	assert.NotEqual(t, derived, DerivedTaskID("bob", snap.DayKey, "revisar", created))
	assert.NotEqual(t, derived, DerivedTaskID("alice", snap.DayKey.AddDays(1), "revisar", created))

	summary := byKind(records, domain.KindDaySummary)[0]
	assert.Contains(t, string(summary.Payload), `"tasksTotal":3`)
	assert.Contains(t, string(summary.Payload), `"tasksCompleted":1`)
}

func TestExpand_OtherAndCustomExpenses(t *testing.T) {
	snap := baseSnapshot()
	snap.Expenses.Other = []domain.OtherExpense{
		{Amount: 5, Description: "café", Time: "12:00"},
		{Amount: 0, Time: "12:00"},
		{Amount: 3.2, Time: "16:45"},
	}
	snap.Expenses.CustomCategories["books"] = 12.5

	records, err := Expand(snap)
	require.NoError(t, err)

	expenses := byKind(records, domain.KindExpense)
	require.Len(t, expenses, 3)
	assert.Equal(t, "custom:books", expenses[0].NaturalKey)
	assert.Equal(t, "other:0", expenses[1].NaturalKey)
	// itens vazios não geram registro mas mantêm o índice dos seguintes
	assert.Equal(t, "other:2", expenses[2].NaturalKey)
	assert.JSONEq(t, `{"category":"books","amount":12.5,"time":"12:00","custom":true}`, string(expenses[0].Payload))

	summary := byKind(records, domain.KindDaySummary)[0]
	assert.Contains(t, string(summary.Payload), `"expenseTotal":20.7`)
}

func TestExpand_ExerciseAndHealth(t *testing.T) {
	snap := baseSnapshot()
	snap.Exercise = map[string]float64{"running": 20, "yoga": 0}
	snap.Health = domain.HealthMetrics{Weight: 70.5}

	records, err := Expand(snap)
	require.NoError(t, err)

	exercise := byKind(records, domain.KindExercise)
	require.Len(t, exercise, 1)
	assert.Equal(t, "running", exercise[0].NaturalKey)

	health := byKind(records, domain.KindHealth)
	require.Len(t, health, 1)
	assert.Equal(t, HealthKey, health[0].NaturalKey)
	assert.JSONEq(t, `{"weight":70.5,"sleepHours":0,"sleepQuality":0,"phoneUsage":0}`, string(health[0].Payload))
}

func TestExpand_IsDeterministic(t *testing.T) {
	snap := baseSnapshot()
	snap.Exercise = map[string]float64{"swim": 10, "bike": 30, "run": 5}
	snap.Expenses.CustomCategories = map[string]float64{"z": 1.1, "a": 2.2, "m": 3.3}
	snap.Tasks = []domain.TaskItem{{Text: "sem id"}}

	first, err := Expand(snap)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Expand(snap)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		assert.True(t, prev.Kind < cur.Kind || (prev.Kind == cur.Kind && prev.NaturalKey < cur.NaturalKey))
	}
}
