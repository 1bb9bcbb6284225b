package domain

import (
	"bytes"
	"fmt"
)

// EntityKind é o tipo de registro gerado pelo fan-out
type EntityKind string

const (
	KindStudySession    EntityKind = "study_session"
	KindPomodoroSession EntityKind = "pomodoro_session"
	KindTask            EntityKind = "task"
	KindExercise        EntityKind = "exercise"
	KindExpense         EntityKind = "expense"
	KindHealth          EntityKind = "health"
	KindDaySummary      EntityKind = "day_summary"
)

// EntityKinds lista todos os tipos na ordem canônica
var EntityKinds = []EntityKind{
	KindDaySummary,
	KindExercise,
	KindExpense,
	KindHealth,
	KindPomodoroSession,
	KindStudySession,
	KindTask,
}

// IsValid indica se o tipo é conhecido
func (k EntityKind) IsValid() bool {
	for _, known := range EntityKinds {
		if k == known {
			return true
		}
	}
	return false
}

// EntityRecord é um registro relacional identificado por (owner, dia, tipo, chave natural)
type EntityRecord struct {
	Kind       EntityKind
	OwnerID    string
	DayKey     DayKey
	NaturalKey string
	Payload    []byte
}

// Identity retorna a identidade completa usada no upsert
func (r EntityRecord) Identity() string {
	return fmt.Sprintf("%s/%s/%s/%s", r.OwnerID, r.DayKey, r.Kind, r.NaturalKey)
}

// SamePayload compara os payloads byte a byte
func (r EntityRecord) SamePayload(other EntityRecord) bool {
	return bytes.Equal(r.Payload, other.Payload)
}

// Payloads gravados por tipo de registro

type StudySessionPayload struct {
	StartedAt       string  `json:"startedAt"`
	CompletedAt     string  `json:"completedAt"`
	DurationMinutes float64 `json:"durationMinutes"`
	TaskID          string  `json:"taskId,omitempty"`
}

type PomodoroSessionPayload struct {
	StartedAt       string  `json:"startedAt"`
	CompletedAt     string  `json:"completedAt"`
	DurationMinutes float64 `json:"durationMinutes"`
	Type            string  `json:"type"`
	Completed       bool    `json:"completed"`
	StudySessionKey string  `json:"studySessionKey"`
}

type TaskPayload struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt,omitempty"`
	SourceHasID bool   `json:"sourceHasId"`
}

type ExercisePayload struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

type ExpensePayload struct {
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Time        string  `json:"time"`
	Description string  `json:"description,omitempty"`
	Custom      bool    `json:"custom,omitempty"`
}

type HealthPayload struct {
	Weight       float64 `json:"weight"`
	SleepHours   float64 `json:"sleepHours"`
	SleepQuality float64 `json:"sleepQuality"`
	PhoneUsage   float64 `json:"phoneUsage"`
}

type DaySummaryPayload struct {
	StudyTotalMinutes float64 `json:"studyTotalMinutes"`
	StudySessions     int     `json:"studySessions"`
	TasksTotal        int     `json:"tasksTotal"`
	TasksCompleted    int     `json:"tasksCompleted"`
	ExpenseTotal      float64 `json:"expenseTotal"`
	DayStart          string  `json:"dayStart"`
	Reflection        string  `json:"reflection"`
	ReflectionTime    string  `json:"reflectionTime"`
	Timezone          string  `json:"timezone"`
	SchemaVersion     int     `json:"schemaVersion"`
	SourceArtifact    string  `json:"sourceArtifact"`
}
