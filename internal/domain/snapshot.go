package domain

import (
	"sort"
	"time"
)

// SchemaVersion identifica a versão do formato do artefato diário
type SchemaVersion int

const (
	SchemaUnknown SchemaVersion = 0
	SchemaV1      SchemaVersion = 1
	SchemaV2      SchemaVersion = 2
	SchemaV3      SchemaVersion = 3

	LatestSchema = SchemaV3
)

// Meal é uma das refeições fixas do registro de gastos
type Meal string

const (
	MealBreakfast Meal = "breakfast"
	MealLunch     Meal = "lunch"
	MealDinner    Meal = "dinner"
)

// Meals lista as refeições na ordem canônica
var Meals = []Meal{MealBreakfast, MealLunch, MealDinner}

// DaySnapshot é a representação canônica de um dia, independente da versão do artefato
type DaySnapshot struct {
	OwnerID  string
	DayKey   DayKey
	Timezone string

	Study    StudyLog
	Tasks    []TaskItem
	Exercise map[string]float64
	Expenses ExpenseBreakdown
	Health   HealthMetrics

	DayStart       string
	Reflection     string
	ReflectionTime string

	Provenance Provenance
	Warnings   []ValidationWarning
}

// StudyLog reúne o total de estudo e as sessões do dia
type StudyLog struct {
	TotalMinutes float64
	Sessions     []StudyEntry
}

// MaxSessionMinutes é a duração máxima aceita para uma sessão de estudo
const MaxSessionMinutes = 24 * 60

// StudyEntry é uma sessão de estudo normalizada
type StudyEntry struct {
	StartedAt       time.Time
	DurationMinutes float64
	TaskID          string
}

// TaskItem é uma tarefa normalizada
type TaskItem struct {
	ID        string
	Text      string
	Completed bool
	CreatedAt time.Time
}

// MealExpense é o gasto de uma refeição; Time vazio significa horário não informado
type MealExpense struct {
	Amount float64
	Time   string
}

// OtherExpense é um gasto avulso
type OtherExpense struct {
	Amount      float64
	Description string
	Time        string
}

// ExpenseBreakdown agrupa os gastos do dia
type ExpenseBreakdown struct {
	Meals            map[Meal]MealExpense
	Other            []OtherExpense
	CustomCategories map[string]float64
}

// Total soma todos os gastos do dia
func (e ExpenseBreakdown) Total() float64 {
	total := 0.0
	for _, meal := range Meals {
		total += e.Meals[meal].Amount
	}
	for _, o := range e.Other {
		total += o.Amount
	}
	names := make([]string, 0, len(e.CustomCategories))
	for name := range e.CustomCategories {
		names = append(names, name)
	}
	// ordem fixa para que a soma em ponto flutuante seja sempre a mesma
	sort.Strings(names)
	for _, name := range names {
		total += e.CustomCategories[name]
	}
	return total
}

// HealthMetrics são as métricas de saúde do dia
type HealthMetrics struct {
	Weight       float64
	SleepHours   float64
	SleepQuality float64
	PhoneUsage   float64
}

// IsEmpty indica que nenhuma métrica foi informada
func (h HealthMetrics) IsEmpty() bool {
	return h.Weight == 0 && h.SleepHours == 0 && h.SleepQuality == 0 && h.PhoneUsage == 0
}

// Provenance registra a origem do snapshot
type Provenance struct {
	SchemaVersion SchemaVersion
	ArtifactID    string
}
