// Package expanding transforma um DaySnapshot nos registros de entidade que ele implica.
// Expand é uma função pura: o mesmo snapshot gera sempre os mesmos registros, byte a byte.
package expanding

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/daylog-migrator/internal/domain"
	"github.com/vfg2006/daylog-migrator/pkg/utils"
)

// json ordena as chaves de mapas, o que mantém o payload canônico
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// taskNamespace é o namespace UUIDv5 das tarefas sem id de origem
var taskNamespace = uuid.MustParse("6f1c9a52-3d7e-5b8a-9c41-2e0d7b6a5f13")

const (
	// DaySummaryKey é a chave natural do resumo; há um único por dono e dia
	DaySummaryKey = "day"
	// HealthKey é a chave natural do registro de saúde do dia
	HealthKey = "health"

	pomodoroFocus = "focus"
	instantLayout = time.RFC3339
)

// Expand gera os registros de entidade do snapshot, ordenados por tipo e chave natural
func Expand(snap *domain.DaySnapshot) ([]domain.EntityRecord, error) {
	e := &expansion{snap: snap}

	e.studySessions()
	e.tasks()
	e.exercises()
	e.expenses()
	e.health()
	e.daySummary()

	if e.err != nil {
		return nil, e.err
	}

	sort.SliceStable(e.records, func(i, j int) bool {
		if e.records[i].Kind != e.records[j].Kind {
			return e.records[i].Kind < e.records[j].Kind
		}
		return e.records[i].NaturalKey < e.records[j].NaturalKey
	})
	return e.records, nil
}

type expansion struct {
	snap    *domain.DaySnapshot
	records []domain.EntityRecord
	err     error
}

func (e *expansion) add(kind domain.EntityKind, naturalKey string, payload any) {
	if e.err != nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		e.err = fmt.Errorf("erro ao serializar payload %s/%s: %w", kind, naturalKey, err)
		return
	}
	e.records = append(e.records, domain.EntityRecord{
		Kind:       kind,
		OwnerID:    e.snap.OwnerID,
		DayKey:     e.snap.DayKey,
		NaturalKey: naturalKey,
		Payload:    body,
	})
}

// studySessions gera um StudySession e um PomodoroSession correlacionados por sessão
func (e *expansion) studySessions() {
	seen := make(map[string]int)
	for _, s := range e.snap.Study.Sessions {
		if s.DurationMinutes < 0 || s.DurationMinutes > domain.MaxSessionMinutes {
			if e.err == nil {
				e.err = fmt.Errorf("sessão %s com duração inválida %v", SessionKey(s.StartedAt), s.DurationMinutes)
			}
			return
		}
		key := SessionKey(s.StartedAt)
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s#%d", key, n)
		}

		startedAt := s.StartedAt.UTC()
		completedAt := startedAt.Add(minutes(s.DurationMinutes))

		e.add(domain.KindStudySession, key, domain.StudySessionPayload{
			StartedAt:       startedAt.Format(instantLayout),
			CompletedAt:     completedAt.Format(instantLayout),
			DurationMinutes: s.DurationMinutes,
			TaskID:          s.TaskID,
		})
		e.add(domain.KindPomodoroSession, key, domain.PomodoroSessionPayload{
			StartedAt:       startedAt.Format(instantLayout),
			CompletedAt:     completedAt.Format(instantLayout),
			DurationMinutes: s.DurationMinutes,
			Type:            pomodoroFocus,
			Completed:       true,
			StudySessionKey: key,
		})
	}
}

// SessionKey é a chave natural de uma sessão: o instante de início em UTC
func SessionKey(startedAt time.Time) string {
	return startedAt.UTC().Format(instantLayout)
}

func (e *expansion) tasks() {
	seen := make(map[string]int)
	for _, t := range e.snap.Tasks {
		key := t.ID
		if key == "" {
			key = DerivedTaskID(e.snap.OwnerID, e.snap.DayKey, t.Text, t.CreatedAt)
		}
		seen[key]++
		if n := seen[key]; n > 1 {
			key = fmt.Sprintf("%s#%d", key, n)
		}

		payload := domain.TaskPayload{
			ID:          key,
			Text:        t.Text,
			Completed:   t.Completed,
			SourceHasID: t.ID != "",
		}
		if !t.CreatedAt.IsZero() {
			payload.CreatedAt = t.CreatedAt.UTC().Format(instantLayout)
		}
		e.add(domain.KindTask, key, payload)
	}
}

// DerivedTaskID gera um id estável (UUIDv5) para tarefas sem id de origem
func DerivedTaskID(ownerID string, day domain.DayKey, title string, createdAt time.Time) string {
	created := ""
	if !createdAt.IsZero() {
		created = createdAt.UTC().Format(time.RFC3339Nano)
	}
	name := strings.Join([]string{ownerID, day.String(), strings.TrimSpace(title), created}, "\x00")
	return uuid.NewSHA1(taskNamespace, []byte(name)).String()
}

func (e *expansion) exercises() {
	kinds := make([]string, 0, len(e.snap.Exercise))
	for k := range e.snap.Exercise {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		value := e.snap.Exercise[kind]
		if value <= 0 {
			continue
		}
		e.add(domain.KindExercise, kind, domain.ExercisePayload{Kind: kind, Value: value})
	}
}

func (e *expansion) expenses() {
	for _, meal := range domain.Meals {
		entry, ok := e.snap.Expenses.Meals[meal]
		if !ok || entry.Amount <= 0 {
			continue
		}
		e.add(domain.KindExpense, string(meal), domain.ExpensePayload{
			Category: string(meal),
			Amount:   entry.Amount,
			Time:     entry.Time,
		})
	}

	for i, other := range e.snap.Expenses.Other {
		if other.Amount <= 0 {
			continue
		}
		e.add(domain.KindExpense, fmt.Sprintf("other:%d", i), domain.ExpensePayload{
			Category:    "other",
			Amount:      other.Amount,
			Time:        other.Time,
			Description: other.Description,
		})
	}

	names := make([]string, 0, len(e.snap.Expenses.CustomCategories))
	for name := range e.snap.Expenses.CustomCategories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := e.snap.Expenses.CustomCategories[name]
		if value <= 0 {
			continue
		}
		e.add(domain.KindExpense, "custom:"+name, domain.ExpensePayload{
			Category: name,
			Amount:   value,
			Time:     customExpenseTime,
			Custom:   true,
		})
	}
}

// customExpenseTime é o horário canônico de categorias personalizadas, que nunca trazem horário
const customExpenseTime = "12:00"

func (e *expansion) health() {
	h := e.snap.Health
	if h.IsEmpty() {
		return
	}
	e.add(domain.KindHealth, HealthKey, domain.HealthPayload{
		Weight:       h.Weight,
		SleepHours:   h.SleepHours,
		SleepQuality: h.SleepQuality,
		PhoneUsage:   h.PhoneUsage,
	})
}

func (e *expansion) daySummary() {
	completed := 0
	for _, t := range e.snap.Tasks {
		if t.Completed {
			completed++
		}
	}
	e.add(domain.KindDaySummary, DaySummaryKey, domain.DaySummaryPayload{
		StudyTotalMinutes: e.snap.Study.TotalMinutes,
		StudySessions:     len(e.snap.Study.Sessions),
		TasksTotal:        len(e.snap.Tasks),
		TasksCompleted:    completed,
		ExpenseTotal:      utils.RoundWithTwoDecimalPlace(e.snap.Expenses.Total()),
		DayStart:          e.snap.DayStart,
		Reflection:        e.snap.Reflection,
		ReflectionTime:    e.snap.ReflectionTime,
		Timezone:          e.snap.Timezone,
		SchemaVersion:     int(e.snap.Provenance.SchemaVersion),
		SourceArtifact:    e.snap.Provenance.ArtifactID,
	})
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
