package normalizing

import (
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/vfg2006/daylog-migrator/internal/domain"
	"github.com/vfg2006/daylog-migrator/internal/timezone"
	"github.com/vfg2006/daylog-migrator/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Normalizer converte artefatos diários de qualquer versão suportada em DaySnapshot
type Normalizer struct {
	resolver        *timezone.Resolver
	defaultTimezone string
	logger          log.Logger
}

// NewNormalizer cria um Normalizer; defaultTimezone é usado quando nem o artefato
// nem o dono informam um fuso
func NewNormalizer(resolver *timezone.Resolver, defaultTimezone string) *Normalizer {
	return &Normalizer{
		resolver:        resolver,
		defaultTimezone: defaultTimezone,
		logger:          log.L,
	}
}

// Normalize detecta a versão do artefato e o normaliza.
// Só retorna erro (ParseError) quando o JSON é inválido ou a data está ausente ou inválida.
func (n *Normalizer) Normalize(artifact *domain.RawArtifact) (*domain.DaySnapshot, error) {
	doc, err := n.decode(artifact)
	if err != nil {
		return nil, err
	}
	w := &warnings{}
	return n.normalize(artifact, doc, detectVersion(doc, w), w)
}

// NormalizeVersion normaliza o artefato com uma versão de schema explícita
func (n *Normalizer) NormalizeVersion(artifact *domain.RawArtifact, version domain.SchemaVersion) (*domain.DaySnapshot, error) {
	doc, err := n.decode(artifact)
	if err != nil {
		return nil, err
	}
	w := &warnings{}
	if _, ok := schemas[version]; !ok {
		w.add("root", "schemaVersion", "versão %d desconhecida, usando v%d", version, domain.LatestSchema)
		version = domain.LatestSchema
	}
	return n.normalize(artifact, doc, version, w)
}

func (n *Normalizer) decode(artifact *domain.RawArtifact) (document, error) {
	var doc document
	if err := json.Unmarshal(artifact.Body, &doc); err != nil {
		return nil, domain.NewParseError(artifact.ID, fmt.Errorf("JSON inválido: %w", err))
	}
	if doc == nil {
		return nil, domain.NewParseError(artifact.ID, fmt.Errorf("documento vazio"))
	}
	return doc, nil
}

func (n *Normalizer) normalize(artifact *domain.RawArtifact, doc document, version domain.SchemaVersion, w *warnings) (*domain.DaySnapshot, error) {
	tz := n.timezoneFor(artifact, doc, version, w)

	day, err := n.parseDate(doc["date"], tz)
	if err != nil {
		return nil, domain.NewParseError(artifact.ID, err)
	}

	snap := &domain.DaySnapshot{
		OwnerID:  artifact.OwnerID,
		DayKey:   day,
		Timezone: tz,
		Exercise: map[string]float64{},
		Expenses: domain.ExpenseBreakdown{
			Meals:            map[domain.Meal]domain.MealExpense{},
			CustomCategories: map[string]float64{},
		},
		Provenance: domain.Provenance{
			SchemaVersion: version,
			ArtifactID:    artifact.ID,
		},
	}

	p := &parser{resolver: n.resolver, timezone: tz, day: day, w: w}
	schemas[version].normalize(doc, snap, p)
	snap.Warnings = w.list

	if len(snap.Warnings) > 0 {
		n.logger.WithFields(log.Fields{
			"artifact_id": artifact.ID,
			"owner_id":    artifact.OwnerID,
			"warnings":    len(snap.Warnings),
		}).Debug("Artefato normalizado com avisos")
	}

	return snap, nil
}

// timezoneFor escolhe o fuso: o do artefato (v3), o do dono ou o padrão
func (n *Normalizer) timezoneFor(artifact *domain.RawArtifact, doc document, version domain.SchemaVersion, w *warnings) string {
	if version >= domain.SchemaV3 {
		if tz := textValue(doc["timezone"], "root", "timezone", w); tz != "" {
			if n.resolver.IsKnown(tz) {
				return tz
			}
			w.add("root", "timezone", "fuso %q desconhecido, ignorado", tz)
		}
	}
	if artifact.Timezone != "" {
		return artifact.Timezone
	}
	return n.defaultTimezone
}

// parseDate aceita "YYYY-MM-DD" e, de clientes antigos, instantes ISO que são resolvidos no fuso do dia
func (n *Normalizer) parseDate(raw any, tz string) (domain.DayKey, error) {
	value, ok := raw.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return domain.DayKey{}, fmt.Errorf("campo date ausente")
	}
	value = strings.TrimSpace(value)
	if len(value) == len(domain.DayKeyLayout) {
		return domain.ParseDayKey(value)
	}
	instant, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return domain.DayKey{}, fmt.Errorf("campo date inválido %q", value)
	}
	return n.resolver.Resolve(instant, tz), nil
}

// parser normaliza as seções de um artefato; cada seção é independente
type parser struct {
	resolver *timezone.Resolver
	timezone string
	day      domain.DayKey
	w        *warnings
}

func (p *parser) study(doc document, withTaskIDs bool) domain.StudyLog {
	section := doc.object("study", p.w)
	studyLog := domain.StudyLog{}

	for i, item := range arrayValue(section["sessions"], "study", "sessions", p.w) {
		field := fmt.Sprintf("sessions[%d]", i)
		session, ok := item.(map[string]any)
		if !ok {
			p.w.add("study", field, "esperado objeto, recebido %s", typeName(item))
			continue
		}
		_, rawDuration := firstPresent(session, "duration", "durationMinutes")
		duration := numberValue(rawDuration, "study", field+".duration", p.w)
		if duration == 0 {
			p.w.add("study", field, "sessão sem duração ignorada")
			continue
		}
		if duration > domain.MaxSessionMinutes {
			p.w.add("study", field+".duration", "duração %v acima de %d minutos, sessão ignorada", duration, domain.MaxSessionMinutes)
			continue
		}
		_, rawStart := firstPresent(session, "timestamp", "startedAt", "startTime")
		startedAt, err := p.resolver.ParseTimestamp(rawStart, p.timezone)
		if err != nil {
			p.w.add("study", field+".timestamp", "sessão ignorada: %v", err)
			continue
		}
		if resolved := p.resolver.Resolve(startedAt, p.timezone); resolved != p.day {
			p.w.add("study", field+".timestamp", "sessão iniciada em %s, fora do dia %s", resolved, p.day)
		}
		entry := domain.StudyEntry{StartedAt: startedAt, DurationMinutes: duration}
		if withTaskIDs {
			entry.TaskID = textValue(session["taskId"], "study", field+".taskId", p.w)
		}
		studyLog.Sessions = append(studyLog.Sessions, entry)
	}

	_, rawTotal := firstPresent(section, "totalMinutes", "totalTime", "total")
	studyLog.TotalMinutes = numberValue(rawTotal, "study", "totalMinutes", p.w)
	if studyLog.TotalMinutes == 0 {
		for _, s := range studyLog.Sessions {
			studyLog.TotalMinutes += s.DurationMinutes
		}
	}
	return studyLog
}

func (p *parser) tasks(doc document) []domain.TaskItem {
	var out []domain.TaskItem
	for i, item := range arrayValue(doc["tasks"], "tasks", "", p.w) {
		field := fmt.Sprintf("[%d]", i)
		task, ok := item.(map[string]any)
		if !ok {
			p.w.add("tasks", field, "esperado objeto, recebido %s", typeName(item))
			continue
		}
		_, rawText := firstPresent(task, "text", "title")
		t := domain.TaskItem{
			ID:        textValue(task["id"], "tasks", field+".id", p.w),
			Text:      textValue(rawText, "tasks", field+".text", p.w),
			Completed: boolean(task, "completed", "tasks", p.w),
		}
		if raw, ok := task["createdAt"]; ok && raw != nil {
			createdAt, err := p.resolver.ParseTimestamp(raw, p.timezone)
			if err != nil {
				p.w.add("tasks", field+".createdAt", "%v", err)
			} else {
				t.CreatedAt = createdAt
			}
		}
		if t.ID == "" && t.Text == "" {
			p.w.add("tasks", field, "tarefa sem id e sem texto ignorada")
			continue
		}
		out = append(out, t)
	}
	return out
}

func (p *parser) exercise(doc document) map[string]float64 {
	section := doc.object("exercise", p.w)
	out := make(map[string]float64, len(section))
	for _, key := range sortedKeys(section) {
		kind := strings.ToLower(strings.TrimSpace(key))
		if kind == "" {
			continue
		}
		if v := numberValue(section[key], "exercise", key, p.w); v > 0 {
			out[kind] += v
		}
	}
	return out
}

type expenseOptions struct {
	other       bool
	mealObjects bool
	custom      bool
}

// defaultMealTimes são os horários canônicos quando o artefato não informa
var defaultMealTimes = map[domain.Meal]string{
	domain.MealBreakfast: "08:00",
	domain.MealLunch:     "12:00",
	domain.MealDinner:    "18:00",
}

// DefaultOtherExpenseTime é o horário usado para gastos avulsos sem horário
const DefaultOtherExpenseTime = "12:00"

func (p *parser) expenses(doc document, opts expenseOptions) domain.ExpenseBreakdown {
	section := doc.object("expenses", p.w)
	out := domain.ExpenseBreakdown{
		Meals:            map[domain.Meal]domain.MealExpense{},
		CustomCategories: map[string]float64{},
	}

	for _, meal := range domain.Meals {
		raw := section[string(meal)]
		entry := domain.MealExpense{Time: defaultMealTimes[meal]}
		if obj, ok := raw.(map[string]any); ok && opts.mealObjects {
			entry.Amount = amount(obj["amount"], "expenses", string(meal)+".amount", p.w)
			if t := p.timeOfDay(obj["time"], string(meal)+".time"); t != "" {
				entry.Time = t
			}
		} else {
			entry.Amount = amount(raw, "expenses", string(meal), p.w)
		}
		if entry.Amount > 0 {
			out.Meals[meal] = entry
		}
	}

	if opts.other {
		for i, item := range arrayValue(section["other"], "expenses", "other", p.w) {
			field := fmt.Sprintf("other[%d]", i)
			obj, ok := item.(map[string]any)
			if !ok {
				p.w.add("expenses", field, "esperado objeto, recebido %s", typeName(item))
				continue
			}
			_, rawDesc := firstPresent(obj, "description", "category", "note", "name")
			entry := domain.OtherExpense{
				Amount:      amount(obj["amount"], "expenses", field+".amount", p.w),
				Description: textValue(rawDesc, "expenses", field+".description", p.w),
				Time:        DefaultOtherExpenseTime,
			}
			if t := p.timeOfDay(obj["time"], field+".time"); t != "" {
				entry.Time = t
			}
			// a posição compõe a chave natural, então itens vazios continuam ocupando seu índice
			out.Other = append(out.Other, entry)
		}
	}

	if opts.custom {
		custom := objectValue(section["customCategories"], "expenses", "customCategories", p.w)
		for _, name := range sortedKeys(custom) {
			key := strings.TrimSpace(name)
			if key == "" {
				continue
			}
			if v := amount(custom[name], "expenses", "customCategories."+name, p.w); v > 0 {
				out.CustomCategories[key] = v
			}
		}
	}
	return out
}

// timeOfDay normaliza "H:MM", "HH:MM" ou um instante para "HH:MM" no fuso do dia
func (p *parser) timeOfDay(raw any, field string) string {
	value := textValue(raw, "expenses", field, p.w)
	if value == "" {
		return ""
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04")
		}
	}
	if instant, err := p.resolver.ParseTimestamp(value, p.timezone); err == nil {
		return instant.In(p.resolver.Location(p.timezone)).Format("15:04")
	}
	p.w.add("expenses", field, "horário inválido %q, usando padrão", value)
	return ""
}

func (p *parser) health(doc document) domain.HealthMetrics {
	section := doc.object("health", p.w)
	return domain.HealthMetrics{
		Weight:       number(section, "weight", "health", p.w),
		SleepHours:   number(section, "sleepHours", "health", p.w),
		SleepQuality: number(section, "sleepQuality", "health", p.w),
		PhoneUsage:   number(section, "phoneUsage", "health", p.w),
	}
}
