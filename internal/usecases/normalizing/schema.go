package normalizing

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/vfg2006/daylog-migrator/internal/domain"
)

// schema é uma versão do formato de artefato. Cada versão declara as seções que
// conhece e todas escrevem no mesmo DaySnapshot canônico.
type schema interface {
	version() domain.SchemaVersion
	normalize(doc document, snap *domain.DaySnapshot, p *parser)
}

// schemaV1: estudo com timestamps epoch, tarefas, exercícios, refeições numéricas e reflexão
type schemaV1 struct{}

// schemaV2: acrescenta saúde, início do dia, horário da reflexão, gastos avulsos e taskId nas sessões
type schemaV2 struct{}

// schemaV3: acrescenta categorias personalizadas, refeições com horário e fuso no artefato
type schemaV3 struct{}

var schemas = map[domain.SchemaVersion]schema{
	domain.SchemaV1: schemaV1{},
	domain.SchemaV2: schemaV2{},
	domain.SchemaV3: schemaV3{},
}

func (schemaV1) version() domain.SchemaVersion { return domain.SchemaV1 }
func (schemaV2) version() domain.SchemaVersion { return domain.SchemaV2 }
func (schemaV3) version() domain.SchemaVersion { return domain.SchemaV3 }

func (schemaV1) normalize(doc document, snap *domain.DaySnapshot, p *parser) {
	snap.Study = p.study(doc, false)
	snap.Tasks = p.tasks(doc)
	snap.Exercise = p.exercise(doc)
	snap.Expenses = p.expenses(doc, expenseOptions{})
	snap.Reflection = text(doc, "dayReflection", "root", p.w)
}

func (schemaV2) normalize(doc document, snap *domain.DaySnapshot, p *parser) {
	normalizeSections(doc, snap, p, expenseOptions{other: true})
}

func (schemaV3) normalize(doc document, snap *domain.DaySnapshot, p *parser) {
	normalizeSections(doc, snap, p, expenseOptions{other: true, mealObjects: true, custom: true})
}

// normalizeSections lê cada seção de v2 em diante exatamente uma vez
func normalizeSections(doc document, snap *domain.DaySnapshot, p *parser, opts expenseOptions) {
	snap.Study = p.study(doc, true)
	snap.Tasks = p.tasks(doc)
	snap.Exercise = p.exercise(doc)
	snap.Expenses = p.expenses(doc, opts)
	snap.Health = p.health(doc)
	snap.DayStart = text(doc, "dayStart", "root", p.w)
	snap.Reflection = text(doc, "dayReflection", "root", p.w)
	snap.ReflectionTime = text(doc, "reflectionTime", "root", p.w)
}

// detectVersion usa o campo schemaVersion quando presente; caso contrário infere pela estrutura
func detectVersion(doc document, w *warnings) domain.SchemaVersion {
	key, raw := firstPresent(doc, "schemaVersion", "version")
	if raw != nil {
		v, err := semver.NewVersion(strings.TrimPrefix(fmt.Sprint(raw), "v"))
		switch {
		case err != nil:
			w.add("root", key, "versão de schema inválida %v, inferindo pela estrutura", raw)
		case v.Major() < uint64(domain.SchemaV1):
			w.add("root", key, "versão de schema %s desconhecida, inferindo pela estrutura", v)
		case v.Major() > uint64(domain.LatestSchema):
			w.add("root", key, "versão de schema %s mais nova que a suportada, usando v%d", v, domain.LatestSchema)
			return domain.LatestSchema
		default:
			return domain.SchemaVersion(v.Major())
		}
	}
	return inferVersion(doc)
}

func inferVersion(doc document) domain.SchemaVersion {
	expenses, _ := doc["expenses"].(map[string]any)

	if _, ok := doc["timezone"]; ok {
		return domain.SchemaV3
	}
	if _, ok := expenses["customCategories"]; ok {
		return domain.SchemaV3
	}
	for _, meal := range domain.Meals {
		if _, ok := expenses[string(meal)].(map[string]any); ok {
			return domain.SchemaV3
		}
	}

	for _, key := range []string{"health", "dayStart", "reflectionTime"} {
		if _, ok := doc[key]; ok {
			return domain.SchemaV2
		}
	}
	if _, ok := expenses["other"]; ok {
		return domain.SchemaV2
	}
	if study, ok := doc["study"].(map[string]any); ok {
		sessions, _ := study["sessions"].([]any)
		for _, s := range sessions {
			session, _ := s.(map[string]any)
			if _, ok := session["taskId"]; ok {
				return domain.SchemaV2
			}
			if _, ok := session["timestamp"].(string); ok {
				return domain.SchemaV2
			}
		}
	}
	return domain.SchemaV1
}
