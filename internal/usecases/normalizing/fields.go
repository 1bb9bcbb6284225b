package normalizing

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vfg2006/daylog-migrator/internal/domain"
	"github.com/vfg2006/daylog-migrator/pkg/utils"
)

// document é o artefato decodificado sem tipo
type document map[string]any

// warnings acumula os avisos de validação de um artefato
type warnings struct {
	list []domain.ValidationWarning
}

func (w *warnings) add(section, field, format string, args ...any) {
	w.list = append(w.list, domain.ValidationWarning{
		Section: section,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// object lê uma seção aninhada; ausente vira mapa vazio, tipo errado gera aviso
func (d document) object(key string, w *warnings) map[string]any {
	return objectValue(d[key], key, "", w)
}

func objectValue(v any, section, field string, w *warnings) map[string]any {
	switch val := v.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return val
	default:
		w.add(section, field, "esperado objeto, recebido %s", typeName(v))
		return map[string]any{}
	}
}

func arrayValue(v any, section, field string, w *warnings) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		w.add(section, field, "esperado lista, recebido %s", typeName(v))
		return nil
	}
}

// number lê um valor numérico não negativo; ausente vira 0
func number(m map[string]any, key, section string, w *warnings) float64 {
	return numberValue(m[key], section, key, w)
}

func numberValue(v any, section, field string, w *warnings) float64 {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		f = val
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			w.add(section, field, "valor numérico inválido %q", val)
			return 0
		}
		f = parsed
	default:
		w.add(section, field, "esperado número, recebido %s", typeName(v))
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		w.add(section, field, "valor numérico inválido")
		return 0
	}
	if f < 0 {
		w.add(section, field, "valor negativo %v substituído por 0", f)
		return 0
	}
	return f
}

// amount é um number arredondado em centavos
func amount(v any, section, field string, w *warnings) float64 {
	return utils.RoundWithTwoDecimalPlace(numberValue(v, section, field, w))
}

// text lê um texto; ausente vira vazio
func text(m map[string]any, key, section string, w *warnings) string {
	return textValue(m[key], section, key, w)
}

func textValue(v any, section, field string, w *warnings) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		w.add(section, field, "esperado texto, recebido %s", typeName(v))
		return ""
	}
}

func boolean(m map[string]any, key, section string, w *warnings) bool {
	switch val := m[key].(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			w.add(section, key, "valor booleano inválido %q", val)
			return false
		}
		return b
	default:
		w.add(section, key, "esperado booleano, recebido %s", typeName(val))
		return false
	}
}

// firstPresent retorna o primeiro campo presente entre os nomes alternativos
func firstPresent(m map[string]any, keys ...string) (string, any) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return k, v
		}
	}
	return keys[0], nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func typeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "objeto"
	case []any:
		return "lista"
	case string:
		return "texto"
	case float64:
		return "número"
	case bool:
		return "booleano"
	default:
		return fmt.Sprintf("%T", v)
	}
}
