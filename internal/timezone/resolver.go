// Package timezone resolve instantes em dias de calendário de um fuso nomeado.
// É usado igualmente pela migração e pelas leituras/escritas em tempo real.
package timezone

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	// base de fusos embutida, para não depender do zoneinfo do host
	_ "time/tzdata"

	"github.com/vfg2006/daylog-migrator/internal/domain"
	"github.com/vfg2006/daylog-migrator/pkg/log"
)

// wallClockLayouts são os formatos aceitos para horários sem fuso
var wallClockLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Resolver converte instantes em DayKey usando a base IANA de fusos
type Resolver struct {
	logger log.Logger
	now    func() time.Time

	mu        sync.RWMutex
	locations map[string]*time.Location
	warned    map[string]bool
}

// NewResolver cria um Resolver; logger nil usa o logger global
func NewResolver(logger log.Logger) *Resolver {
	if logger == nil {
		logger = log.L
	}
	return &Resolver{
		logger:    logger,
		now:       time.Now,
		locations: make(map[string]*time.Location),
		warned:    make(map[string]bool),
	}
}

// WithClock troca o relógio usado por Today
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Location carrega o fuso pelo nome. Nomes desconhecidos caem para UTC com um aviso.
func (r *Resolver) Location(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "UTC") {
		return time.UTC
	}

	r.mu.RLock()
	loc, ok := r.locations[name]
	r.mu.RUnlock()
	if ok {
		return loc
	}

	loaded, err := loadLocation(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if !r.warned[name] {
			r.warned[name] = true
			r.logger.WithField("timezone", name).WithError(err).Warn("Fuso horário desconhecido, usando UTC")
		}
		loaded = time.UTC
	}
	r.locations[name] = loaded
	return loaded
}

// IsKnown indica se o nome corresponde a um fuso da base IANA
func (r *Resolver) IsKnown(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "UTC") {
		return true
	}
	_, err := loadLocation(name)
	return err == nil
}

// loadLocation é time.LoadLocation sem o fuso "Local", que dependeria do host
func loadLocation(name string) (*time.Location, error) {
	if strings.EqualFold(name, "Local") {
		return nil, fmt.Errorf("fuso %q depende do host", name)
	}
	return time.LoadLocation(name)
}

// Resolve retorna o dia de calendário de instant no fuso informado
func (r *Resolver) Resolve(instant time.Time, timezoneName string) domain.DayKey {
	return domain.DayKeyOf(instant.In(r.Location(timezoneName)))
}

// Today retorna o dia corrente no fuso informado
func (r *Resolver) Today(timezoneName string) domain.DayKey {
	return r.Resolve(r.now(), timezoneName)
}

// DayBounds retorna o intervalo [início, fim) do dia no fuso informado.
// Em dias com mudança de horário de verão o intervalo tem 23 ou 25 horas.
func (r *Resolver) DayBounds(day domain.DayKey, timezoneName string) (time.Time, time.Time) {
	loc := r.Location(timezoneName)
	return day.Midnight(loc), day.AddDays(1).Midnight(loc)
}

// ParseTimestamp interpreta um horário de artefato.
// Strings com offset (RFC3339) são instantes absolutos; strings sem offset são horário
// de parede no fuso informado; números são milissegundos desde a época Unix.
func (r *Resolver) ParseTimestamp(value any, timezoneName string) (time.Time, error) {
	switch v := value.(type) {
	case float64:
		return fromEpochMillis(v)
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case int:
		return time.UnixMilli(int64(v)).UTC(), nil
	case string:
		return r.parseTimestampString(strings.TrimSpace(v), timezoneName)
	case nil:
		return time.Time{}, fmt.Errorf("horário ausente")
	default:
		return time.Time{}, fmt.Errorf("tipo de horário não suportado: %T", value)
	}
}

func (r *Resolver) parseTimestampString(v, timezoneName string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("horário vazio")
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.UTC(), nil
	}
	loc := r.Location(timezoneName)
	for _, layout := range wallClockLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t.UTC(), nil
		}
	}
	if ms, err := strconv.ParseFloat(v, 64); err == nil {
		return fromEpochMillis(ms)
	}
	return time.Time{}, fmt.Errorf("horário inválido %q", v)
}

func fromEpochMillis(ms float64) (time.Time, error) {
	if ms <= 0 {
		return time.Time{}, fmt.Errorf("horário epoch inválido: %v", ms)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}
