package domain

import (
	"fmt"
	"strconv"
	"time"
)

// DayKeyLayout é o formato textual de um DayKey
const DayKeyLayout = "2006-01-02"

// DayKey identifica um dia de calendário, sem hora e sem fuso.
// O valor zero representa "sem dia".
type DayKey struct {
	year  int
	month time.Month
	day   int
}

// NewDayKey cria um DayKey a partir dos componentes do calendário, normalizando
// datas fora do intervalo (ex.: 32 de janeiro vira 1 de fevereiro)
func NewDayKey(year int, month time.Month, day int) DayKey {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return DayKey{year: t.Year(), month: t.Month(), day: t.Day()}
}

// DayKeyOf extrai o dia de calendário de t no fuso do próprio t
func DayKeyOf(t time.Time) DayKey {
	y, m, d := t.Date()
	return DayKey{year: y, month: m, day: d}
}

// ParseDayKey lê "YYYY-MM-DD" diretamente para componentes de calendário.
// Nenhum instante é construído, então o fuso local não pode deslocar o dia.
func ParseDayKey(value string) (DayKey, error) {
	if len(value) != len(DayKeyLayout) || value[4] != '-' || value[7] != '-' {
		return DayKey{}, fmt.Errorf("data inválida %q: formato esperado YYYY-MM-DD", value)
	}
	y, errY := parseDigits(value[0:4])
	m, errM := parseDigits(value[5:7])
	d, errD := parseDigits(value[8:10])
	if errY != nil || errM != nil || errD != nil {
		return DayKey{}, fmt.Errorf("data inválida %q: componentes não numéricos", value)
	}
	if m < 1 || m > 12 || d < 1 || d > daysIn(time.Month(m), y) {
		return DayKey{}, fmt.Errorf("data inválida %q: dia fora do calendário", value)
	}
	return DayKey{year: y, month: time.Month(m), day: d}, nil
}

func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("caractere inválido %q", r)
		}
	}
	return strconv.Atoi(s)
}

// MustParseDayKey é ParseDayKey para constantes conhecidas
func MustParseDayKey(value string) DayKey {
	k, err := ParseDayKey(value)
	if err != nil {
		panic(err)
	}
	return k
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (k DayKey) Year() int         { return k.year }
func (k DayKey) Month() time.Month { return k.month }
func (k DayKey) Day() int          { return k.day }

// IsZero indica se o DayKey não foi definido
func (k DayKey) IsZero() bool {
	return k == DayKey{}
}

// String retorna o dia no formato YYYY-MM-DD
func (k DayKey) String() string {
	if k.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", k.year, int(k.month), k.day)
}

// Compare retorna -1, 0 ou 1 conforme k seja anterior, igual ou posterior a other
func (k DayKey) Compare(other DayKey) int {
	switch {
	case k.year != other.year:
		return cmpInt(k.year, other.year)
	case k.month != other.month:
		return cmpInt(int(k.month), int(other.month))
	default:
		return cmpInt(k.day, other.day)
	}
}

func (k DayKey) Before(other DayKey) bool { return k.Compare(other) < 0 }
func (k DayKey) After(other DayKey) bool  { return k.Compare(other) > 0 }

// AddDays desloca o dia em n dias de calendário
func (k DayKey) AddDays(n int) DayKey {
	return NewDayKey(k.year, k.month, k.day+n)
}

// Midnight retorna a meia-noite do dia em loc
func (k DayKey) Midnight(loc *time.Location) time.Time {
	return time.Date(k.year, k.month, k.day, 0, 0, 0, 0, loc)
}

func (k DayKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DayKey) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = DayKey{}
		return nil
	}
	parsed, err := ParseDayKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ScanDayKey converte o valor lido do banco (DATE no Postgres, TEXT no SQLite)
func ScanDayKey(value any) (DayKey, error) {
	switch v := value.(type) {
	case time.Time:
		// drivers devolvem DATE como meia-noite UTC; os componentes já são o dia
		return DayKeyOf(v), nil
	case string:
		if len(v) > len(DayKeyLayout) {
			v = v[:len(DayKeyLayout)]
		}
		return ParseDayKey(v)
	case []byte:
		return ScanDayKey(string(v))
	case nil:
		return DayKey{}, nil
	default:
		return DayKey{}, fmt.Errorf("tipo inesperado para day_key: %T", value)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
