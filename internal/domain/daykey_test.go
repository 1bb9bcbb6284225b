package domain

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    DayKey
		wantErr bool
	}{
		{name: "Data válida", input: "2025-01-15", want: NewDayKey(2025, time.January, 15)},
		{name: "Ano bissexto", input: "2024-02-29", want: NewDayKey(2024, time.February, 29)},
		{name: "29 de fevereiro fora de ano bissexto", input: "2025-02-29", wantErr: true},
		{name: "Mês inválido", input: "2025-13-01", wantErr: true},
		{name: "Dia zero", input: "2025-01-00", wantErr: true},
		{name: "Formato com barra", input: "2025/01/15", wantErr: true},
		{name: "Timestamp não é data", input: "2025-01-15T10:00:00Z", wantErr: true},
		{name: "Sinal no ano", input: "+025-01-15", wantErr: true},
		{name: "Vazio", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDayKey(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestDayKey_IgnoresLocalTimezone(t *testing.T) {
	previous := time.Local
	defer func() { time.Local = previous }()

	time.Local = time.FixedZone("UTC-10", -10*3600)
	k := MustParseDayKey("2025-01-01")
	assert.Equal(t, 1, k.Day())
	assert.Equal(t, "2025-01-01", k.String())
}

func TestDayKey_AddDaysAndCompare(t *testing.T) {
	k := MustParseDayKey("2024-12-31")

	next := k.AddDays(1)
	assert.Equal(t, "2025-01-01", next.String())
	assert.True(t, k.Before(next))
	assert.True(t, next.After(k))
	assert.Equal(t, 0, k.Compare(MustParseDayKey("2024-12-31")))
	assert.Equal(t, "2024-02-29", MustParseDayKey("2024-03-01").AddDays(-1).String())
}

func TestDayKey_Zero(t *testing.T) {
	var k DayKey
	assert.True(t, k.IsZero())
	assert.Equal(t, "", k.String())

	require.NoError(t, k.UnmarshalText([]byte("2025-03-10")))
	assert.False(t, k.IsZero())
}

func TestScanDayKey(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{name: "DATE do Postgres", value: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), want: "2025-01-02"},
		{name: "TEXT do SQLite", value: "2025-01-02", want: "2025-01-02"},
		{name: "Timestamp textual", value: "2025-01-02T00:00:00Z", want: "2025-01-02"},
		{name: "Bytes", value: []byte("2025-01-02"), want: "2025-01-02"},
		{name: "Nulo", value: nil, want: ""},
		{name: "Tipo inesperado", value: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanDayKey(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDayKey_OrderMatchesCalendar(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("Compare segue a ordem dos instantes", prop.ForAll(
		func(a, b int) bool {
			ta := base.AddDate(0, 0, a)
			tb := base.AddDate(0, 0, b)
			return DayKeyOf(ta).Compare(DayKeyOf(tb)) == cmpInt(a, b)
		},
		gen.IntRange(0, 20000),
		gen.IntRange(0, 20000),
	))

	properties.Property("String volta para o mesmo dia", prop.ForAll(
		func(offset int) bool {
			k := DayKeyOf(base.AddDate(0, 0, offset))
			parsed, err := ParseDayKey(k.String())
			return err == nil && parsed == k
		},
		gen.IntRange(0, 20000),
	))

	properties.TestingRun(t)
}
