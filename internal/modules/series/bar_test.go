package series

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseBar_Valid(t *testing.T) {
	row := []string{"2021-03-05", "10", "12", "9", "11", "1000", "0", "0"}
	bar := ParseBar(row, zerolog.Nop())

	assert.True(t, bar.Valid)
	assert.False(t, bar.Synthetic)
	assert.Equal(t, time.Date(2021, 3, 5, 0, 0, 0, 0, time.UTC), bar.Timestamp)
	assert.Equal(t, 10.0, bar.Open)
	assert.Equal(t, 12.0, bar.High)
	assert.Equal(t, 9.0, bar.Low)
	assert.Equal(t, 11.0, bar.Close)
	assert.Equal(t, 1000.0, bar.Volume)
}

func TestParseBar_CapitalGainsColumnTolerated(t *testing.T) {
	row := []string{"2021-03-05", "10", "12", "9", "11", "1000", "0", "0", "0.5"}
	assert.True(t, ParseBar(row, zerolog.Nop()).Valid)
}

func TestParseBar_MissingOpenBackfilledWithMidpoint(t *testing.T) {
	row := []string{"2021-03-05", "0", "12", "8", "11", "1000", "0", "0"}
	bar := ParseBar(row, zerolog.Nop())
	assert.True(t, bar.Valid)
	assert.Equal(t, 10.0, bar.Open) // (12+8)/2
}

func TestParseBar_NormalizesHighLow(t *testing.T) {
	// Close above reported high, open below reported low
	row := []string{"2021-03-05", "7", "12", "8", "13", "0", "0", "0"}
	bar := ParseBar(row, zerolog.Nop())
	assert.True(t, bar.Valid)
	assert.Equal(t, 13.0, bar.High)
	assert.Equal(t, 7.0, bar.Low)
	assert.LessOrEqual(t, bar.Low, bar.Open)
	assert.GreaterOrEqual(t, bar.High, bar.Close)
}

func TestParseBar_Invalid(t *testing.T) {
	tests := []struct {
		name string
		row  []string
	}{
		{"bad date", []string{"yesterday", "10", "12", "9", "11", "0", "0", "0"}},
		{"bad number", []string{"2021-03-05", "ten", "12", "9", "11", "0", "0", "0"}},
		{"negative price", []string{"2021-03-05", "10", "12", "-9", "11", "0", "0", "0"}},
		{"negative volume", []string{"2021-03-05", "10", "12", "9", "11", "-5", "0", "0"}},
		{"short row", []string{"2021-03-05", "10", "12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, ParseBar(tt.row, zerolog.Nop()).Valid)
		})
	}
}

func TestBar_Projections(t *testing.T) {
	bar := NewBar(time.Time{}, 10, 12, 8, 11)

	assert.Equal(t, 10.0, bar.Get(Open))
	assert.Equal(t, 12.0, bar.Get(High))
	assert.Equal(t, 8.0, bar.Get(Low))
	assert.Equal(t, 11.0, bar.Get(Close))
	assert.Equal(t, 10.0, bar.Get(HL2))
	assert.InDelta(t, 31.0/3, bar.Get(HLC3), 1e-12)
	assert.Equal(t, 10.25, bar.Get(OHLC4))
}

func TestNewFlatBar(t *testing.T) {
	bar := NewFlatBar(1)
	assert.Equal(t, 1.0, bar.Open)
	assert.Equal(t, 1.0, bar.HL2())
	assert.False(t, bar.Synthetic)
}
