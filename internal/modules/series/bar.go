// Package series implements the daily OHLC price history container:
// parsing and normalizing bars, gap-filling missing trading days, price
// projections, and the rolling return/risk/drawdown queries the asset
// and portfolio layers are built on.
package series

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PriceType selects which projection of a bar to read.
type PriceType int

const (
	Open PriceType = iota
	High
	Low
	Close
	HL2   // (high+low)/2, the midpoint price
	HLC3  // (high+low+close)/3, the typical price
	OHLC4 // (open+high+low+close)/4, the average price
)

// String returns the projection name used in report headers.
func (pt PriceType) String() string {
	switch pt {
	case Open:
		return "Open"
	case High:
		return "High"
	case Low:
		return "Low"
	case Close:
		return "Close"
	case HL2:
		return "HL2"
	case HLC3:
		return "HLC3"
	case OHLC4:
		return "OHLC4"
	}
	return "Unknown"
}

// Direction classifies today's [low, high] range against an earlier
// bar's range. Exactly one direction applies to any pair of bars with
// high >= low.
type Direction int

const (
	VeryUp   Direction = iota // today's range sits strictly above yesterday's high
	Up                        // partial overlap biased upward
	Widen                     // today's range strictly contains yesterday's
	Narrow                    // today's range is contained within yesterday's
	Down                      // partial overlap biased downward
	VeryDown                  // today's range sits strictly below yesterday's low
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case VeryUp:
		return "VeryUp"
	case Up:
		return "Up"
	case Widen:
		return "Widen"
	case Narrow:
		return "Narrow"
	case Down:
		return "Down"
	case VeryDown:
		return "VeryDown"
	}
	return "Unknown"
}

// Bar is one trading day of open/high/low/close data plus volume,
// dividends and split figures. Bars are created at load time and never
// mutated afterwards.
type Bar struct {
	Timestamp time.Time // date at UTC midnight, no time-of-day

	Open  float64
	High  float64
	Low   float64
	Close float64

	Volume    float64
	Dividends float64
	Splits    float64

	Valid     bool // parse succeeded
	Synthetic bool // created to fill a missing trading day
}

// NewBar builds a bar from explicit prices. High and low are normalized
// so that low <= {open, close} <= high.
func NewBar(timestamp time.Time, open, high, low, close float64) Bar {
	b := Bar{
		Timestamp: timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Valid:     true,
	}
	b.normalize()
	return b
}

// NewFlatBar builds a single-price bar, used for synthetic assets such
// as cash or unknown-symbol placeholders.
func NewFlatBar(price float64) Bar {
	return Bar{
		Open:  price,
		High:  price,
		Low:   price,
		Close: price,
		Valid: true,
	}
}

// barColumns is the layout of a per-symbol bar file row. A ninth
// "Capital Gains" column is tolerated and ignored.
const barColumns = 8

// ParseBar parses a raw file row into a bar. A row that cannot be
// parsed, or that carries non-positive prices or negative volume
// figures, yields a bar with Valid == false; the caller is expected to
// skip it. A zero open is treated as missing and backfilled with the
// bar's midpoint.
func ParseBar(row []string, log zerolog.Logger) Bar {
	var b Bar
	if len(row) < barColumns {
		log.Warn().Strs("row", row).Msg("Bar row has too few columns")
		return b
	}

	ts, err := time.Parse("2006-01-02", dateOnly(row[0]))
	if err != nil {
		log.Warn().Str("date", row[0]).Msg("Unparseable bar date")
		return b
	}
	b.Timestamp = ts.UTC()

	fields := []struct {
		dst  *float64
		name string
	}{
		{&b.Open, "open"},
		{&b.High, "high"},
		{&b.Low, "low"},
		{&b.Close, "close"},
		{&b.Volume, "volume"},
		{&b.Dividends, "dividends"},
		{&b.Splits, "splits"},
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			log.Warn().
				Str("field", f.name).
				Str("value", row[i+1]).
				Str("date", row[0]).
				Msg("Unparseable bar field")
			return b
		}
		*f.dst = v
	}

	if b.Open == 0 { // missing open
		b.Open = b.HL2()
	}

	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		log.Warn().Str("date", row[0]).Msg("Non-positive price in bar row")
		return b
	}
	if b.Volume < 0 || b.Dividends < 0 || b.Splits < 0 {
		log.Warn().Str("date", row[0]).Msg("Negative volume figure in bar row")
		return b
	}

	b.normalize()
	b.Valid = true
	return b
}

// normalize widens high/low to cover open and close.
func (b *Bar) normalize() {
	b.High = max(max(b.Open, b.High), max(b.Low, b.Close))
	b.Low = min(min(b.Open, b.Low), min(b.High, b.Close))
}

// HL2 returns the midpoint price.
func (b Bar) HL2() float64 { return (b.High + b.Low) / 2 }

// HLC3 returns the typical price.
func (b Bar) HLC3() float64 { return (b.High + b.Low + b.Close) / 3 }

// OHLC4 returns the average price.
func (b Bar) OHLC4() float64 { return (b.Open + b.High + b.Low + b.Close) / 4 }

// Get projects the bar onto the given price type.
func (b Bar) Get(pt PriceType) float64 {
	switch pt {
	case Open:
		return b.Open
	case High:
		return b.High
	case Low:
		return b.Low
	case Close:
		return b.Close
	case HL2:
		return b.HL2()
	case HLC3:
		return b.HLC3()
	case OHLC4:
		return b.OHLC4()
	}
	return 0
}

// String renders the bar for diagnostics.
func (b Bar) String() string {
	return fmt.Sprintf("%s O %.4f H %.4f L %.4f C %.4f",
		b.Timestamp.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close)
}

// dateOnly trims a timestamp string down to its YYYY-MM-DD prefix.
func dateOnly(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
