package series

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/csvio"
	"github.com/quantfolio/quantfolio/pkg/formulas"
)

// ErrEmptySeries is returned when construction or loading would produce
// a series with no bars.
var ErrEmptySeries = errors.New("price series is empty")

// Series is an ordered, gap-filled sequence of daily bars for one
// instrument. Index 0 is the most recent bar and timestamps are
// strictly descending with no missing calendar days: gaps are filled
// with Synthetic copies of the more recent real bar. A series is never
// empty and never mutated after construction.
type Series struct {
	bars []Bar
	log  zerolog.Logger
}

// New builds a series from pre-constructed bars, most recent first.
func New(bars []Bar, log zerolog.Logger) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	return &Series{bars: bars, log: log.With().Str("service", "series").Logger()}, nil
}

// NewFromPrice builds the degenerate single-bar series that represents
// an instrument without price history (for example CASH at price 1).
func NewFromPrice(price float64, log zerolog.Logger) *Series {
	s, _ := New([]Bar{NewFlatBar(price)}, log)
	return s
}

// Load builds a series from a parsed bar file. File rows are most
// recent last; they are consumed in reverse so the result is most
// recent first. Invalid rows are skipped with a diagnostic, rows dated
// after maxDate are skipped, and the first row dated before minDate
// terminates the load. Calendar gaps between kept bars are filled with
// synthetic copies of the more recent bar.
func Load(table *csvio.Table, minDate, maxDate time.Time, log zerolog.Logger) (*Series, error) {
	slog := log.With().Str("service", "series").Logger()

	bars := make([]Bar, 0, len(table.Rows))
	for i := len(table.Rows) - 1; i >= 0; i-- {
		bar := ParseBar(table.Rows[i], slog)
		if !bar.Valid {
			continue
		}
		if bar.Timestamp.After(maxDate) {
			continue
		}
		if bar.Timestamp.Before(minDate) {
			break
		}

		// Fill missing calendar days with the last (more recent) record
		if len(bars) > 0 {
			last := bars[len(bars)-1]
			for date := last.Timestamp.AddDate(0, 0, -1); date.After(bar.Timestamp); date = date.AddDate(0, 0, -1) {
				filler := last
				filler.Timestamp = date
				filler.Synthetic = true
				bars = append(bars, filler)
			}
		}

		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars in [%s, %s]",
			ErrEmptySeries, minDate.Format("2006-01-02"), maxDate.Format("2006-01-02"))
	}
	return New(bars, log)
}

// Size returns the number of bars, synthetic fillers included.
func (s *Series) Size() int { return len(s.bars) }

// At returns the bar at index i. Indexes past the oldest bar saturate
// to the oldest bar rather than failing, so callers may over-index when
// looking back further than the available history.
func (s *Series) At(i int) Bar {
	if i >= len(s.bars) {
		i = len(s.bars) - 1
	}
	if i < 0 {
		i = 0
	}
	return s.bars[i]
}

// PriceChange returns the same-day range change (high-low)/low at i.
func (s *Series) PriceChange(i int) float64 {
	bar := s.At(i)
	if bar.Low <= 0 {
		s.log.Warn().Str("bar", bar.String()).Msg("Non-positive low in price change")
		return 0
	}
	return (bar.High - bar.Low) / bar.Low
}

// PriceChangeOver returns the relative change of the projected price
// between bar i and the bar offset days earlier:
// (price[i] - price[i+offset]) / price[i+offset].
// A zero offset reads as the same-day range change.
func (s *Series) PriceChangeOver(i, offset int, pt PriceType) float64 {
	if offset == 0 { // Same day case
		return s.PriceChange(i)
	}
	today := s.At(i).Get(pt)
	yesterday := s.At(i + offset).Get(pt)
	if yesterday <= 0 {
		s.log.Warn().
			Int("index", i).
			Int("offset", offset).
			Msg("Non-positive historical price in price change")
		return 0
	}
	return (today - yesterday) / yesterday
}

// PriceDirection classifies bar i's range against the range offset days
// earlier. With a zero offset the bar's own close/open decides Up or
// Down. Any (high >= low) pair matches exactly one direction; an input
// that reaches none of the rules indicates corrupt data and is logged
// and treated as Narrow.
func (s *Series) PriceDirection(i, offset int) Direction {
	if offset == 0 { // Same day case
		today := s.At(i)
		if today.Close > today.Open {
			return Up
		}
		return Down
	}

	today := s.At(i)
	yesterday := s.At(i + offset)

	switch {
	case today.High >= yesterday.High && today.Low >= yesterday.High:
		return VeryUp
	case today.High <= yesterday.Low && today.Low < yesterday.Low:
		return VeryDown
	case today.High <= yesterday.High && today.Low >= yesterday.Low:
		return Narrow
	case today.High > yesterday.High && today.Low < yesterday.Low:
		return Widen
	case today.High >= yesterday.High:
		return Up
	case today.Low <= yesterday.Low:
		return Down
	}

	s.log.Error().
		Str("today", today.String()).
		Str("yesterday", yesterday.String()).
		Msg("Unclassifiable price direction")
	return Narrow
}

// AllTimeHigh returns the maximum high over bars[skip:].
func (s *Series) AllTimeHigh(skip int) float64 {
	result := 0.0
	for i := skip; i < len(s.bars); i++ {
		if s.bars[i].High > result {
			result = s.bars[i].High
		}
	}
	return result
}

// AllTimeHighs returns, for every index i, the running maximum high
// over bars[i:]. With most-recent-first ordering this is the all-time
// high as of bar i, including bar i itself.
func (s *Series) AllTimeHighs() []float64 {
	result := make([]float64, len(s.bars))
	ath := 0.0
	for i := len(s.bars) - 1; i >= 0; i-- {
		if s.bars[i].High > ath {
			ath = s.bars[i].High
		}
		result[i] = ath
	}
	return result
}

// PercentFromATH returns how far bar i's low sits below the all-time
// high as of bar i, as a (negative) percentage. The high of bar i
// itself counts towards the all-time high.
func (s *Series) PercentFromATH(i int) float64 {
	ath := s.AllTimeHigh(i)
	if ath <= 0 {
		s.log.Warn().Int("index", i).Msg("Non-positive all-time high")
		return 0
	}
	return (s.At(i).Low - ath) / ath * 100
}

// PercentToATH returns the percentage gain needed for bar i's low to
// reach the all-time high as of bar i.
func (s *Series) PercentToATH(i int) float64 {
	low := s.At(i).Low
	if low <= 0 {
		s.log.Warn().Int("index", i).Msg("Non-positive low")
		return 0
	}
	return (s.AllTimeHigh(i) - low) / low * 100
}

// AvgReturn returns the mean midpoint price change over a rolling
// window of length days. A length at or beyond the series size is
// clamped to size-1.
func (s *Series) AvgReturn(length int) float64 {
	length = s.clampLength(length)
	size := len(s.bars) - length
	sum := 0.0
	for i := 0; i < size; i++ {
		sum += s.PriceChangeOver(i, length, HL2)
	}
	return sum / float64(size)
}

// AvgRisk returns the population standard deviation of the same rolling
// midpoint changes AvgReturn averages.
func (s *Series) AvgRisk(length int) float64 {
	length = s.clampLength(length)
	size := len(s.bars) - length
	changes := make([]float64, 0, size)
	for i := 0; i < size; i++ {
		changes = append(changes, s.PriceChangeOver(i, length, HL2))
	}
	return formulas.StdDev(changes)
}

func (s *Series) clampLength(length int) int {
	if length >= len(s.bars) {
		return len(s.bars) - 1
	}
	return length
}

// ToVector materializes size consecutive projected prices starting at
// offset. Returns nil with a diagnostic when the window exceeds the
// series.
func (s *Series) ToVector(size, offset int, pt PriceType) []float64 {
	if offset+size > len(s.bars) {
		s.log.Warn().
			Int("size", size).
			Int("offset", offset).
			Int("bars", len(s.bars)).
			Msg("Requested price vector exceeds series")
		return nil
	}
	result := make([]float64, 0, size)
	for i := 0; i < size; i++ {
		result = append(result, s.bars[offset+i].Get(pt))
	}
	return result
}

// MatchTimestamps reports whether the first maxSize bars of both series
// fall on pairwise identical dates. Correlations are only meaningful
// over aligned calendar days; a mismatch is logged and returns false.
func (s *Series) MatchTimestamps(other *Series, maxSize int) bool {
	if maxSize > len(s.bars) || maxSize > len(other.bars) {
		s.log.Warn().
			Int("maxSize", maxSize).
			Int("size", len(s.bars)).
			Int("otherSize", len(other.bars)).
			Msg("Timestamp match window exceeds series")
		return false
	}
	for i := 0; i < maxSize; i++ {
		d1 := s.bars[i].Timestamp
		d2 := other.bars[i].Timestamp
		if !d1.Equal(d2) {
			s.log.Warn().
				Int("index", i).
				Str("date", d1.Format("2006-01-02")).
				Str("otherDate", d2.Format("2006-01-02")).
				Msg("Timestamp mismatch")
			return false
		}
	}
	return true
}

// Save writes the full series to a CSV file, most recent first, with
// the derived priceChange, allTimeHigh, percentFromAth and percentToAth
// columns appended to each bar.
func (s *Series) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	sb.WriteString("Date,Open,High,Low,Close,Volume,Dividends,Stock Splits,isFake,")
	sb.WriteString("priceChange,allTimeHigh,percentFromAth,percentToAth\n")

	aths := s.AllTimeHighs()
	for i, bar := range s.bars {
		synthetic := "0"
		if bar.Synthetic {
			synthetic = "1"
		}
		fromAth, toAth := 0.0, 0.0
		if aths[i] > 0 && bar.Low > 0 {
			fromAth = (bar.Low - aths[i]) / aths[i] * 100
			toAth = (aths[i] - bar.Low) / bar.Low * 100
		}
		cells := []string{
			bar.Timestamp.Format("2006-01-02"),
			formatPrice(bar.Open),
			formatPrice(bar.High),
			formatPrice(bar.Low),
			formatPrice(bar.Close),
			formatPrice(bar.Volume),
			formatPrice(bar.Dividends),
			formatPrice(bar.Splits),
			synthetic,
			formatPrice(s.PriceChange(i)),
			formatPrice(aths[i]),
			formatPrice(fromAth),
			formatPrice(toAth),
		}
		sb.WriteString(strings.Join(cells, ","))
		sb.WriteByte('\n')
	}

	if _, err := f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
