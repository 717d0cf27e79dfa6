package portfolio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/quantfolio/quantfolio/internal/modules/assets"
	"github.com/quantfolio/quantfolio/internal/modules/market"
	"github.com/quantfolio/quantfolio/internal/modules/series"
	"github.com/quantfolio/quantfolio/pkg/formulas"
)

// ErrSameDay is returned when a value change is requested over a zero
// offset.
var ErrSameDay = errors.New("value change requires a non-zero day offset")

// valueChangeDays is the offset the historical-simulation aggregates
// measure value changes over.
const valueChangeDays = 365

// TotalValue prices the holdings at bar i, midpoint projection, and
// returns the summed position value.
func TotalValue(m *market.Market, h *Holdings, i int) float64 {
	total := 0.0
	for symbol, quantity := range h.quantities {
		total += m.Get(symbol).Prices().At(i).HL2() * quantity
	}
	return total
}

// TotalValueByTag sums the current value of the positions carrying tag
// and returns it with the sorted contributing symbols.
func TotalValueByTag(m *market.Market, h *Holdings, tag assets.Tag) (float64, []string) {
	total := 0.0
	symbols := []string{}
	for _, symbol := range h.Symbols() {
		asset := m.Get(symbol)
		if !asset.HasTag(tag) {
			continue
		}
		symbols = append(symbols, symbol)
		total += asset.Prices().At(0).HL2() * h.quantities[symbol]
	}
	return total, symbols
}

// ValueChange returns the relative change of the portfolio value
// between bar i and the bar offsetDays earlier. A zero offset is
// ErrSameDay; a non-positive base value is an error because the change
// ratio is undefined.
func ValueChange(m *market.Market, h *Holdings, i, offsetDays int) (float64, error) {
	if offsetDays == 0 {
		return 0, ErrSameDay
	}
	today := TotalValue(m, h, i)
	yesterday := TotalValue(m, h, i+offsetDays)
	if yesterday <= 0 {
		return 0, fmt.Errorf("non-positive base value %f at offset %d", yesterday, i+offsetDays)
	}
	return (today - yesterday) / yesterday, nil
}

// AvgReturn is the value-weighted average of the per-asset daily
// returns. An empty or worthless portfolio returns 0.
func AvgReturn(m *market.Market, h *Holdings) float64 {
	total := TotalValue(m, h, 0)
	if total <= 0 {
		return 0
	}
	result := 0.0
	for symbol, quantity := range h.quantities {
		asset := m.Get(symbol)
		value := asset.Prices().At(0).HL2() * quantity
		result += value / total * asset.AvgReturn(0)
	}
	return result
}

// AvgRisk is the portfolio standard deviation from the full covariance
// double sum: sqrt of sum over all pairs of w1*w2*corr*risk1*risk2,
// with correlation 1 on the diagonal. An empty or worthless portfolio
// returns 0.
func AvgRisk(m *market.Market, h *Holdings) float64 {
	total := TotalValue(m, h, 0)
	if total <= 0 {
		return 0
	}
	variance := 0.0
	for symbol1, quantity1 := range h.quantities {
		asset1 := m.Get(symbol1)
		value1 := asset1.Prices().At(0).HL2() * quantity1
		for symbol2, quantity2 := range h.quantities {
			asset2 := m.Get(symbol2)
			value2 := asset2.Prices().At(0).HL2() * quantity2
			corr := 1.0
			if symbol1 != symbol2 {
				corr = asset1.Correlation(asset2, series.HL2, false, m.CorrelationLength())
			}
			variance += (value1 / total) * (value2 / total) * corr * asset1.AvgRisk(0) * asset2.AvgRisk(0)
		}
	}
	return math.Sqrt(variance)
}

// AvgReturnOver is the historical-simulation mean of the one-year
// portfolio value change sampled at each of the most recent length
// bars.
func AvgReturnOver(m *market.Market, h *Holdings, length int) (float64, error) {
	if length <= 0 {
		return 0, fmt.Errorf("non-positive sample length %d", length)
	}
	result := 0.0
	for i := 0; i < length; i++ {
		change, err := ValueChange(m, h, i, valueChangeDays)
		if err != nil {
			return 0, err
		}
		result += change
	}
	return result / float64(length), nil
}

// AvgRiskOver is the historical-simulation standard deviation of the
// one-year portfolio value change sampled at each of the most recent
// length bars.
func AvgRiskOver(m *market.Market, h *Holdings, length int) (float64, error) {
	if length <= 0 {
		return 0, fmt.Errorf("non-positive sample length %d", length)
	}
	samples := make([]float64, 0, length)
	for i := 0; i < length; i++ {
		change, err := ValueChange(m, h, i, valueChangeDays)
		if err != nil {
			return 0, err
		}
		samples = append(samples, change)
	}
	return formulas.StdDev(samples), nil
}

// SaveAllocations writes the per-tag allocation table:
// tag,totalAmount,percent,count,symbols... with one row per tag in
// AllTags order.
func SaveAllocations(m *market.Market, h *Holdings, path string) error {
	h.log.Info().Str("path", path).Msg("Saving allocations")

	total := TotalValue(m, h, 0)

	var sb strings.Builder
	sb.WriteString("tag,totalAmount,percent,count,symbols...\n")
	for _, tag := range assets.AllTags {
		value, symbols := TotalValueByTag(m, h, tag)
		percent := 0.0
		if total > 0 {
			percent = math.Round(100 * value / total)
		}
		cells := []string{
			string(tag),
			strconv.FormatFloat(value, 'f', -1, 64),
			strconv.FormatFloat(percent, 'f', -1, 64),
			strconv.Itoa(len(symbols)),
		}
		cells = append(cells, symbols...)
		sb.WriteString(strings.Join(cells, ","))
		sb.WriteString("\n")
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
