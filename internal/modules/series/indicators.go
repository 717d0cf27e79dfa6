package series

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Indicator helpers on top of the raw series. go-talib expects
// oldest-first input, so the series is reversed before delegation and
// only the latest value is returned. A nil result means the series is
// too short for the requested period.

// SMA returns the latest simple moving average of the projected price
// over the given period.
func (s *Series) SMA(period int, pt PriceType) *float64 {
	if period <= 0 || len(s.bars) < period {
		return nil
	}
	return lastFinite(talib.Sma(s.chronological(pt), period))
}

// EMA returns the latest exponential moving average of the projected
// price over the given period.
func (s *Series) EMA(period int, pt PriceType) *float64 {
	if period <= 0 || len(s.bars) < period {
		return nil
	}
	return lastFinite(talib.Ema(s.chronological(pt), period))
}

// RSI returns the latest relative strength index of closing prices over
// the given period (typically 14).
func (s *Series) RSI(period int) *float64 {
	if period <= 0 || len(s.bars) < period+1 {
		return nil
	}
	return lastFinite(talib.Rsi(s.chronological(Close), period))
}

// chronological projects the whole series oldest-first.
func (s *Series) chronological(pt PriceType) []float64 {
	result := make([]float64, len(s.bars))
	for i, bar := range s.bars {
		result[len(s.bars)-1-i] = bar.Get(pt)
	}
	return result
}

func lastFinite(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
