// Package market holds the immutable asset universe and its bulk
// reports. A Market is built once, from a data directory or from an
// asset list, and only the placeholder memo changes afterwards.
package market

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/csvio"
	"github.com/quantfolio/quantfolio/internal/modules/assets"
	"github.com/quantfolio/quantfolio/internal/modules/series"
)

// CorrelationWindow is the bar count every universe-level correlation
// is computed over.
const CorrelationWindow = 400

// Market is the universe of known assets plus a memo of synthetic
// placeholders handed out for cash and unknown symbols. The asset map
// never changes after construction; the memo is mutex-guarded so
// concurrent report runs can share one Market.
type Market struct {
	assets  map[string]*assets.Asset
	symbols []string
	window  int

	mu           sync.Mutex
	placeholders map[string]*assets.Asset

	log zerolog.Logger
}

// BuildFromDir scans dataDir for <symbol>.csv files and loads each one
// as an asset. A non-empty filter restricts loading to those symbols.
// infoTable carries per-symbol static figures as
// symbol,dividendYield,expenseRatio rows; symbols without a row get
// zero-valued info.
func BuildFromDir(dataDir string, infoTable *csvio.Table, filter []string, minDate, maxDate time.Time, log zerolog.Logger) (*Market, error) {
	mlog := log.With().Str("service", "market").Logger()

	infoMap, err := parseInfoTable(infoTable)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(filter))
	for _, symbol := range filter {
		wanted[symbol] = true
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan data dir: %w", err)
	}

	universe := map[string]*assets.Asset{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		symbol := strings.TrimSuffix(name, ".csv")
		if len(wanted) > 0 && !wanted[symbol] {
			continue
		}
		if _, ok := universe[symbol]; ok {
			mlog.Warn().Str("symbol", symbol).Msg("Duplicate symbol skipped")
			continue
		}
		asset, err := assets.New(symbol, dataDir, infoMap[symbol], minDate, maxDate, log)
		if err != nil {
			return nil, fmt.Errorf("failed to load asset %s: %w", symbol, err)
		}
		universe[symbol] = asset
	}

	m := newMarket(universe, mlog)
	mlog.Info().Int("assets", m.Size()).Msg("Market built from directory")
	return m, nil
}

// BuildFromList builds a universe from already-constructed assets.
// Duplicate symbols are skipped with a warning, first one wins.
func BuildFromList(list []*assets.Asset, log zerolog.Logger) *Market {
	mlog := log.With().Str("service", "market").Logger()

	universe := map[string]*assets.Asset{}
	for _, asset := range list {
		if _, ok := universe[asset.Symbol()]; ok {
			mlog.Warn().Str("symbol", asset.Symbol()).Msg("Duplicate symbol skipped")
			continue
		}
		universe[asset.Symbol()] = asset
	}

	m := newMarket(universe, mlog)
	mlog.Info().Int("assets", m.Size()).Msg("Market built from list")
	return m
}

func newMarket(universe map[string]*assets.Asset, log zerolog.Logger) *Market {
	symbols := make([]string, 0, len(universe))
	for symbol := range universe {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return &Market{
		assets:       universe,
		symbols:      symbols,
		window:       CorrelationWindow,
		placeholders: map[string]*assets.Asset{},
		log:          log,
	}
}

// SetCorrelationWindow overrides the bar count used for every
// universe-level correlation. Non-positive values are ignored.
func (m *Market) SetCorrelationWindow(window int) {
	if window <= 0 {
		m.log.Warn().Int("window", window).Msg("Ignoring non-positive correlation window")
		return
	}
	m.window = window
}

// CorrelationLength returns the bar count universe-level correlations
// are computed over.
func (m *Market) CorrelationLength() int { return m.window }

// parseInfoTable reads symbol,dividendYield,expenseRatio rows into
// per-symbol info. Malformed rows are an error.
func parseInfoTable(table *csvio.Table) (map[string]assets.Info, error) {
	result := map[string]assets.Info{}
	if table == nil {
		return result, nil
	}
	for i, row := range table.Rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("market info row %d: want 3 fields, got %d", i, len(row))
		}
		dy, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("market info row %d: bad dividendYield %q: %w", i, row[1], err)
		}
		er, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("market info row %d: bad expenseRatio %q: %w", i, row[2], err)
		}
		result[row[0]] = assets.Info{DividendYield: dy, ExpenseRatio: er}
	}
	return result, nil
}

// Size returns how many assets the universe holds, placeholders
// excluded.
func (m *Market) Size() int { return len(m.assets) }

// Symbols returns the universe's symbols in sorted order.
func (m *Market) Symbols() []string { return m.symbols }

// Get returns the asset for symbol. "CASH" resolves to a fixed price-1
// synthetic asset; any other unknown symbol resolves to a zero-price
// placeholder with a warning. Placeholders are memoized so repeated
// lookups return the same instance.
func (m *Market) Get(symbol string) *assets.Asset {
	if asset, ok := m.assets[symbol]; ok {
		return asset
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if asset, ok := m.placeholders[symbol]; ok {
		return asset
	}

	price := 0.0
	if symbol == "CASH" {
		price = 1
	} else {
		m.log.Warn().Str("symbol", symbol).Msg("Unknown symbol, zero-price placeholder")
	}
	asset := assets.NewSynthetic(symbol, price, assets.Info{}, m.log)
	m.placeholders[symbol] = asset
	return asset
}

// Correlation is the universe-level coefficient between two symbols:
// Pearson over the HL2 projection across the standard window.
func (m *Market) Correlation(symbol1, symbol2 string) float64 {
	a1 := m.Get(symbol1)
	a2 := m.Get(symbol2)
	return a1.Correlation(a2, series.HL2, false, m.window)
}

// each walks the universe in sorted symbol order.
func (m *Market) each(fn func(*assets.Asset)) {
	for _, symbol := range m.symbols {
		fn(m.assets[symbol])
	}
}

// etfs returns the universe's ETFs in sorted symbol order.
func (m *Market) etfs() []*assets.Asset {
	var result []*assets.Asset
	m.each(func(a *assets.Asset) {
		if a.IsETF() {
			result = append(result, a)
		}
	})
	return result
}
