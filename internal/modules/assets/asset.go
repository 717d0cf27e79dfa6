package assets

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/csvio"
	"github.com/quantfolio/quantfolio/internal/modules/series"
	"github.com/quantfolio/quantfolio/pkg/formulas"
)

// CorrSource tells which path produced a correlation value, so callers
// and tests can distinguish a genuine historical coefficient from a
// fallback.
type CorrSource int

const (
	CorrIdentity  CorrSource = iota // self-correlation, exactly 1
	CorrHistory                     // computed over aligned price history
	CorrFallback                    // static coefficient from metadata (0 when absent)
	CorrUnaligned                   // calendar mismatch, value is 0
)

// StatSource tells whether a risk/return figure came from price history
// or from the static metadata bag.
type StatSource int

const (
	SourceHistory StatSource = iota
	SourceMetadata
)

// Asset is one tradeable instrument: a symbol, its gap-filled price
// series, the static metadata bag, the side-channel metadata document,
// and the classification tag set derived once at construction. Assets
// are immutable after construction.
type Asset struct {
	symbol string
	prices *series.Series
	meta   Metadata
	info   Info
	tags   map[Tag]bool
	log    zerolog.Logger
}

// NewSynthetic builds an asset with a fixed price and no history, used
// for cash and unknown-symbol placeholders. Its tag set is
// {Unclassified}.
func NewSynthetic(symbol string, price float64, info Info, log zerolog.Logger) *Asset {
	alog := log.With().Str("service", "asset").Str("symbol", symbol).Logger()
	a := &Asset{
		symbol: symbol,
		prices: series.NewFromPrice(price, log),
		meta:   NewMetadata(nil, alog),
		info:   info,
		tags:   map[Tag]bool{Unclassified: true},
		log:    alog,
	}
	alog.Debug().Int("bars", a.prices.Size()).Msg("Synthetic asset constructed")
	return a
}

// New builds a file-backed asset from <symbol>.csv and <symbol>.json in
// dataDir, keeping bars inside the [minDate, maxDate] window.
func New(symbol, dataDir string, info Info, minDate, maxDate time.Time, log zerolog.Logger) (*Asset, error) {
	alog := log.With().Str("service", "asset").Str("symbol", symbol).Logger()

	table, err := csvio.Read(filepath.Join(dataDir, symbol+".csv"), true)
	if err != nil {
		return nil, fmt.Errorf("failed to load bars for %s: %w", symbol, err)
	}
	prices, err := series.Load(table, minDate, maxDate, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build series for %s: %w", symbol, err)
	}
	meta, err := LoadMetadata(filepath.Join(dataDir, symbol+".json"), alog)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata for %s: %w", symbol, err)
	}

	a := &Asset{
		symbol: symbol,
		prices: prices,
		meta:   meta,
		info:   info,
		log:    alog,
	}
	a.tags = a.findTags() // needs metadata and series in place
	alog.Debug().Int("bars", prices.Size()).Msg("Asset constructed")
	return a, nil
}

// Symbol returns the ticker symbol.
func (a *Asset) Symbol() string { return a.symbol }

// Prices returns the asset's price series.
func (a *Asset) Prices() *series.Series { return a.prices }

// Info returns the static metadata bag.
func (a *Asset) Info() Info { return a.info }

// Meta reads a string value from the metadata document.
func (a *Asset) Meta(key string) string { return a.meta.Value(key) }

// HasTag reports whether the asset carries the tag.
func (a *Asset) HasTag(tag Tag) bool { return a.tags[tag] }

// Tags returns the asset's tags in AllTags order.
func (a *Asset) Tags() []Tag { return sortTags(a.tags) }

// TagsString renders the tag set for reports.
func (a *Asset) TagsString() string {
	tags := a.Tags()
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = string(tag)
	}
	return strings.Join(names, ", ")
}

// Save writes the asset's series, derived columns included, to
// <symbol>.csv in dataDir.
func (a *Asset) Save(dataDir string) error {
	return a.prices.Save(filepath.Join(dataDir, a.symbol+".csv"))
}

// Correlation returns the correlation coefficient against other over
// the most recent length aligned bars of the projected price.
func (a *Asset) Correlation(other *Asset, pt series.PriceType, useRank bool, length int) float64 {
	v, _ := a.CorrelationDetail(other, pt, useRank, length)
	return v
}

// CorrelationDetail is Correlation plus the source of the value.
// Self-correlation is exactly 1. When either side has fewer than two
// bars the previously supplied static coefficient is used (0 when
// absent). Otherwise both series must cover pairwise identical dates
// over the window; a mismatch yields 0 with a diagnostic.
func (a *Asset) CorrelationDetail(other *Asset, pt series.PriceType, useRank bool, length int) (float64, CorrSource) {
	if a.symbol == other.symbol {
		return 1, CorrIdentity
	}
	if a.prices.Size() < 2 {
		return a.info.Correlation[other.symbol], CorrFallback
	}
	if other.prices.Size() < 2 {
		return other.info.Correlation[a.symbol], CorrFallback
	}

	size := min(min(a.prices.Size(), other.prices.Size()), length)
	if !a.prices.MatchTimestamps(other.prices, size) {
		a.log.Warn().
			Str("other", other.symbol).
			Int("window", size).
			Msg("Correlation skipped, calendar mismatch")
		return 0, CorrUnaligned
	}

	v1 := a.prices.ToVector(size, 0, pt)
	v2 := other.prices.ToVector(size, 0, pt)
	if useRank {
		return formulas.SpearmanCorrelation(v1, v2), CorrHistory
	}
	return formulas.PearsonCorrelation(v1, v2), CorrHistory
}

// AvgRisk returns the rolling risk over length days, falling back to
// the static figure when there is no usable price history.
func (a *Asset) AvgRisk(length int) float64 {
	v, _ := a.AvgRiskDetail(length)
	return v
}

// AvgRiskDetail is AvgRisk plus the source of the value.
func (a *Asset) AvgRiskDetail(length int) (float64, StatSource) {
	if a.prices.Size() > 1 {
		return a.prices.AvgRisk(length), SourceHistory
	}
	return a.info.AvgRisk, SourceMetadata
}

// AvgReturn returns the rolling return over length days, falling back
// to the static figure when there is no usable price history.
func (a *Asset) AvgReturn(length int) float64 {
	v, _ := a.AvgReturnDetail(length)
	return v
}

// AvgReturnDetail is AvgReturn plus the source of the value.
func (a *Asset) AvgReturnDetail(length int) (float64, StatSource) {
	if a.prices.Size() > 1 {
		return a.prices.AvgReturn(length), SourceHistory
	}
	return a.info.AvgReturn, SourceMetadata
}

// IsETF reports whether the metadata quote type marks this as an
// exchange-traded fund.
func (a *Asset) IsETF() bool {
	return a.meta.Value("quoteType") == "ETF"
}

// IsBond reports whether the instrument is a bond fund, by category and
// fund-name keywords.
func (a *Asset) IsBond() bool {
	if a.symbol == "VMBS" { // Vanguard Mortgage-Backed Securities ETF
		return true
	}
	if strings.Contains(a.meta.Value("category"), "Bond") {
		return true
	}
	name := a.meta.Value("longName")
	if strings.Contains(name, " Bond ") {
		return true
	}
	if strings.Contains(name, " Treasury Index Fund ") { // $EDV
		return true
	}
	return false
}

// IsForeign reports whether the instrument is a non-US holding, by
// category, fund-name and country keywords.
func (a *Asset) IsForeign() bool {
	category := a.meta.Value("category")
	for _, keyword := range []string{"China", "Emerging", "Europe", "Pacific/Asia", "Foreign"} {
		if strings.Contains(category, keyword) {
			return true
		}
	}

	name := a.meta.Value("longName")
	if strings.Contains(name, "Emerging Markets") {
		return true
	}
	if strings.Contains(name, " ex-U") { // ex-U.S. OR ex-US
		return true
	}

	country := a.meta.Value("country")
	return country != "" && country != "United States"
}

// IsREIT reports whether the instrument is a real estate investment
// trust by category keyword.
func (a *Asset) IsREIT() bool {
	return strings.Contains(a.meta.Value("category"), "Real Estate")
}

// Management returns the management-company tag derived from the fund
// name, first match wins.
func (a *Asset) Management() (Tag, bool) {
	return managementTag(a.meta.Value("longName"))
}

// findTags derives the classification tag set from the predicates and
// the lookup tables. Runs once at construction.
func (a *Asset) findTags() map[Tag]bool {
	result := map[Tag]bool{}

	if a.IsETF() {
		result[ETF] = true
		// Only ETFs carry tags keyed by their symbol
		if tag, ok := LookupTag(a.symbol, a.log); ok {
			result[tag] = true
		}
	} else {
		result[NotETF] = true
	}
	if a.IsBond() {
		result[Bond] = true
	}
	if a.IsForeign() {
		result[Foreign] = true
	}
	if a.IsREIT() {
		result[REIT] = true
	}

	if tag, ok := LookupTag(a.meta.Value("category"), a.log); ok {
		result[tag] = true
	}
	if tag, ok := LookupTag(a.meta.Value("sector"), a.log); ok {
		result[tag] = true
	}

	if len(result) == 0 {
		result[Unclassified] = true
	}

	if tag, ok := a.Management(); ok {
		result[tag] = true
	}
	return result
}
