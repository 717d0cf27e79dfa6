package market

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantfolio/quantfolio/internal/modules/series"
)

// CorrelationCache holds the precomputed ETF-to-ETF correlation
// matrices, keyed by ordered symbol pair. Persisted as a msgpack flat
// file so repeated report runs skip the quadratic recompute.
type CorrelationCache struct {
	Window   int                `msgpack:"window"`
	Pearson  map[string]float64 `msgpack:"pearson"`
	Spearman map[string]float64 `msgpack:"spearman"`
}

// pairKey orders the two symbols so (a,b) and (b,a) share one entry.
func pairKey(symbol1, symbol2 string) string {
	if symbol1 > symbol2 {
		symbol1, symbol2 = symbol2, symbol1
	}
	return symbol1 + "|" + symbol2
}

// BuildCorrelationCache computes Pearson and Spearman coefficients over
// the OHLC4 projection for every unordered ETF pair.
func (m *Market) BuildCorrelationCache() *CorrelationCache {
	cache := &CorrelationCache{
		Window:   m.window,
		Pearson:  map[string]float64{},
		Spearman: map[string]float64{},
	}

	etfs := m.etfs()
	for i, a := range etfs {
		for _, b := range etfs[i:] {
			key := pairKey(a.Symbol(), b.Symbol())
			cache.Pearson[key] = a.Correlation(b, series.OHLC4, false, m.window)
			cache.Spearman[key] = a.Correlation(b, series.OHLC4, true, m.window)
		}
	}

	m.log.Info().Int("pairs", len(cache.Pearson)).Msg("Correlation cache built")
	return cache
}

// Get returns the cached Pearson and Spearman coefficients for a symbol
// pair.
func (c *CorrelationCache) Get(symbol1, symbol2 string) (pearson, spearman float64, ok bool) {
	key := pairKey(symbol1, symbol2)
	pearson, ok = c.Pearson[key]
	if !ok {
		return 0, 0, false
	}
	return pearson, c.Spearman[key], true
}

// SaveCorrelationCache writes the cache to path.
func SaveCorrelationCache(path string, cache *CorrelationCache) error {
	raw, err := msgpack.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to encode correlation cache: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write correlation cache: %w", err)
	}
	return nil
}

// LoadCorrelationCache reads a cache previously written by
// SaveCorrelationCache.
func LoadCorrelationCache(path string) (*CorrelationCache, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read correlation cache: %w", err)
	}
	var cache CorrelationCache
	if err := msgpack.Unmarshal(raw, &cache); err != nil {
		return nil, fmt.Errorf("failed to decode correlation cache: %w", err)
	}
	return &cache, nil
}
