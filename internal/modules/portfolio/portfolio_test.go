package portfolio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/modules/assets"
	"github.com/quantfolio/quantfolio/internal/modules/market"
)

const epsilon = 1e-3

// twoAssetMarket builds a universe of two synthetic price-1 assets with
// static risk 0.10, return 0.10 and the given mutual correlation.
func twoAssetMarket(corr float64) *market.Market {
	log := zerolog.Nop()
	a := assets.NewSynthetic("A", 1, assets.Info{
		AvgRisk: 0.10, AvgReturn: 0.10,
		Correlation: map[string]float64{"B": corr},
	}, log)
	b := assets.NewSynthetic("B", 1, assets.Info{
		AvgRisk: 0.10, AvgReturn: 0.10,
		Correlation: map[string]float64{"A": corr},
	}, log)
	return market.BuildFromList([]*assets.Asset{a, b}, log)
}

func equalSplitHoldings() *Holdings {
	h := NewHoldings(zerolog.Nop())
	h.Set("A", 100)
	h.Set("B", 100)
	return h
}

func TestAvgRiskPerfectlyCorrelated(t *testing.T) {
	// Two fully correlated positions diversify nothing: the portfolio
	// risk equals the per-asset risk.
	m := twoAssetMarket(1)
	h := equalSplitHoldings()

	assert.InDelta(t, 0.10, AvgRisk(m, h), epsilon)
	assert.InDelta(t, 0.10, AvgReturn(m, h), epsilon)
}

func TestAvgRiskUncorrelated(t *testing.T) {
	// Uncorrelated equal positions cut risk by sqrt(2) while the
	// weighted return is unchanged.
	m := twoAssetMarket(0)
	h := equalSplitHoldings()

	assert.InDelta(t, 0.071, AvgRisk(m, h), epsilon)
	assert.InDelta(t, 0.10, AvgReturn(m, h), epsilon)
}

func TestAvgRiskEmptyPortfolio(t *testing.T) {
	m := twoAssetMarket(0)
	h := NewHoldings(zerolog.Nop())

	assert.Equal(t, 0.0, AvgRisk(m, h))
	assert.Equal(t, 0.0, AvgReturn(m, h))
	assert.Equal(t, 0.0, TotalValue(m, h, 0))
}

func TestHoldingsSetGet(t *testing.T) {
	h := NewHoldings(zerolog.Nop())

	assert.Equal(t, 0.0, h.Get("AAA"))
	h.Set("AAA", 10)
	h.Set("BBB", -5) // short position
	h.Set("AAA", 12)

	assert.Equal(t, 12.0, h.Get("AAA"))
	assert.Equal(t, -5.0, h.Get("BBB"))
	assert.Equal(t, []string{"AAA", "BBB"}, h.Symbols())
	assert.Equal(t, 2, h.Size())
}

func TestTotalValue(t *testing.T) {
	log := zerolog.Nop()
	m := market.BuildFromList([]*assets.Asset{
		assets.NewSynthetic("A", 10, assets.Info{}, log),
		assets.NewSynthetic("B", 20, assets.Info{}, log),
	}, log)

	h := NewHoldings(log)
	h.Set("A", 3)
	h.Set("B", 2)
	h.Set("CASH", 50)

	assert.InDelta(t, 10*3+20*2+50, TotalValue(m, h, 0), epsilon)
}

func TestTotalValueByTag(t *testing.T) {
	log := zerolog.Nop()
	m := market.BuildFromList([]*assets.Asset{
		assets.NewSynthetic("A", 10, assets.Info{}, log),
		assets.NewSynthetic("B", 20, assets.Info{}, log),
	}, log)

	h := NewHoldings(log)
	h.Set("A", 3)
	h.Set("B", 2)

	// Synthetic assets only carry Unclassified.
	value, symbols := TotalValueByTag(m, h, assets.Unclassified)
	assert.InDelta(t, 70, value, epsilon)
	assert.Equal(t, []string{"A", "B"}, symbols)

	value, symbols = TotalValueByTag(m, h, assets.ETF)
	assert.Equal(t, 0.0, value)
	assert.Empty(t, symbols)
}

func TestValueChangeSameDay(t *testing.T) {
	m := twoAssetMarket(0)
	h := equalSplitHoldings()

	_, err := ValueChange(m, h, 0, 0)
	assert.ErrorIs(t, err, ErrSameDay)
}

func TestValueChangeFlatPrices(t *testing.T) {
	// Synthetic single-bar series clamp every index to the one bar, so
	// the portfolio value never moves.
	m := twoAssetMarket(0)
	h := equalSplitHoldings()

	change, err := ValueChange(m, h, 0, 30)
	require.NoError(t, err)
	assert.Equal(t, 0.0, change)
}

func TestAvgOverFlatPrices(t *testing.T) {
	m := twoAssetMarket(0)
	h := equalSplitHoldings()

	ret, err := AvgReturnOver(m, h, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ret)

	risk, err := AvgRiskOver(m, h, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, risk)

	_, err = AvgReturnOver(m, h, 0)
	assert.Error(t, err)
	_, err = AvgRiskOver(m, h, -1)
	assert.Error(t, err)
}

func TestParseHoldingsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdings.csv")
	content := "Symbol,Quantity\nAAA,10\nBBB,2.5\nCASH,100\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	h, err := ParseHoldingsCSV(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 3, h.Size())
	assert.Equal(t, 10.0, h.Get("AAA"))
	assert.Equal(t, 2.5, h.Get("BBB"))
	assert.Equal(t, 100.0, h.Get("CASH"))
}

func TestParseHoldingsCSVBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "wrong header", content: "Ticker,Count\nAAA,10\n"},
		{name: "bad quantity", content: "Symbol,Quantity\nAAA,ten\n"},
		{name: "short row", content: "Symbol,Quantity\nAAA\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "holdings.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := ParseHoldingsCSV(path, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

// brokerageExport builds a minimal statement: the positional preamble,
// the given position rows, the cash row and the totals footer.
func brokerageExport(positions ...string) string {
	lines := []string{
		"Account Summary",        // 0
		"Account,Total Assets",   // 1
		"x", "x", "x",            // 2-4
		"View Summary - All Positions", // 5
		"x",                            // 6
		"Symbol,Value", // 7
		"x", "x", // 8-9
		"Symbol,Last Price $,a,b,Quantity,c,d,e,f,g", // 10
	}
	lines = append(lines, positions...)
	lines = append(lines,
		"CASH,x,x,x,x,x,x,x,x,5000,x", // cash row, balance in col 9
		"x", "x", "x", "x", "x",       // footer
	)
	return strings.Join(lines, "\n") + "\n"
}

func TestParseBrokerageExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	content := brokerageExport(
		"AAPL,150,x,x,10,x,x,x,x,x",
		"AAPL 240119C00150000,1.5,x,x,2,x,x,x,x,x", // option, skipped
		"VTI,220,x,x,4.5,x,x,x,x,x",
	)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	h, err := ParseBrokerageExport(path, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 3, h.Size())
	assert.Equal(t, 10.0, h.Get("AAPL"))
	assert.Equal(t, 4.5, h.Get("VTI"))
	assert.Equal(t, 5000.0, h.Get("CASH"))
	assert.Equal(t, 0.0, h.Get("AAPL 240119C00150000"))
}

func TestParseBrokerageExportBadInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
	}{
		{
			name:   "too short",
			mutate: func(s string) string { return "Account Summary\n" },
		},
		{
			name:   "wrong preamble",
			mutate: func(s string) string { return strings.Replace(s, "Account Summary", "Statement", 1) },
		},
		{
			name:   "wrong position width",
			mutate: func(s string) string { return strings.Replace(s, "AAPL,150,x,x,10,x,x,x,x,x", "AAPL,150,x,x,10", 1) },
		},
		{
			name:   "bad quantity",
			mutate: func(s string) string { return strings.Replace(s, "AAPL,150,x,x,10,", "AAPL,150,x,x,ten,", 1) },
		},
		{
			name:   "missing cash row",
			mutate: func(s string) string { return strings.Replace(s, "CASH,", "GOLD,", 1) },
		},
	}

	base := brokerageExport("AAPL,150,x,x,10,x,x,x,x,x", "VTI,220,x,x,4.5,x,x,x,x,x")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "export.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.mutate(base)), 0o644))

			_, err := ParseBrokerageExport(path, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func TestSaveCSVRoundTrip(t *testing.T) {
	h := NewHoldings(zerolog.Nop())
	h.Set("BBB", 2.5)
	h.Set("AAA", 10)

	path := filepath.Join(t.TempDir(), "holdings.csv")
	require.NoError(t, h.SaveCSV(path))

	loaded, err := ParseHoldingsCSV(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 10.0, loaded.Get("AAA"))
	assert.Equal(t, 2.5, loaded.Get("BBB"))
}

func TestSaveSymbols(t *testing.T) {
	h := NewHoldings(zerolog.Nop())
	h.Set("AAA", 10)
	h.Set("CASH", 100)
	h.Set("BBB", 2)

	path := filepath.Join(t.TempDir(), "symbols.txt")
	require.NoError(t, h.SaveSymbols(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\"AAA\", \"BBB\", ]\n", string(raw))
}

func TestSaveAllocations(t *testing.T) {
	log := zerolog.Nop()
	m := market.BuildFromList([]*assets.Asset{
		assets.NewSynthetic("A", 10, assets.Info{}, log),
		assets.NewSynthetic("B", 30, assets.Info{}, log),
	}, log)

	h := NewHoldings(log)
	h.Set("A", 1) // 25% of value
	h.Set("B", 1) // 75% of value

	path := filepath.Join(t.TempDir(), "allocations.csv")
	require.NoError(t, SaveAllocations(m, h, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")

	assert.Equal(t, "tag,totalAmount,percent,count,symbols...", lines[0])
	// One row per tag in the fixed order.
	require.Len(t, lines, 1+len(assets.AllTags))
	// Synthetic assets are Unclassified; that row carries everything.
	assert.Equal(t, "Unclassified,40,100,2,A,B", lines[1])
	assert.Equal(t, "ETF,0,0,0", lines[2])
}
