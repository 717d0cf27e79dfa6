package market

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/quantfolio/quantfolio/internal/modules/assets"
	"github.com/quantfolio/quantfolio/internal/modules/series"
)

const (
	correlationListTop  = 10
	correlationListMin  = 0.95
	marketInfoStatDays  = 365
	marketInfoShortDays = 30
)

// SaveAssets writes every asset's series, derived columns included, to
// <symbol>.csv under dataDir.
func (m *Market) SaveAssets(dataDir string) error {
	for _, symbol := range m.symbols {
		if err := m.assets[symbol].Save(dataDir); err != nil {
			return fmt.Errorf("failed to save asset %s: %w", symbol, err)
		}
	}
	m.log.Info().Int("assets", m.Size()).Str("dir", dataDir).Msg("Assets saved")
	return nil
}

// SaveCorrelationList writes, per ETF, the other ETFs ranked by Pearson
// correlation over the HL2 projection, top ten, shown only above the
// 0.95 threshold. Each line carries both the Pearson and the Spearman
// coefficient so rank divergence is visible.
func (m *Market) SaveCorrelationList(path string) error {
	m.log.Info().Str("path", path).Msg("Saving correlation list")

	var sb strings.Builder
	for _, asset := range m.etfs() {
		m.log.Debug().Str("symbol", asset.Symbol()).Msg("Correlation list row")
		sb.WriteString(describeAsset(asset))
		sb.WriteString("\n")

		type ranked struct {
			pearson float64
			line    string
		}
		var list []ranked
		for _, other := range m.etfs() {
			if other.Symbol() == asset.Symbol() {
				continue
			}
			pearson := asset.Correlation(other, series.HL2, false, m.window)
			spearman := asset.Correlation(other, series.HL2, true, m.window)
			list = append(list, ranked{
				pearson: pearson,
				line: formatCorr(pearson) + "\t" + formatCorr(spearman) + "\t" +
					describeAsset(other),
			})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].pearson > list[j].pearson })

		top := min(correlationListTop, len(list))
		for _, item := range list[:top] {
			if item.pearson > correlationListMin {
				sb.WriteString("\t" + item.line + "\n")
			}
		}
		sb.WriteString("\n")
	}

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// SaveMarketInfo writes the per-asset analytics table: identity and
// metadata columns, drawdown and rolling return/risk figures, one
// boolean column per tag in AllTags order, then Pearson and Spearman
// correlation columns against every ETF over the OHLC4 projection.
func (m *Market) SaveMarketInfo(path string) error {
	m.log.Info().Str("path", path).Msg("Saving market info")

	etfs := m.etfs()

	header := []string{
		"symbol", "name", "category",
		"dividendYield", "expenseRatio",
		"percentFromAth", "percentToAth", "historySize",
		"return30days", "return365days", "avgReturn", "avgRisk",
	}
	for _, tag := range assets.AllTags {
		header = append(header, "is-"+string(tag))
	}
	for _, etf := range etfs {
		header = append(header, "PC-"+etf.Symbol())
	}
	for _, etf := range etfs {
		header = append(header, "SC-"+etf.Symbol())
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(header, ","))
	sb.WriteString("\n")

	m.each(func(asset *assets.Asset) {
		m.log.Debug().Str("symbol", asset.Symbol()).Msg("Market info row")
		prices := asset.Prices()

		cells := []string{
			asset.Symbol(),
			asset.Meta("longName"),
			asset.Meta("category") + asset.Meta("sector"),
			formatNum(asset.Info().DividendYield),
			formatNum(asset.Info().ExpenseRatio),
			formatNum(prices.PercentFromATH(0)),
			formatNum(prices.PercentToATH(0)),
			strconv.Itoa(prices.Size()),
			formatNum(prices.PriceChangeOver(0, marketInfoShortDays, series.HL2)),
			formatNum(prices.PriceChangeOver(0, marketInfoStatDays, series.HL2)),
			formatNum(asset.AvgReturn(marketInfoStatDays)),
			formatNum(asset.AvgRisk(marketInfoStatDays)),
		}
		for _, tag := range assets.AllTags {
			cells = append(cells, formatBool(asset.HasTag(tag)))
		}
		for _, etf := range etfs {
			cells = append(cells, formatNum(asset.Correlation(etf, series.OHLC4, false, m.window)))
		}
		for _, etf := range etfs {
			cells = append(cells, formatNum(asset.Correlation(etf, series.OHLC4, true, m.window)))
		}

		sb.WriteString(strings.Join(cells, ","))
		sb.WriteString("\n")
	})

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// SaveSymbols writes the symbol array on the first line, then one
// symbol, name and tag line per asset.
func (m *Market) SaveSymbols(path string) error {
	m.log.Info().Str("path", path).Msg("Saving symbols")

	var sb strings.Builder
	sb.WriteString("[")
	for _, symbol := range m.symbols {
		sb.WriteString("\"" + symbol + "\",")
	}
	sb.WriteString("]\n\n")

	m.each(func(asset *assets.Asset) {
		sb.WriteString(asset.Symbol() + "\t" + asset.Meta("longName") + "\t" + asset.TagsString() + "\n")
	})

	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// describeAsset renders the correlation-list identity of an asset:
// symbol, fund name, expense ratio and tags.
func describeAsset(a *assets.Asset) string {
	return fmt.Sprintf("%s (%s) [%s] %s",
		a.Symbol(), a.Meta("longName"), formatNum(a.Info().ExpenseRatio), a.TagsString())
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCorr(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
