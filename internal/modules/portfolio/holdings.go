// Package portfolio aggregates a set of holdings against an asset
// universe: valuation, value-weighted return, covariance-based risk and
// the allocation report. Holdings are plain symbol-to-quantity state,
// deliberately decoupled from any universe; every aggregate takes the
// market as an explicit parameter.
package portfolio

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/csvio"
)

const cashSymbol = "CASH"

// Holdings maps symbols to signed quantities. Negative quantities model
// short positions.
type Holdings struct {
	quantities map[string]float64
	log        zerolog.Logger
}

// NewHoldings returns an empty holdings set.
func NewHoldings(log zerolog.Logger) *Holdings {
	return &Holdings{
		quantities: map[string]float64{},
		log:        log.With().Str("service", "portfolio").Logger(),
	}
}

// Set records the quantity held for symbol, replacing any previous
// value.
func (h *Holdings) Set(symbol string, quantity float64) {
	h.quantities[symbol] = quantity
}

// Get returns the quantity held for symbol, zero when absent.
func (h *Holdings) Get(symbol string) float64 {
	return h.quantities[symbol]
}

// Size returns the number of distinct symbols held.
func (h *Holdings) Size() int { return len(h.quantities) }

// Symbols returns the held symbols in sorted order.
func (h *Holdings) Symbols() []string {
	result := make([]string, 0, len(h.quantities))
	for symbol := range h.quantities {
		result = append(result, symbol)
	}
	sort.Strings(result)
	return result
}

// ParseHoldingsCSV loads a Symbol,Quantity file with a header row.
func ParseHoldingsCSV(path string, log zerolog.Logger) (*Holdings, error) {
	table, err := csvio.Read(path, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read holdings: %w", err)
	}
	if len(table.Header) != 2 || table.Header[0] != "Symbol" || table.Header[1] != "Quantity" {
		return nil, fmt.Errorf("unexpected holdings header %v", table.Header)
	}

	h := NewHoldings(log)
	for i, row := range table.Rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("holdings row %d: want 2 fields, got %d", i, len(row))
		}
		quantity, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("holdings row %d: bad quantity %q: %w", i, row[1], err)
		}
		h.Set(row[0], quantity)
	}
	h.log.Info().Int("symbols", h.Size()).Str("path", path).Msg("Holdings loaded")
	return h, nil
}

// Brokerage statement layout constants. The export is positional: an
// account summary preamble, two column-header rows, the position rows,
// then a cash row and totals footer.
const (
	stmtMinRows       = 18
	stmtFirstPosition = 11
	stmtFooterRows    = 6
	stmtPositionCols  = 10
	stmtQuantityCol   = 4
	stmtCashCols      = 11
	stmtCashValueCol  = 9
)

// ParseBrokerageExport loads a positional brokerage statement export.
// Option positions (symbols containing a space) are skipped; the
// trailing cash row becomes a CASH holding. Any structural surprise is
// an error.
func ParseBrokerageExport(path string, log zerolog.Logger) (*Holdings, error) {
	table, err := csvio.Read(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read brokerage export: %w", err)
	}
	rows := table.Rows
	if len(rows) < stmtMinRows {
		return nil, fmt.Errorf("brokerage export too short: %d rows", len(rows))
	}
	if err := checkCell(rows, 0, 0, "Account Summary"); err != nil {
		return nil, err
	}
	if err := checkCell(rows, 1, 0, "Account"); err != nil {
		return nil, err
	}
	if err := checkCell(rows, 1, 1, "Total Assets"); err != nil {
		return nil, err
	}
	if err := checkCell(rows, 5, 0, "View Summary - All Positions"); err != nil {
		return nil, err
	}
	if err := checkCell(rows, 7, 0, "Symbol"); err != nil {
		return nil, err
	}
	if err := checkCell(rows, 10, 0, "Symbol"); err != nil {
		return nil, err
	}
	if err := checkCell(rows, 10, 1, "Last Price $"); err != nil {
		return nil, err
	}

	h := NewHoldings(log)
	for i := stmtFirstPosition; i < len(rows)-stmtFooterRows; i++ {
		row := rows[i]
		if len(row) != stmtPositionCols {
			return nil, fmt.Errorf("brokerage export row %d: want %d fields, got %d", i, stmtPositionCols, len(row))
		}
		symbol := row[0]
		if strings.Contains(symbol, " ") {
			h.log.Debug().Str("symbol", symbol).Msg("Option position skipped")
			continue
		}
		quantity, err := strconv.ParseFloat(row[stmtQuantityCol], 64)
		if err != nil {
			return nil, fmt.Errorf("brokerage export row %d: bad quantity %q: %w", i, row[stmtQuantityCol], err)
		}
		h.Set(symbol, quantity)
	}

	cashRow := rows[len(rows)-stmtFooterRows]
	if len(cashRow) != stmtCashCols {
		return nil, fmt.Errorf("brokerage export cash row: want %d fields, got %d", stmtCashCols, len(cashRow))
	}
	if cashRow[0] != cashSymbol {
		return nil, fmt.Errorf("brokerage export cash row: want %q, got %q", cashSymbol, cashRow[0])
	}
	cash, err := strconv.ParseFloat(cashRow[stmtCashValueCol], 64)
	if err != nil {
		return nil, fmt.Errorf("brokerage export cash row: bad balance %q: %w", cashRow[stmtCashValueCol], err)
	}
	h.Set(cashSymbol, cash)

	h.log.Info().Int("symbols", h.Size()).Str("path", path).Msg("Brokerage export loaded")
	return h, nil
}

func checkCell(rows [][]string, row, col int, want string) error {
	if col >= len(rows[row]) || rows[row][col] != want {
		return fmt.Errorf("brokerage export row %d col %d: want %q", row, col, want)
	}
	return nil
}

// SaveCSV writes the holdings as a Symbol,Quantity file.
func (h *Holdings) SaveCSV(path string) error {
	var sb strings.Builder
	sb.WriteString("Symbol,Quantity\n")
	for _, symbol := range h.Symbols() {
		sb.WriteString(symbol + "," + strconv.FormatFloat(h.quantities[symbol], 'f', -1, 64) + "\n")
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

// SaveSymbols writes the held symbols as an array literal, cash
// excluded.
func (h *Holdings) SaveSymbols(path string) error {
	var sb strings.Builder
	sb.WriteString("[")
	for _, symbol := range h.Symbols() {
		if symbol == cashSymbol {
			continue
		}
		sb.WriteString("\"" + symbol + "\", ")
	}
	sb.WriteString("]\n")
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
