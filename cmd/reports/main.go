// Package main is the report generator: it loads the asset universe
// from flat files, prices the configured holdings against it and writes
// the analytics reports (market info, correlation list and cache,
// symbols, allocations) to the output directory in one batch run.
package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/config"
	"github.com/quantfolio/quantfolio/internal/csvio"
	"github.com/quantfolio/quantfolio/internal/modules/market"
	"github.com/quantfolio/quantfolio/internal/modules/portfolio"
	"github.com/quantfolio/quantfolio/internal/utils"
	"github.com/quantfolio/quantfolio/pkg/logger"
)

// getEnv retrieves an environment variable value, returning a fallback
// if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	cfg, err := config.Load(getEnv("QUANTFOLIO_CONFIG", "quantfolio.yml"))
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: getEnv("QUANTFOLIO_LOG_PRETTY", "true") == "true",
	})
	logger.SetGlobalLogger(log)

	// Every run gets its own identity so interleaved log output from
	// repeated invocations stays attributable.
	runID := uuid.New().String()
	log = log.With().Str("run_id", runID).Logger()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Report run failed")
	}
	log.Info().Msg("Report run complete")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	defer utils.OperationTimer("report_run", log)()

	minDate, maxDate, err := cfg.Window()
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if cfg.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}

	var infoTable *csvio.Table
	if cfg.MarketInfoCSV != "" {
		infoTable, err = csvio.Read(cfg.MarketInfoCSV, true)
		if err != nil {
			return err
		}
	}

	buildTimer := utils.NewTimer("build_market", log)
	m, err := market.BuildFromDir(cfg.DataDir, infoTable, cfg.Symbols, minDate, maxDate, log)
	if err != nil {
		return err
	}
	buildTimer.Stop()
	m.SetCorrelationWindow(cfg.CorrelationWindow)

	out := func(name string) string { return filepath.Join(cfg.OutputDir, name) }

	if err := m.SaveMarketInfo(out("market-info.csv")); err != nil {
		return err
	}
	if err := m.SaveCorrelationList(out("correlations.txt")); err != nil {
		return err
	}
	if err := m.SaveSymbols(out("symbols.txt")); err != nil {
		return err
	}

	cacheTimer := utils.NewTimer("correlation_cache", log)
	cache := m.BuildCorrelationCache()
	if err := market.SaveCorrelationCache(out("correlations.msgpack"), cache); err != nil {
		return err
	}
	cacheTimer.Stop()

	if cfg.HoldingsCSV == "" {
		log.Info().Msg("No holdings configured, skipping portfolio reports")
		return nil
	}

	holdings, err := portfolio.ParseHoldingsCSV(cfg.HoldingsCSV, log)
	if err != nil {
		return err
	}

	log.Info().
		Float64("total_value", portfolio.TotalValue(m, holdings, 0)).
		Float64("avg_return", portfolio.AvgReturn(m, holdings)).
		Float64("avg_risk", portfolio.AvgRisk(m, holdings)).
		Msg("Portfolio summary")

	if err := portfolio.SaveAllocations(m, holdings, out("allocations.csv")); err != nil {
		return err
	}
	if err := holdings.SaveSymbols(out("holdings-symbols.txt")); err != nil {
		return err
	}
	return nil
}
