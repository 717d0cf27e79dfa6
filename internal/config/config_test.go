package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultCorrelationWindow, cfg.CorrelationWindow)
	assert.Equal(t, "info", cfg.LogLevel)

	minDate, maxDate, err := cfg.Window()
	require.NoError(t, err)
	assert.True(t, minDate.Before(maxDate))
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	content := `
data_dir: ./data/symbols
output_dir: ./output
min_date: "2015-01-01"
max_date: "2020-12-31"
correlation_window: 250
symbols: [VTI, VOO]
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.CorrelationWindow)
	assert.Equal(t, []string{"VTI", "VOO"}, cfg.Symbols)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.True(t, filepath.IsAbs(cfg.OutputDir))
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_date: \"2015-01-01\"\n"), 0o644))

	t.Setenv("QUANTFOLIO_MIN_DATE", "2018-06-01")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2018-06-01", cfg.MinDate)
}

func TestLoad_InvalidWindow(t *testing.T) {
	t.Setenv("QUANTFOLIO_MIN_DATE", "not-a-date")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_InvalidCorrelationWindow(t *testing.T) {
	t.Setenv("QUANTFOLIO_CORRELATION_WINDOW", "0")
	_, err := Load("")
	assert.Error(t, err)
}
