package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "cfg.yaml", `
symbols: [ACB, VNM]
equity: 2000000
rsi:
  period: 10
  overbought: 75
  oversold: 25
risk:
  stop_loss_pct: 0.10
alert:
  debounce_window: 30m
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ACB", "VNM"}, cfg.Symbols)
	assert.InDelta(t, 2_000_000.0, cfg.Equity, 1e-9)
	assert.Equal(t, 10, cfg.RSI.Period)
	assert.InDelta(t, 0.10, cfg.Risk.StopLossPct, 1e-9)

	// Untouched fields keep their defaults.
	assert.InDelta(t, 0.02, cfg.PSAR.AFInit, 1e-9)
	assert.Equal(t, 10, cfg.Risk.MaxPositions)
	assert.Equal(t, 20, cfg.Volume.AvgPeriod)
	assert.False(t, cfg.Signal.RequireVolume)
	assert.False(t, cfg.Signal.RequirePattern)

	d, err := cfg.Alert.ParseDebounceWindow()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, d)
}

func TestLoadJSONFallback(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "cfg.json", `{
		"symbols": ["ACB"],
		"equity": 500000,
		"feed": {"type": "csv", "csv_path": "./data.csv"}
	}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 500_000.0, cfg.Equity, 1e-9)
	assert.Equal(t, "./data.csv", cfg.Feed.CSVPath)
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "cfg.yaml", `{{{not a config`)
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no symbols", func(c *Config) { c.Symbols = nil }},
		{"zero equity", func(c *Config) { c.Equity = 0 }},
		{"rsi period too small", func(c *Config) { c.RSI.Period = 1 }},
		{"oversold above overbought", func(c *Config) { c.RSI.Oversold = 80 }},
		{"af_max below af_init", func(c *Config) { c.PSAR.AFMax = 0.01 }},
		{"stop loss out of range", func(c *Config) { c.Risk.StopLossPct = 1.5 }},
		{"position size out of range", func(c *Config) { c.Risk.PositionSizePct = 0 }},
		{"zero max positions", func(c *Config) { c.Risk.MaxPositions = 0 }},
		{"zero volume period", func(c *Config) { c.Volume.AvgPeriod = 0 }},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus_Mons" }},
		{"bad debounce window", func(c *Config) { c.Alert.DebounceWindow = "soon" }},
		{"unknown feed type", func(c *Config) { c.Feed.Type = "carrier-pigeon" }},
		{"ws without url", func(c *Config) { c.Feed.Type = "ws"; c.Feed.URL = "" }},
		{"missing db path", func(c *Config) { c.Journal.DBPath = "" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfirmationToggles(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "cfg.yaml", `
symbols: [ACB]
equity: 1000000
timezone: Asia/Bangkok
volume:
  avg_period: 10
signal:
  require_volume: true
  require_pattern: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Volume.AvgPeriod)
	assert.True(t, cfg.Signal.RequireVolume)
	assert.True(t, cfg.Signal.RequirePattern)

	loc, err := cfg.ParseLocation()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bangkok", loc.String())
}

func TestEnvOverrides(t *testing.T) {
	// Not parallel: mutates process environment.
	t.Setenv("TELEGRAM_TOKEN", "secret-token")
	t.Setenv("REDIS_ADDR", "redis:6379")

	path := writeFile(t, "cfg.yaml", `
symbols: [ACB]
equity: 1000000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Alert.TelegramToken)
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Symbols = []string{"VNM", "FPT"}
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Symbols, got.Symbols)
}
