// Package config loads and validates pipeline configuration from YAML or
// JSON files, with environment variable overrides for deploy secrets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // exchange timezones must resolve in scratch containers

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration
type Config struct {
	Symbols   []string        `json:"symbols" yaml:"symbols"`
	Equity    float64         `json:"equity" yaml:"equity"`
	Timezone  string          `json:"timezone" yaml:"timezone"` // IANA name, trading-day boundary
	RSI       RSIConfig       `json:"rsi" yaml:"rsi"`
	PSAR      PSARConfig      `json:"psar" yaml:"psar"`
	Engulfing EngulfingConfig `json:"engulfing" yaml:"engulfing"`
	Volume    VolumeConfig    `json:"volume" yaml:"volume"`
	Signal    SignalConfig    `json:"signal" yaml:"signal"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Alert     AlertConfig     `json:"alert" yaml:"alert"`
	Feed      FeedConfig      `json:"feed" yaml:"feed"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
}

// ParseLocation resolves the exchange timezone. Empty means UTC.
func (c *Config) ParseLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// RSIConfig contains RSI parameters
type RSIConfig struct {
	Period     int     `json:"period" yaml:"period"`
	Overbought float64 `json:"overbought" yaml:"overbought"`
	Oversold   float64 `json:"oversold" yaml:"oversold"`
}

// PSARConfig contains Parabolic SAR parameters
type PSARConfig struct {
	AFInit float64 `json:"af_init" yaml:"af_init"`
	AFStep float64 `json:"af_step" yaml:"af_step"`
	AFMax  float64 `json:"af_max" yaml:"af_max"`
}

// EngulfingConfig contains pattern detection parameters
type EngulfingConfig struct {
	Window       int     `json:"window" yaml:"window"`
	MinBodyRatio float64 `json:"min_body_ratio" yaml:"min_body_ratio"`
}

// VolumeConfig contains the volume average parameters
type VolumeConfig struct {
	AvgPeriod int `json:"avg_period" yaml:"avg_period"`
}

// SignalConfig toggles the optional entry confirmations
type SignalConfig struct {
	RequireVolume  bool `json:"require_volume" yaml:"require_volume"`
	RequirePattern bool `json:"require_pattern" yaml:"require_pattern"`
}

// RiskConfig contains position risk parameters
type RiskConfig struct {
	TakeProfitPct   float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	StopLossPct     float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TrailingArmPct  float64 `json:"trailing_arm_pct" yaml:"trailing_arm_pct"`
	TrailingStopPct float64 `json:"trailing_stop_pct" yaml:"trailing_stop_pct"`
	PositionSizePct float64 `json:"position_size_pct" yaml:"position_size_pct"`
	MaxPositions    int     `json:"max_positions" yaml:"max_positions"`
	MaxDailyLossPct float64 `json:"max_daily_loss_pct" yaml:"max_daily_loss_pct"`
}

// AlertConfig contains notification parameters
type AlertConfig struct {
	DebounceWindow   string `json:"debounce_window" yaml:"debounce_window"` // e.g. "15m"
	MaxAlertsPerHour int    `json:"max_alerts_per_hour" yaml:"max_alerts_per_hour"`
	TelegramToken    string `json:"telegram_token,omitempty" yaml:"telegram_token,omitempty" envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID   int64  `json:"telegram_chat_id,omitempty" yaml:"telegram_chat_id,omitempty" envconfig:"TELEGRAM_CHAT_ID"`
}

// ParseDebounceWindow converts the debounce window string to time.Duration
func (a AlertConfig) ParseDebounceWindow() (time.Duration, error) {
	if a.DebounceWindow == "" {
		return 0, nil
	}
	return time.ParseDuration(a.DebounceWindow)
}

// FeedConfig selects the bar source
type FeedConfig struct {
	Type    string `json:"type" yaml:"type"` // "ws" or "csv"
	URL     string `json:"url,omitempty" yaml:"url,omitempty" envconfig:"FEED_URL"`
	CSVPath string `json:"csv_path,omitempty" yaml:"csv_path,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path" envconfig:"JOURNAL_DB"`
}

// CacheConfig selects the snapshot cache backend
type CacheConfig struct {
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" envconfig:"REDIS_ADDR"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	TTL           string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// ParseTTL converts the cache TTL string to time.Duration
func (c CacheConfig) ParseTTL() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.TTL)
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // e.g. ":9090", empty disables
}

// LoadFromFile loads configuration from a file (YAML or JSON), then applies
// environment variable overrides
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := envconfig.Process("watchtower", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols is required")
	}
	if c.Equity <= 0 {
		return fmt.Errorf("equity must be positive")
	}
	if c.RSI.Period < 2 {
		return fmt.Errorf("rsi.period must be at least 2")
	}
	if c.RSI.Oversold >= c.RSI.Overbought {
		return fmt.Errorf("rsi.oversold must be below rsi.overbought")
	}
	if c.PSAR.AFInit <= 0 || c.PSAR.AFStep <= 0 {
		return fmt.Errorf("psar acceleration factors must be positive")
	}
	if c.PSAR.AFMax < c.PSAR.AFInit {
		return fmt.Errorf("psar.af_max must be at least psar.af_init")
	}
	if c.Engulfing.Window < 1 {
		return fmt.Errorf("engulfing.window must be at least 1")
	}
	if c.Engulfing.MinBodyRatio <= 0 {
		return fmt.Errorf("engulfing.min_body_ratio must be positive")
	}
	if c.Volume.AvgPeriod < 1 {
		return fmt.Errorf("volume.avg_period must be at least 1")
	}
	if _, err := c.ParseLocation(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if c.Risk.StopLossPct <= 0 || c.Risk.StopLossPct >= 1 {
		return fmt.Errorf("risk.stop_loss_pct must be between 0 and 1")
	}
	if c.Risk.TakeProfitPct <= 0 {
		return fmt.Errorf("risk.take_profit_pct must be positive")
	}
	if c.Risk.TrailingStopPct <= 0 || c.Risk.TrailingStopPct >= 1 {
		return fmt.Errorf("risk.trailing_stop_pct must be between 0 and 1")
	}
	if c.Risk.TrailingArmPct <= 0 {
		return fmt.Errorf("risk.trailing_arm_pct must be positive")
	}
	if c.Risk.PositionSizePct <= 0 || c.Risk.PositionSizePct > 1 {
		return fmt.Errorf("risk.position_size_pct must be between 0 and 1")
	}
	if c.Risk.MaxPositions < 1 {
		return fmt.Errorf("risk.max_positions must be at least 1")
	}
	if c.Risk.MaxDailyLossPct <= 0 || c.Risk.MaxDailyLossPct >= 1 {
		return fmt.Errorf("risk.max_daily_loss_pct must be between 0 and 1")
	}
	if _, err := c.Alert.ParseDebounceWindow(); err != nil {
		return fmt.Errorf("alert.debounce_window: %w", err)
	}
	if c.Alert.MaxAlertsPerHour < 0 {
		return fmt.Errorf("alert.max_alerts_per_hour must not be negative")
	}
	if c.Feed.Type != "ws" && c.Feed.Type != "csv" {
		return fmt.Errorf("feed.type must be 'ws' or 'csv'")
	}
	if c.Feed.Type == "ws" && c.Feed.URL == "" {
		return fmt.Errorf("feed.url required for ws type")
	}
	if c.Feed.Type == "csv" && c.Feed.CSVPath == "" {
		return fmt.Errorf("feed.csv_path required for csv type")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if _, err := c.Cache.ParseTTL(); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Symbols:  []string{"ACB"},
		Equity:   1_000_000,
		Timezone: "Asia/Ho_Chi_Minh",
		RSI: RSIConfig{
			Period:     14,
			Overbought: 70,
			Oversold:   30,
		},
		PSAR: PSARConfig{
			AFInit: 0.02,
			AFStep: 0.02,
			AFMax:  0.20,
		},
		Engulfing: EngulfingConfig{
			Window:       2,
			MinBodyRatio: 0.5,
		},
		Volume: VolumeConfig{
			AvgPeriod: 20,
		},
		Risk: RiskConfig{
			TakeProfitPct:   0.15,
			StopLossPct:     0.08,
			TrailingArmPct:  0.09,
			TrailingStopPct: 0.03,
			PositionSizePct: 0.02,
			MaxPositions:    10,
			MaxDailyLossPct: 0.05,
		},
		Alert: AlertConfig{
			DebounceWindow:   "15m",
			MaxAlertsPerHour: 20,
		},
		Feed: FeedConfig{
			Type:    "csv",
			CSVPath: "./bars.csv",
		},
		Journal: JournalConfig{
			DBPath: "./watchtower.db",
		},
		Cache: CacheConfig{
			TTL: "30m",
		},
	}
}
