package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Instruments InstrumentsConfig `mapstructure:"instruments"`
	History     HistoryConfig     `mapstructure:"history"`
	Band        BandConfig        `mapstructure:"band"`
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	Run         RunConfig         `mapstructure:"run"`
	Report      ReportConfig      `mapstructure:"report"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// InstrumentsConfig holds the two per-instrument parameter tables. The key
// sets must match exactly; the registry enforces that at load time.
type InstrumentsConfig struct {
	Tickers      map[string]string  `mapstructure:"tickers"`
	Coefficients map[string]float64 `mapstructure:"coefficients"`
}

// HistoryConfig holds the history provider configuration
type HistoryConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Period         string        `mapstructure:"period"`
	Interval       string        `mapstructure:"interval"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// BandConfig holds the volatility band parameters shared by all instruments
// in a run.
type BandConfig struct {
	StdMultiplier float64 `mapstructure:"std_multiplier"`
}

// AnalysisConfig holds the optional forward-excursion analysis parameters.
type AnalysisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Horizon time.Duration `mapstructure:"horizon"`
}

// RunConfig holds run-wide execution behavior.
type RunConfig struct {
	Concurrency int  `mapstructure:"concurrency"`
	Strict      bool `mapstructure:"strict"`
}

// ReportConfig holds the output file configuration.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// periodPattern matches Yahoo-style range strings: "30y", "6mo", "5d", "max".
var periodPattern = regexp.MustCompile(`^(\d+(d|mo|y)|max)$`)

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override, e.g.
	// VOLBAND_TELEGRAM_BOT_TOKEN for telegram.bot_token.
	v.SetEnvPrefix("VOLBAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// History provider defaults
	v.SetDefault("history.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("history.period", "30y")
	v.SetDefault("history.interval", "1d")
	v.SetDefault("history.timeout", "30s")
	v.SetDefault("history.max_retries", 3)
	v.SetDefault("history.retry_delay_base", "1s")

	// Band defaults
	v.SetDefault("band.std_multiplier", 1.96)

	// Analysis defaults
	v.SetDefault("analysis.enabled", false)
	v.SetDefault("analysis.horizon", "8760h") // one year of forward data

	// Run defaults
	v.SetDefault("run.concurrency", 4)
	v.SetDefault("run.strict", false)

	// Report defaults
	v.SetDefault("report.output_dir", "./reports")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate instrument tables
	if len(c.Instruments.Tickers) == 0 {
		return fmt.Errorf("instruments.tickers must contain at least one symbol")
	}

	// Validate history config
	if c.History.BaseURL == "" {
		return fmt.Errorf("history.base_url is required")
	}
	if !periodPattern.MatchString(c.History.Period) {
		return fmt.Errorf("history.period must look like 30y, 6mo, 5d, or max")
	}
	switch c.History.Interval {
	case "1d", "1wk", "1mo":
	default:
		return fmt.Errorf("history.interval must be one of: 1d, 1wk, 1mo")
	}
	if c.History.Timeout <= 0 {
		return fmt.Errorf("history.timeout must be positive")
	}
	if c.History.MaxRetries < 1 {
		return fmt.Errorf("history.max_retries must be at least 1")
	}

	// Validate band config
	if c.Band.StdMultiplier < 0 {
		return fmt.Errorf("band.std_multiplier must not be negative")
	}

	// Validate analysis config
	if c.Analysis.Enabled && c.Analysis.Horizon <= 0 {
		return fmt.Errorf("analysis.horizon must be positive when analysis is enabled")
	}

	// Validate run config
	if c.Run.Concurrency < 1 {
		return fmt.Errorf("run.concurrency must be at least 1")
	}

	// Validate report config
	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir is required")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
