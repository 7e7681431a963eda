package config

import (
	"os"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestLoadAndValidate(t *testing.T) {
	content := `
instruments:
  tickers:
    ITX: ITX.MC
    BBCA: BBCA.JK
  coefficients:
    ITX: 1.0
    BBCA: 0.001

history:
  period: 10y
  interval: 1d
  timeout: 20s

band:
  std_multiplier: 1.96

run:
  concurrency: 2
  strict: true

report:
  output_dir: ./out

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

logging:
  level: "info"
  format: "json"
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	if cfg.Instruments.Tickers["ITX"] != "ITX.MC" {
		t.Errorf("tickers[ITX] = %q", cfg.Instruments.Tickers["ITX"])
	}
	if cfg.Instruments.Coefficients["BBCA"] != 0.001 {
		t.Errorf("coefficients[BBCA] = %v", cfg.Instruments.Coefficients["BBCA"])
	}
	if cfg.History.Period != "10y" {
		t.Errorf("history.period = %q", cfg.History.Period)
	}
	if cfg.History.Timeout != 20*time.Second {
		t.Errorf("history.timeout = %v", cfg.History.Timeout)
	}
	if cfg.Band.StdMultiplier != 1.96 {
		t.Errorf("band.std_multiplier = %v", cfg.Band.StdMultiplier)
	}
	if !cfg.Run.Strict {
		t.Error("run.strict should be true")
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `
instruments:
  tickers:
    ITX: ITX.MC
  coefficients:
    ITX: 1.0
`
	cfg, err := Load(writeTempConfig(t, content))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	if cfg.History.BaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("default base_url = %q", cfg.History.BaseURL)
	}
	if cfg.History.Period != "30y" || cfg.History.Interval != "1d" {
		t.Errorf("default period/interval = %q/%q", cfg.History.Period, cfg.History.Interval)
	}
	if cfg.Band.StdMultiplier != 1.96 {
		t.Errorf("default std_multiplier = %v", cfg.Band.StdMultiplier)
	}
	if cfg.Run.Concurrency != 4 || cfg.Run.Strict {
		t.Errorf("default run config = %+v", cfg.Run)
	}
	if cfg.Analysis.Enabled {
		t.Error("analysis should default to disabled")
	}
	if cfg.Telegram.Enabled {
		t.Error("telegram should default to disabled")
	}
	if cfg.Report.OutputDir != "./reports" {
		t.Errorf("default output_dir = %q", cfg.Report.OutputDir)
	}
}

func TestValidateErrors(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(writeTempConfig(t, `
instruments:
  tickers:
    ITX: ITX.MC
  coefficients:
    ITX: 1.0
`))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no instruments", func(c *Config) { c.Instruments.Tickers = nil }},
		{"bad period", func(c *Config) { c.History.Period = "30 years" }},
		{"bad interval", func(c *Config) { c.History.Interval = "1h" }},
		{"zero timeout", func(c *Config) { c.History.Timeout = 0 }},
		{"negative multiplier", func(c *Config) { c.Band.StdMultiplier = -0.5 }},
		{"zero concurrency", func(c *Config) { c.Run.Concurrency = 0 }},
		{"empty output dir", func(c *Config) { c.Report.OutputDir = "" }},
		{"telegram enabled without token", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = "1" }},
		{"telegram enabled without chat id", func(c *Config) { c.Telegram.Enabled = true; c.Telegram.BotToken = "t" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"analysis enabled without horizon", func(c *Config) { c.Analysis.Enabled = true; c.Analysis.Horizon = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate succeeded, want error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load of missing file succeeded, want error")
	}
}
