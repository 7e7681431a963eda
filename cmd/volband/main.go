package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"volband/internal/config"
	"volband/internal/logger"
	"volband/internal/registry"
	"volband/internal/report"
	"volband/internal/runner"
	"volband/internal/telegram"
	"volband/internal/yahoo"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Secrets (bot token, chat ID) come from the environment; a local
	// .env file is optional.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Configuration errors abort before any fetch begins.
	reg, err := registry.Load(cfg.Instruments.Tickers, cfg.Instruments.Coefficients)
	if err != nil {
		logger.Fatal("Invalid instrument configuration: %v", err)
	}
	logger.Info("Loaded %d instruments (period %s, interval %s)",
		reg.Len(), cfg.History.Period, cfg.History.Interval)

	provider := yahoo.NewClient(
		cfg.History.BaseURL,
		cfg.History.Period,
		cfg.History.Interval,
		cfg.History.Timeout,
		yahoo.ClientConfig{
			MaxRetries:     cfg.History.MaxRetries,
			RetryDelayBase: cfg.History.RetryDelayBase,
		},
	)

	writer := report.NewWriter(cfg.Report.OutputDir)

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cancelling run...")
		cancel()
	}()

	r := runner.New(reg, provider, writer, runner.Config{
		Multiplier:      cfg.Band.StdMultiplier,
		Concurrency:     cfg.Run.Concurrency,
		AnalysisEnabled: cfg.Analysis.Enabled,
		AnalysisHorizon: cfg.Analysis.Horizon,
	})

	summary, err := r.Run(ctx)
	if err != nil {
		logger.Error("Failed to write run overview: %v", err)
	}

	for _, o := range summary.Outcomes {
		if o.OK() {
			logger.Info("%s: %d bars, band [%.4f, %.4f], mean %.4f",
				o.Symbol, o.Bars, o.Band.LowerBound, o.Band.UpperBound, o.Band.Mean)
		} else {
			logger.Error("%s: failed at %s: %v", o.Symbol, o.Stage, o.Err)
		}
	}

	if telegramClient != nil {
		if sendErr := telegramClient.SendSummary(summary); sendErr != nil {
			logger.Warn("Failed to send run summary to Telegram: %v", sendErr)
		}
		if breaches := summary.Breaches(); len(breaches) > 0 {
			if sendErr := telegramClient.SendBreaches(breaches); sendErr != nil {
				logger.Warn("Failed to send breach notification to Telegram: %v", sendErr)
			}
		}
	}

	os.Exit(exitCode(len(summary.Succeeded()), len(summary.Failed()), cfg.Run.Strict, err != nil))
}

// exitCode implements the documented policy: overview write failures and
// zero successes always fail the process; with strict mode any failed
// instrument does too.
func exitCode(succeeded, failed int, strict, overviewFailed bool) int {
	if overviewFailed {
		return 1
	}
	if succeeded == 0 {
		return 1
	}
	if strict && failed > 0 {
		return 1
	}
	return 0
}
