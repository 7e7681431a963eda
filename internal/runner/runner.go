// Package runner executes one daily run: it fans out over the configured
// instruments, drives fetch -> compute -> write for each, and collects a
// per-symbol outcome map. Instruments share no mutable state, so a failure
// in one never aborts the others.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"volband/internal/analysis"
	"volband/internal/band"
	"volband/internal/logger"
	"volband/internal/models"
	"volband/internal/registry"
	"volband/internal/report"
)

// HistoryProvider supplies an instrument's full OHLC history. Lookback
// period and sampling interval are fixed at provider construction.
type HistoryProvider interface {
	Fetch(ctx context.Context, ticker string) ([]models.PriceBar, error)
}

// ReportWriter persists calculator output. Implementations do formatting
// and I/O only.
type ReportWriter interface {
	WriteArtifact(artifact models.RunArtifact) error
	WriteOverview(rows []report.OverviewRow) error
}

// Config controls run-wide behavior.
type Config struct {
	Multiplier      float64
	Concurrency     int
	AnalysisEnabled bool
	AnalysisHorizon time.Duration
}

// Runner owns one run's collaborators.
type Runner struct {
	registry *registry.Registry
	provider HistoryProvider
	writer   ReportWriter
	config   Config
}

// New creates a runner. The registry is read-only and safe to share.
func New(reg *registry.Registry, provider HistoryProvider, writer ReportWriter, config Config) *Runner {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Runner{
		registry: reg,
		provider: provider,
		writer:   writer,
		config:   config,
	}
}

// Run processes every instrument and returns the run summary. Per-symbol
// failures are recorded in their outcome, never returned; the only error
// case is a failed overview write at the end.
func (r *Runner) Run(ctx context.Context) (models.RunSummary, error) {
	started := time.Now()
	instruments := r.registry.All()

	summary := models.RunSummary{
		RunID:     uuid.New().String(),
		StartedAt: started,
		Outcomes:  make([]models.SymbolOutcome, len(instruments)),
	}

	logger.Info("Starting run %s: %d instruments, concurrency %d, multiplier %.2f",
		summary.RunID, len(instruments), r.config.Concurrency, r.config.Multiplier)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	for i, inst := range instruments {
		i, inst := i, inst
		g.Go(func() error {
			// Each goroutine writes only its own slot; failures stay in
			// the outcome so siblings keep running.
			summary.Outcomes[i] = r.processInstrument(gctx, inst)
			return nil
		})
	}
	_ = g.Wait()

	rows := r.overviewRows(summary.Outcomes)
	if err := r.writer.WriteOverview(rows); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(started)
	logger.Info("Run %s completed in %v: %d succeeded, %d failed",
		summary.RunID, summary.Duration, len(summary.Succeeded()), len(summary.Failed()))

	return summary, nil
}

// processInstrument runs the fetch -> compute -> write pipeline for one
// instrument and tags any failure with the stage it happened in.
func (r *Runner) processInstrument(ctx context.Context, inst models.Instrument) models.SymbolOutcome {
	outcome := models.SymbolOutcome{Symbol: inst.Symbol}

	series, err := r.provider.Fetch(ctx, inst.Ticker)
	if err != nil {
		logger.Error("Fetch failed for %s (%s): %v", inst.Symbol, inst.Ticker, err)
		outcome.Stage = models.StageFetch
		outcome.Err = err
		return outcome
	}
	logger.Debug("Fetched %d bars for %s", len(series), inst.Symbol)

	artifact, err := band.ComputeRun(inst, series, r.config.Multiplier)
	if err != nil {
		logger.Error("Compute failed for %s: %v", inst.Symbol, err)
		outcome.Stage = models.StageCompute
		outcome.Err = err
		return outcome
	}

	if err := r.writer.WriteArtifact(artifact); err != nil {
		logger.Error("Write failed for %s: %v", inst.Symbol, err)
		outcome.Stage = models.StageWrite
		outcome.Err = err
		return outcome
	}

	last := artifact.Scaled[len(artifact.Scaled)-1]
	outcome.Band = artifact.Band
	outcome.Bars = len(artifact.Scaled)
	outcome.LastDate = last.Timestamp
	outcome.LastClose = last.Close
	outcome.Breach = !artifact.Band.Contains(last.Close)

	if outcome.Breach {
		logger.Warn("Band breach for %s: close %.4f outside [%.4f, %.4f]",
			inst.Symbol, last.Close, artifact.Band.LowerBound, artifact.Band.UpperBound)
	}

	if r.config.AnalysisEnabled {
		excursions := analysis.Excursions(series, r.config.AnalysisHorizon)
		thresholds, err := analysis.ComputeThresholds(excursions, r.config.Multiplier)
		if err != nil {
			// Analysis enriches the overview; a short series is not a
			// run failure.
			logger.Warn("Excursion analysis skipped for %s: %v", inst.Symbol, err)
		} else {
			outcome.DrawdownThreshold = thresholds.DrawdownThreshold
			outcome.GainThreshold = thresholds.GainThreshold
			outcome.HasThresholds = true
		}
	}

	return outcome
}

// overviewRows maps successful outcomes to overview rows, preserving the
// registry's deterministic order. Coefficients are looked up again so the
// row carries configuration, not recomputed values.
func (r *Runner) overviewRows(outcomes []models.SymbolOutcome) []report.OverviewRow {
	rows := make([]report.OverviewRow, 0, len(outcomes))
	for i := range outcomes {
		o := &outcomes[i]
		if !o.OK() {
			continue
		}
		inst, _ := r.registry.Get(o.Symbol)
		rows = append(rows, report.OverviewRow{
			Symbol:            o.Symbol,
			LastDate:          o.LastDate.Format("2006-01-02"),
			LastClose:         o.LastClose,
			Band:              o.Band,
			Coefficient:       inst.Coefficient,
			Bars:              o.Bars,
			DrawdownThreshold: o.DrawdownThreshold,
			GainThreshold:     o.GainThreshold,
			HasThresholds:     o.HasThresholds,
		})
	}
	return rows
}
