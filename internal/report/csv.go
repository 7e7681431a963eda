// Package report serializes calculator output to per-instrument CSV files
// and a run-wide overview. It performs no arithmetic: the runner hands it
// fully computed artifacts.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"volband/internal/models"
)

// Series file column order; downstream consumers diff these files day over
// day, so the order and the file naming never change.
var seriesHeader = []string{"date", "scaled_open", "scaled_high", "scaled_low", "scaled_close"}

var bandHeader = []string{"mean", "std_dev", "lower_bound", "upper_bound", "multiplier"}

var overviewHeader = []string{
	"symbol", "last_date", "last_close", "mean", "std_dev",
	"lower_bound", "upper_bound", "multiplier", "coefficient", "bars",
	"drawdown_threshold", "gain_threshold",
}

// OverviewRow is one instrument's line in the run overview.
type OverviewRow struct {
	Symbol      string
	LastDate    string
	LastClose   float64
	Band        models.VolatilityBand
	Coefficient float64
	Bars        int

	DrawdownThreshold float64
	GainThreshold     float64
	HasThresholds     bool
}

// Writer emits CSV files under a fixed output directory.
type Writer struct {
	outputDir string
}

// NewWriter creates a writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// SeriesPath returns the series file path for a symbol.
func (w *Writer) SeriesPath(symbol string) string {
	return filepath.Join(w.outputDir, fileName(symbol)+".csv")
}

// BandPath returns the band summary file path for a symbol.
func (w *Writer) BandPath(symbol string) string {
	return filepath.Join(w.outputDir, fileName(symbol)+"_band.csv")
}

// OverviewPath returns the run overview file path.
func (w *Writer) OverviewPath() string {
	return filepath.Join(w.outputDir, "overview.csv")
}

// WriteArtifact writes both per-instrument files for one artifact: the
// scaled series and the band summary.
func (w *Writer) WriteArtifact(artifact models.RunArtifact) error {
	symbol := artifact.Instrument.Symbol
	if err := w.writeSeries(symbol, artifact.Scaled); err != nil {
		return err
	}
	return w.writeBand(symbol, artifact.Band)
}

func (w *Writer) writeSeries(symbol string, scaled []models.ScaledBar) error {
	records := make([][]string, 0, len(scaled))
	for _, bar := range scaled {
		records = append(records, []string{
			bar.Timestamp.Format("2006-01-02"),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
		})
	}
	return w.writeCSV(w.SeriesPath(symbol), seriesHeader, records)
}

func (w *Writer) writeBand(symbol string, band models.VolatilityBand) error {
	record := []string{
		formatFloat(band.Mean),
		formatFloat(band.StdDev),
		formatFloat(band.LowerBound),
		formatFloat(band.UpperBound),
		formatFloat(band.Multiplier),
	}
	return w.writeCSV(w.BandPath(symbol), bandHeader, [][]string{record})
}

// WriteOverview writes the run-wide summary, one row per successful
// instrument, in the order given (the registry's deterministic order).
func (w *Writer) WriteOverview(rows []OverviewRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		ddThresh, gainThresh := "", ""
		if row.HasThresholds {
			ddThresh = formatFloat(row.DrawdownThreshold)
			gainThresh = formatFloat(row.GainThreshold)
		}
		records = append(records, []string{
			row.Symbol,
			row.LastDate,
			formatFloat(row.LastClose),
			formatFloat(row.Band.Mean),
			formatFloat(row.Band.StdDev),
			formatFloat(row.Band.LowerBound),
			formatFloat(row.Band.UpperBound),
			formatFloat(row.Band.Multiplier),
			formatFloat(row.Coefficient),
			strconv.Itoa(row.Bars),
			ddThresh,
			gainThresh,
		})
	}
	return w.writeCSV(w.OverviewPath(), overviewHeader, records)
}

func (w *Writer) writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	for i, record := range records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d to %s: %w", i, path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

// formatFloat renders the shortest decimal string that round-trips the
// value, keeping files byte-identical across runs on identical input.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fileName maps a symbol to a stable file name; path separators are the
// only characters replaced so "BRK.B" style symbols keep their dots.
func fileName(symbol string) string {
	s := strings.ReplaceAll(symbol, "/", "_")
	return strings.ReplaceAll(s, string(os.PathSeparator), "_")
}
