// Package analysis computes forward price excursions: for each entry bar,
// the worst drawdown and best gain (percent of the entry close) realized
// over a fixed forward horizon. The reduced thresholds feed the run
// overview.
package analysis

import (
	"errors"
	"math"
	"time"

	"volband/internal/models"
)

// ErrNoValidExcursions is returned when no bar has both a positive entry
// price and a full horizon of future data.
var ErrNoValidExcursions = errors.New("no valid excursions in series")

// Excursion is the forward gain/drawdown outcome for one entry bar.
// Valid is false when the entry was skipped (non-positive price, or the
// entry lies within one horizon of the series end).
type Excursion struct {
	Timestamp      time.Time
	MaxDrawdownPct float64
	MaxGainPct     float64
	Valid          bool
}

// Thresholds summarizes the valid excursions of a series. The thresholds
// use the sample standard deviation (divisor N-1).
type Thresholds struct {
	DrawdownMean   float64
	DrawdownStdDev float64
	GainMean       float64
	GainStdDev     float64

	// DrawdownThreshold = DrawdownMean - k*DrawdownStdDev,
	// GainThreshold = GainMean + k*GainStdDev.
	DrawdownThreshold float64
	GainThreshold     float64
}

// Excursions scans the series and, for every entry bar at least one horizon
// before the last bar, computes the minimum and maximum percent return over
// the following horizon. Entries with close <= 0 are invalid; future bars
// with close <= 0 are ignored.
func Excursions(series []models.PriceBar, horizon time.Duration) []Excursion {
	out := make([]Excursion, len(series))
	if len(series) == 0 {
		return out
	}

	cutoff := series[len(series)-1].Timestamp.Add(-horizon)

	for i, entry := range series {
		out[i].Timestamp = entry.Timestamp
		if entry.Timestamp.After(cutoff) || entry.Close <= 0 {
			continue
		}

		end := entry.Timestamp.Add(horizon)
		minPct := math.Inf(1)
		maxPct := math.Inf(-1)
		seen := false

		for j := i + 1; j < len(series); j++ {
			future := series[j]
			if future.Timestamp.After(end) {
				break
			}
			if future.Close <= 0 {
				continue
			}
			pct := (future.Close - entry.Close) / entry.Close * 100
			if pct < minPct {
				minPct = pct
			}
			if pct > maxPct {
				maxPct = pct
			}
			seen = true
		}

		if !seen {
			continue
		}
		out[i].MaxDrawdownPct = minPct
		out[i].MaxGainPct = maxPct
		out[i].Valid = true
	}

	return out
}

// ComputeThresholds reduces the valid excursions to drawdown and gain
// thresholds at multiplier standard deviations from their means.
func ComputeThresholds(excursions []Excursion, multiplier float64) (Thresholds, error) {
	var drawdowns, gains []float64
	for _, e := range excursions {
		if !e.Valid {
			continue
		}
		drawdowns = append(drawdowns, e.MaxDrawdownPct)
		gains = append(gains, e.MaxGainPct)
	}
	if len(drawdowns) == 0 {
		return Thresholds{}, ErrNoValidExcursions
	}

	ddMean, ddStd := sampleMeanStd(drawdowns)
	gainMean, gainStd := sampleMeanStd(gains)

	return Thresholds{
		DrawdownMean:      ddMean,
		DrawdownStdDev:    ddStd,
		GainMean:          gainMean,
		GainStdDev:        gainStd,
		DrawdownThreshold: ddMean - multiplier*ddStd,
		GainThreshold:     gainMean + multiplier*gainStd,
	}, nil
}

// sampleMeanStd returns the mean and sample (divisor N-1) standard
// deviation, two-pass. A single value has standard deviation 0.
func sampleMeanStd(values []float64) (float64, float64) {
	n := float64(len(values))

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	if len(values) < 2 {
		return mean, 0
	}

	var sqDev float64
	for _, v := range values {
		d := v - mean
		sqDev += d * d
	}
	return mean, math.Sqrt(sqDev / (n - 1))
}
