// Package band implements the volatility band calculator: the pure
// transformation from a raw price series into a coefficient-scaled series
// and a mean +/- k*sigma confidence band over the scaled closes.
package band

import (
	"errors"
	"fmt"
	"math"

	"volband/internal/models"
)

// ErrInsufficientData is returned when a band is requested for an empty
// series. Mean and variance are undefined there; callers must not treat
// missing history as zero volatility.
var ErrInsufficientData = errors.New("insufficient data: empty series")

// ComputeScaled multiplies every price field of the series by coefficient,
// preserving timestamps and order. The result has the same length as the
// input; an empty input yields an empty, non-nil result.
func ComputeScaled(series []models.PriceBar, coefficient float64) []models.ScaledBar {
	scaled := make([]models.ScaledBar, len(series))
	for i, bar := range series {
		scaled[i] = models.ScaledBar{
			Timestamp: bar.Timestamp,
			Open:      bar.Open * coefficient,
			High:      bar.High * coefficient,
			Low:       bar.Low * coefficient,
			Close:     bar.Close * coefficient,
		}
	}
	return scaled
}

// ComputeBand computes the volatility band over scaledCloses.
//
// The standard deviation is the population flavor (divisor N): the band
// describes the observed dispersion of this exact sample, not an estimate
// for a larger population. A single-element series has StdDev 0 and the
// band collapses to [mean, mean]. The variance is accumulated in two passes
// (mean first, then squared deviations from it) so long series do not lose
// precision to cancellation.
func ComputeBand(scaledCloses []float64, multiplier float64) (models.VolatilityBand, error) {
	if len(scaledCloses) == 0 {
		return models.VolatilityBand{}, ErrInsufficientData
	}

	n := float64(len(scaledCloses))

	var sum float64
	for _, v := range scaledCloses {
		sum += v
	}
	mean := sum / n

	var sqDev float64
	for _, v := range scaledCloses {
		d := v - mean
		sqDev += d * d
	}
	stdDev := math.Sqrt(sqDev / n)

	return models.VolatilityBand{
		Mean:       mean,
		StdDev:     stdDev,
		Multiplier: multiplier,
		LowerBound: mean - multiplier*stdDev,
		UpperBound: mean + multiplier*stdDev,
	}, nil
}

// ComputeRun scales the series by the instrument's coefficient and computes
// the band over the scaled closes. Errors are tagged with the instrument
// symbol for diagnostics.
func ComputeRun(inst models.Instrument, series []models.PriceBar, multiplier float64) (models.RunArtifact, error) {
	scaled := ComputeScaled(series, inst.Coefficient)

	closes := make([]float64, len(scaled))
	for i := range scaled {
		closes[i] = scaled[i].Close
	}

	b, err := ComputeBand(closes, multiplier)
	if err != nil {
		return models.RunArtifact{}, fmt.Errorf("%s: %w", inst.Symbol, err)
	}

	return models.RunArtifact{
		Instrument: inst,
		Scaled:     scaled,
		Band:       b,
	}, nil
}
