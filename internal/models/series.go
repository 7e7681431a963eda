package models

import (
	"errors"
	"time"
)

// PriceBar is one daily OHLC bar as returned by the history provider.
// A series of bars is ordered ascending by timestamp with no duplicates.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// ScaledBar is a PriceBar with every price field multiplied by an
// instrument's coefficient. One-to-one with the source series, same order.
type ScaledBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// VolatilityBand is the [mean - k*sigma, mean + k*sigma] interval over an
// instrument's scaled closing prices, recomputed fresh on every run.
// StdDev is the population standard deviation (divisor N).
type VolatilityBand struct {
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Multiplier float64 `json:"multiplier"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// Validate checks band invariants.
func (b *VolatilityBand) Validate() error {
	if b.StdDev < 0 {
		return errors.New("band std dev must not be negative")
	}
	if b.Multiplier < 0 {
		return errors.New("band multiplier must not be negative")
	}
	if b.LowerBound > b.Mean || b.Mean > b.UpperBound {
		return errors.New("band bounds must satisfy lower <= mean <= upper")
	}
	return nil
}

// Contains reports whether v lies inside the band, bounds inclusive.
func (b *VolatilityBand) Contains(v float64) bool {
	return v >= b.LowerBound && v <= b.UpperBound
}
