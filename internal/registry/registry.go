// Package registry holds the immutable per-instrument parameter table:
// provider ticker and scale coefficient, keyed by symbol.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"volband/internal/models"
)

// ErrNotFound is returned by Get for a symbol absent from the registry.
var ErrNotFound = errors.New("instrument not found")

// Registry is the loaded instrument table. It is immutable after Load and
// safe to share across concurrent readers.
type Registry struct {
	instruments []models.Instrument
	bySymbol    map[string]models.Instrument
}

// Load builds a registry from the two configuration mappings. The key sets
// must be identical (every symbol with a ticker has a coefficient and vice
// versa), every coefficient must be positive, and no symbol or ticker may
// be empty. Any violation is a configuration error that aborts the run
// before any fetch begins.
func Load(tickers map[string]string, coefficients map[string]float64) (*Registry, error) {
	if len(tickers) == 0 {
		return nil, errors.New("no instruments configured")
	}

	for symbol := range tickers {
		if _, ok := coefficients[symbol]; !ok {
			return nil, fmt.Errorf("symbol %q has a ticker but no coefficient", symbol)
		}
	}
	for symbol := range coefficients {
		if _, ok := tickers[symbol]; !ok {
			return nil, fmt.Errorf("symbol %q has a coefficient but no ticker", symbol)
		}
	}

	r := &Registry{
		instruments: make([]models.Instrument, 0, len(tickers)),
		bySymbol:    make(map[string]models.Instrument, len(tickers)),
	}
	for symbol, ticker := range tickers {
		inst := models.Instrument{
			Symbol:      symbol,
			Ticker:      ticker,
			Coefficient: coefficients[symbol],
		}
		if err := inst.Validate(); err != nil {
			return nil, fmt.Errorf("instrument %q: %w", symbol, err)
		}
		r.instruments = append(r.instruments, inst)
		r.bySymbol[symbol] = inst
	}

	// Deterministic iteration order so output files are diffable run over
	// run; YAML mapping order is not observable through the config layer.
	sort.Slice(r.instruments, func(i, j int) bool {
		return r.instruments[i].Symbol < r.instruments[j].Symbol
	})

	return r, nil
}

// All returns every instrument in deterministic (symbol-sorted) order.
// The returned slice is a copy; callers may not mutate registry state.
func (r *Registry) All() []models.Instrument {
	out := make([]models.Instrument, len(r.instruments))
	copy(out, r.instruments)
	return out
}

// Get looks up one instrument by symbol.
func (r *Registry) Get(symbol string) (models.Instrument, error) {
	inst, ok := r.bySymbol[symbol]
	if !ok {
		return models.Instrument{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return inst, nil
}

// Len returns the number of configured instruments.
func (r *Registry) Len() int {
	return len(r.instruments)
}
