// Package models defines the core domain entities: instruments, price
// series, and volatility bands.
package models

import "errors"

// Instrument is a tradable symbol together with the ticker its history
// provider knows it by and the coefficient that converts the provider's raw
// price units into the shared comparison scale.
type Instrument struct {
	Symbol      string  `json:"symbol"`
	Ticker      string  `json:"ticker"`
	Coefficient float64 `json:"coefficient"`
}

// Validate checks instrument field constraints.
func (i *Instrument) Validate() error {
	if i.Symbol == "" {
		return errors.New("instrument symbol must not be empty")
	}
	if i.Ticker == "" {
		return errors.New("instrument ticker must not be empty")
	}
	if i.Coefficient <= 0 {
		return errors.New("instrument coefficient must be positive")
	}
	return nil
}
