package models

import "time"

// Stage identifies where in the per-instrument pipeline a failure occurred.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageCompute Stage = "compute"
	StageWrite   Stage = "write"
)

// RunArtifact is the fully computed output for one instrument: the scaled
// series plus its volatility band. The emitter performs no further
// arithmetic on it.
type RunArtifact struct {
	Instrument Instrument
	Scaled     []ScaledBar
	Band       VolatilityBand
}

// SymbolOutcome records the result of processing one instrument in a run:
// either a successful artifact or the stage and error that failed it.
type SymbolOutcome struct {
	Symbol    string
	Stage     Stage
	Err       error
	Band      VolatilityBand
	Bars      int
	LastDate  time.Time
	LastClose float64
	Breach    bool

	// Overview fields, populated only when excursion analysis is enabled.
	DrawdownThreshold float64
	GainThreshold     float64
	HasThresholds     bool
}

// OK reports whether the instrument produced a complete artifact.
func (o *SymbolOutcome) OK() bool {
	return o.Err == nil
}

// RunSummary describes one whole daily run.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Outcomes  []SymbolOutcome
}

// Succeeded returns the symbols that produced output files, in run order.
func (s *RunSummary) Succeeded() []string {
	var out []string
	for i := range s.Outcomes {
		if s.Outcomes[i].OK() {
			out = append(out, s.Outcomes[i].Symbol)
		}
	}
	return out
}

// Failed returns the symbols excluded from this run's output, in run order.
func (s *RunSummary) Failed() []string {
	var out []string
	for i := range s.Outcomes {
		if !s.Outcomes[i].OK() {
			out = append(out, s.Outcomes[i].Symbol)
		}
	}
	return out
}

// Breaches returns the successful outcomes whose latest scaled close fell
// outside the band.
func (s *RunSummary) Breaches() []SymbolOutcome {
	var out []SymbolOutcome
	for i := range s.Outcomes {
		if s.Outcomes[i].OK() && s.Outcomes[i].Breach {
			out = append(out, s.Outcomes[i])
		}
	}
	return out
}
