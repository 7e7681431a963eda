package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"volband/internal/models"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func seriesOf(closes ...float64) []models.PriceBar {
	out := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = models.PriceBar{Timestamp: day(i), Close: c}
	}
	return out
}

func TestExcursionsBasic(t *testing.T) {
	// Entry at 100, next three days within a 3-day horizon: 110, 90, 105.
	series := seriesOf(100, 110, 90, 105)

	exc := Excursions(series, 72*time.Hour)
	if len(exc) != 4 {
		t.Fatalf("got %d excursions, want 4", len(exc))
	}

	first := exc[0]
	if !first.Valid {
		t.Fatal("first entry should be valid")
	}
	if math.Abs(first.MaxGainPct-10) > 1e-9 {
		t.Errorf("max gain = %v, want 10", first.MaxGainPct)
	}
	if math.Abs(first.MaxDrawdownPct+10) > 1e-9 {
		t.Errorf("max drawdown = %v, want -10", first.MaxDrawdownPct)
	}

	// The last bar has no future data and the later entries are within one
	// horizon of the series end.
	for i := 1; i < 4; i++ {
		if exc[i].Valid {
			t.Errorf("entry %d should be invalid (within horizon of series end)", i)
		}
	}
}

func TestExcursionsSkipsNonPositiveEntry(t *testing.T) {
	series := seriesOf(0, 110, 90, 105, 100, 100, 100)
	exc := Excursions(series, 48*time.Hour)
	if exc[0].Valid {
		t.Error("zero-price entry should be invalid")
	}
	if !exc[1].Valid {
		t.Error("positive entry with full horizon should be valid")
	}
}

func TestExcursionsIgnoresNonPositiveFuture(t *testing.T) {
	series := seriesOf(100, 0, 105, 100, 100)
	exc := Excursions(series, 48*time.Hour)
	if !exc[0].Valid {
		t.Fatal("entry should be valid")
	}
	if math.Abs(exc[0].MaxDrawdownPct-5) > 1e-9 {
		t.Errorf("drawdown = %v, want 5 (zero close ignored)", exc[0].MaxDrawdownPct)
	}
}

func TestExcursionsEmpty(t *testing.T) {
	if got := Excursions(nil, time.Hour); len(got) != 0 {
		t.Errorf("Excursions(nil) returned %d entries", len(got))
	}
}

func TestComputeThresholds(t *testing.T) {
	excursions := []Excursion{
		{MaxDrawdownPct: -10, MaxGainPct: 10, Valid: true},
		{MaxDrawdownPct: -20, MaxGainPct: 20, Valid: true},
		{MaxDrawdownPct: -100, MaxGainPct: 100, Valid: false}, // skipped
	}

	th, err := ComputeThresholds(excursions, 2.0)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(th.DrawdownMean+15) > 1e-9 {
		t.Errorf("drawdown mean = %v, want -15", th.DrawdownMean)
	}
	// Sample std of {-10, -20} is sqrt(50) ~= 7.0711.
	wantStd := math.Sqrt(50)
	if math.Abs(th.DrawdownStdDev-wantStd) > 1e-9 {
		t.Errorf("drawdown stddev = %v, want %v", th.DrawdownStdDev, wantStd)
	}
	if math.Abs(th.DrawdownThreshold-(-15-2*wantStd)) > 1e-9 {
		t.Errorf("drawdown threshold = %v", th.DrawdownThreshold)
	}
	if math.Abs(th.GainThreshold-(15+2*wantStd)) > 1e-9 {
		t.Errorf("gain threshold = %v", th.GainThreshold)
	}
}

func TestComputeThresholdsNoValid(t *testing.T) {
	_, err := ComputeThresholds([]Excursion{{Valid: false}}, 1.96)
	if !errors.Is(err, ErrNoValidExcursions) {
		t.Fatalf("error = %v, want ErrNoValidExcursions", err)
	}
}
