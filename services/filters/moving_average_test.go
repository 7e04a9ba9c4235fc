package filters

import (
	"math"
	"testing"
)

func TestMovingAverageFilterValidation(t *testing.T) {
	tests := []struct {
		name      string
		period    int
		condition string
		wantErr   bool
	}{
		{"sma 20 above", 20, ConditionAbove, false},
		{"sma 50 below", 50, ConditionBelow, false},
		{"sma 200 above", 200, ConditionAbove, false},
		{"unsupported period", 30, ConditionAbove, true},
		{"zero period", 0, ConditionAbove, true},
		{"bad condition", 20, "near", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMovingAverageFilter(tt.period, tt.condition)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMovingAverageFilter(%d, %q) error = %v, wantErr %v", tt.period, tt.condition, err, tt.wantErr)
			}
		})
	}
}

func TestMovingAverageFilterApply(t *testing.T) {
	f, err := NewMovingAverageFilter(20, ConditionAbove)
	if err != nil {
		t.Fatalf("NewMovingAverageFilter() error = %v", err)
	}

	// 20 closes at 100, then opens above the average
	n := 25
	opens := make([]float64, n)
	closes := make([]float64, n)
	for i := range opens {
		opens[i] = 101
		closes[i] = 100
	}
	series := testSeries("MSFT", opens, closes, nil)

	fr, err := f.Apply(series)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// No average exists before index period: those days never qualify
	for i := 0; i < 20; i++ {
		if fr.QualifyingMask[i] {
			t.Errorf("mask[%d] = true before the first valid average", i)
		}
	}
	for i := 20; i < n; i++ {
		if !fr.QualifyingMask[i] {
			t.Errorf("mask[%d] = false, open 101 above sma 100", i)
		}
	}
	if fr.Metrics["valid_days"] != float64(n-20) {
		t.Errorf("valid_days = %v, want %d", fr.Metrics["valid_days"], n-20)
	}
	// open 101 vs average 100 is a 1% distance
	if got := fr.Metrics["avg_distance_percent"]; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("avg_distance_percent = %v, want 1.0", got)
	}
}

func TestMovingAverageExcludesCurrentClose(t *testing.T) {
	f, _ := NewMovingAverageFilter(20, ConditionBelow)

	// Constant closes at 100 except a huge close on the evaluated day.
	// If the current close leaked into the average, the open would no
	// longer sit below it.
	n := 21
	opens := make([]float64, n)
	closes := make([]float64, n)
	for i := range opens {
		opens[i] = 99
		closes[i] = 100
	}
	closes[20] = 10_000

	fr, err := f.Apply(testSeries("GME", opens, closes, nil))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	// Average over closes[0..19] is exactly 100, so open 99 qualifies
	if !fr.QualifyingMask[20] {
		t.Error("mask[20] = false; the current day's close leaked into its own average")
	}
}
