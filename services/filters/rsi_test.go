package filters

import (
	"math"
	"testing"
)

func TestRSIFilterValidation(t *testing.T) {
	tests := []struct {
		name      string
		period    int
		condition string
		threshold float64
		wantErr   bool
	}{
		{"default period", 0, ConditionBelow, 30, false},
		{"explicit period", 14, ConditionAbove, 70, false},
		{"period too short", 1, ConditionAbove, 70, true},
		{"bad condition", 14, "between", 50, true},
		{"threshold below zero", 14, ConditionAbove, -5, true},
		{"threshold above hundred", 14, ConditionAbove, 105, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRSIFilter(tt.period, tt.condition, tt.threshold)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRSIFilter(%d, %q, %v) error = %v, wantErr %v", tt.period, tt.condition, tt.threshold, err, tt.wantErr)
			}
		})
	}
}

func TestRSIDefaultPeriodLookback(t *testing.T) {
	f, err := NewRSIFilter(0, ConditionBelow, 30)
	if err != nil {
		t.Fatalf("NewRSIFilter() error = %v", err)
	}
	// The seed average consumes period deltas, taking period+1 closes
	if f.RequiredLookbackDays() != 15 {
		t.Errorf("RequiredLookbackDays() = %d, want 15", f.RequiredLookbackDays())
	}
}

func TestComputeWilderRSIBounds(t *testing.T) {
	// A noisy but bounded walk; RSI must stay within [0, 100] and be
	// undefined before index period
	closes := []float64{100, 102, 101, 105, 103, 104, 108, 106, 109, 107, 110, 108, 112, 111, 115, 113, 117, 114, 118, 116}
	period := 14

	rsi := computeWilderRSI(closes, period)

	for i := 0; i < period; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Errorf("rsi[%d] = %v before the first valid index, want NaN", i, rsi[i])
		}
	}
	for i := period; i < len(rsi); i++ {
		if math.IsNaN(rsi[i]) {
			t.Errorf("rsi[%d] = NaN at a valid index", i)
			continue
		}
		if rsi[i] < 0 || rsi[i] > 100 {
			t.Errorf("rsi[%d] = %v outside [0, 100]", i, rsi[i])
		}
	}
}

func TestComputeWilderRSIAllGains(t *testing.T) {
	// Monotonically rising closes: average loss is zero, RSI pins at 100
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := computeWilderRSI(closes, 14)
	for i := 14; i < len(rsi); i++ {
		if rsi[i] != 100 {
			t.Errorf("rsi[%d] = %v for an all-gain series, want exactly 100", i, rsi[i])
		}
	}
}

func TestComputeWilderRSIAllLosses(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	rsi := computeWilderRSI(closes, 14)
	for i := 14; i < len(rsi); i++ {
		if rsi[i] != 0 {
			t.Errorf("rsi[%d] = %v for an all-loss series, want 0", i, rsi[i])
		}
	}
}

func TestComputeWilderRSISeed(t *testing.T) {
	// 14 deltas alternating +2/-1 give seed averages avgGain = 1,
	// avgLoss = 0.5, RS = 2, RSI = 100 - 100/3
	closes := make([]float64, 15)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 2
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	rsi := computeWilderRSI(closes, 14)
	want := 100 - 100.0/3.0
	if math.Abs(rsi[14]-want) > 1e-9 {
		t.Errorf("seed rsi = %v, want %v", rsi[14], want)
	}
}

func TestRSIFilterApply(t *testing.T) {
	f, err := NewRSIFilter(14, ConditionAbove, 70)
	if err != nil {
		t.Fatalf("NewRSIFilter() error = %v", err)
	}

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	series := testSeries("NVDA", closes, closes, nil)

	fr, err := f.Apply(series)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	for i := 0; i < 14; i++ {
		if fr.QualifyingMask[i] {
			t.Errorf("mask[%d] = true before the first valid RSI", i)
		}
	}
	for i := 14; i < 20; i++ {
		if !fr.QualifyingMask[i] {
			t.Errorf("mask[%d] = false with RSI 100 above threshold 70", i)
		}
	}
	if fr.Metrics["max_rsi"] != 100 {
		t.Errorf("max_rsi = %v, want 100", fr.Metrics["max_rsi"])
	}
}
