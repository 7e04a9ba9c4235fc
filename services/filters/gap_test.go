package filters

import (
	"math"
	"testing"
)

func TestGapFilterValidation(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		direction string
		wantErr   bool
	}{
		{"gap up", 3, GapUp, false},
		{"gap down", 3, GapDown, false},
		{"gap both", 3, GapBoth, false},
		{"zero threshold", 0, GapUp, false},
		{"negative threshold", -1, GapUp, true},
		{"bad direction", 3, "sideways", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGapFilter(tt.threshold, tt.direction)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGapFilter(%v, %q) error = %v, wantErr %v", tt.threshold, tt.direction, err, tt.wantErr)
			}
		})
	}
}

func TestGapFilterApplyUp(t *testing.T) {
	f, err := NewGapFilter(3, GapUp)
	if err != nil {
		t.Fatalf("NewGapFilter() error = %v", err)
	}

	// Day 1 opens 4% above the prior close, day 2 gaps down to 95
	opens := []float64{100, 104, 95}
	closes := []float64{100, 104, 95}
	series := testSeries("SMCI", opens, closes, nil)

	fr, err := f.Apply(series)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// Index 0 has no previous close and can never qualify; the down gap
	// is excluded by direction
	wantMask := []bool{false, true, false}
	for i, want := range wantMask {
		if fr.QualifyingMask[i] != want {
			t.Errorf("mask[%d] = %v, want %v", i, fr.QualifyingMask[i], want)
		}
	}
	// Average covers qualifying days only, so the down gap stays out
	if got := fr.Metrics["avg_gap_percent"]; math.Abs(got-4.0) > 1e-9 {
		t.Errorf("avg_gap_percent = %v, want 4.0", got)
	}
	// Day counters see every signed gap regardless of direction
	if fr.Metrics["gap_up_days"] != 1 || fr.Metrics["gap_down_days"] != 1 {
		t.Errorf("gap_up_days/gap_down_days = %v/%v, want 1/1",
			fr.Metrics["gap_up_days"], fr.Metrics["gap_down_days"])
	}
}

func TestGapFilterDirections(t *testing.T) {
	// Day 1 gaps down 5%, day 2 gaps up 5%
	opens := []float64{100, 95, 99.75}
	closes := []float64{100, 95, 99.75}

	tests := []struct {
		direction string
		wantMask  []bool
	}{
		{GapUp, []bool{false, false, true}},
		{GapDown, []bool{false, true, false}},
		{GapBoth, []bool{false, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.direction, func(t *testing.T) {
			f, err := NewGapFilter(5, tt.direction)
			if err != nil {
				t.Fatalf("NewGapFilter() error = %v", err)
			}
			fr, err := f.Apply(testSeries("PLTR", opens, closes, nil))
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			for i, want := range tt.wantMask {
				if fr.QualifyingMask[i] != want {
					t.Errorf("mask[%d] = %v, want %v", i, fr.QualifyingMask[i], want)
				}
			}
		})
	}
}

func TestGapFilterNonPositivePrevClose(t *testing.T) {
	f, _ := NewGapFilter(0, GapBoth)

	// A zero previous close makes the gap undefined for the next day
	opens := []float64{1, 5, 6}
	closes := []float64{0, 5, 6}
	series := testSeries("HALT", opens, closes, nil)
	// testSeries pads lows below close; force bar 0 to stay valid
	series.Bars[0].Low = 0
	series.Bars[0].Open = 0
	series.Bars[0].High = 0
	series.Bars[0].Volume = 0

	fr, err := f.Apply(series)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if fr.QualifyingMask[1] {
		t.Error("mask[1] = true after a non-positive close, gap is undefined")
	}
	if !fr.QualifyingMask[2] {
		t.Error("mask[2] = false, want true for a defined gap with threshold 0")
	}
}

func TestGapFilterTooShort(t *testing.T) {
	f, _ := NewGapFilter(3, GapUp)
	fr, err := f.Apply(flatSeries("ONE", 1, 10))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if fr.Metrics["insufficient_data"] != 1 {
		t.Error("single-day series did not report insufficient_data")
	}
}
