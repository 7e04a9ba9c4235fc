package models

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBarValidate(t *testing.T) {
	base := Bar{Symbol: "AAPL", Date: day("2026-01-05"), Open: 100, High: 105, Low: 98, Close: 103, Volume: 1000}

	tests := []struct {
		name    string
		mutate  func(b *Bar)
		wantErr bool
	}{
		{"valid bar", func(b *Bar) {}, false},
		{"high below low", func(b *Bar) { b.High = 90 }, true},
		{"high below open", func(b *Bar) { b.High = 99; b.Close = 99 }, true},
		{"high below close", func(b *Bar) { b.Close = 110 }, true},
		{"low above open", func(b *Bar) { b.Low = 101 }, true},
		{"negative volume", func(b *Bar) { b.Volume = -1 }, true},
		{"zero volume ok", func(b *Bar) { b.Volume = 0 }, false},
		{"flat bar ok", func(b *Bar) { b.Open, b.High, b.Low, b.Close = 100, 100, 100, 100 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base
			tt.mutate(&b)
			err := b.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBarDollarVolume(t *testing.T) {
	tests := []struct {
		name string
		bar  Bar
		want float64
	}{
		{"prefers vwap", Bar{Close: 100, VWAP: 102, Volume: 10}, 1020},
		{"falls back to close", Bar{Close: 100, Volume: 10}, 1000},
		{"ignores non-positive vwap", Bar{Close: 100, VWAP: -1, Volume: 10}, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bar.DollarVolume(); got != tt.want {
				t.Errorf("DollarVolume() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBarSeriesNormalize(t *testing.T) {
	bars := []Bar{
		{Symbol: "TSLA", Date: day("2026-01-07"), Open: 3, High: 3, Low: 3, Close: 3},
		{Symbol: "TSLA", Date: day("2026-01-05"), Open: 1, High: 1, Low: 1, Close: 1},
		{Symbol: "TSLA", Date: day("2026-01-06"), Open: 2, High: 2, Low: 2, Close: 2},
		// Duplicate date, later entry must win
		{Symbol: "TSLA", Date: day("2026-01-06"), Open: 9, High: 9, Low: 9, Close: 9},
	}

	s := NewBarSeries("TSLA", bars)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d after normalize, want 3", s.Len())
	}
	wantDates := []string{"2026-01-05", "2026-01-06", "2026-01-07"}
	for i, d := range s.Dates() {
		if d.Format("2006-01-02") != wantDates[i] {
			t.Errorf("date[%d] = %s, want %s", i, d.Format("2006-01-02"), wantDates[i])
		}
	}
	if s.Bars[1].Close != 9 {
		t.Errorf("duplicate date kept close %v, want later entry 9", s.Bars[1].Close)
	}
}

func TestBarSeriesTrim(t *testing.T) {
	bars := make([]Bar, 0, 5)
	for i := 0; i < 5; i++ {
		d := day("2026-01-05").AddDate(0, 0, i)
		bars = append(bars, Bar{Symbol: "NVDA", Date: d, Open: 1, High: 1, Low: 1, Close: 1})
	}
	s := NewBarSeries("NVDA", bars)

	trimmed := s.Trim(day("2026-01-06"), day("2026-01-08"))
	if trimmed.Len() != 3 {
		t.Fatalf("Trim() kept %d bars, want 3", trimmed.Len())
	}
	if !trimmed.Bars[0].Date.Equal(day("2026-01-06")) || !trimmed.Bars[2].Date.Equal(day("2026-01-08")) {
		t.Errorf("Trim() range = [%s, %s], want [2026-01-06, 2026-01-08]",
			trimmed.Bars[0].Date.Format("2006-01-02"), trimmed.Bars[2].Date.Format("2006-01-02"))
	}
	// Original series untouched
	if s.Len() != 5 {
		t.Errorf("Trim() mutated the source series, Len() = %d", s.Len())
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	b := time.Date(2026, 1, 5, 23, 59, 0, 0, time.UTC)
	c := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	if !SameDay(a, b) {
		t.Error("SameDay() = false for timestamps on the same date")
	}
	if SameDay(b, c) {
		t.Error("SameDay() = true across midnight")
	}
}
