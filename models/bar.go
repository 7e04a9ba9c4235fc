package models

import (
	"fmt"
	"sort"
	"time"
)

// Bar represents a single daily OHLCV bar for a symbol
type Bar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	VWAP   float64   `json:"vwap,omitempty"`
}

// Validate checks OHLC invariants. Bars that fail validation are dropped
// by the fetch layer rather than failing the whole symbol.
func (b *Bar) Validate() error {
	if b.High < b.Low {
		return fmt.Errorf("bar %s %s: high %.4f below low %.4f", b.Symbol, b.Date.Format("2006-01-02"), b.High, b.Low)
	}
	if b.High < b.Open || b.High < b.Close {
		return fmt.Errorf("bar %s %s: high %.4f below open/close", b.Symbol, b.Date.Format("2006-01-02"), b.High)
	}
	if b.Low > b.Open || b.Low > b.Close {
		return fmt.Errorf("bar %s %s: low %.4f above open/close", b.Symbol, b.Date.Format("2006-01-02"), b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s %s: negative volume %d", b.Symbol, b.Date.Format("2006-01-02"), b.Volume)
	}
	return nil
}

// DollarVolume returns volume * price, preferring VWAP when present and positive
func (b *Bar) DollarVolume() float64 {
	price := b.Close
	if b.VWAP > 0 {
		price = b.VWAP
	}
	return float64(b.Volume) * price
}

// BarSeries is a date-ordered series of bars for a single symbol
type BarSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// NewBarSeries creates a series and normalizes it to strictly increasing
// dates with no duplicates (last bar wins on a duplicate date).
func NewBarSeries(symbol string, bars []Bar) *BarSeries {
	s := &BarSeries{Symbol: symbol, Bars: bars}
	s.Normalize()
	return s
}

// Len returns the number of bars in the series
func (s *BarSeries) Len() int {
	return len(s.Bars)
}

// Normalize sorts bars by date and removes duplicate dates, keeping the
// later entry. Called once by the fetch layer; filters assume ordered input.
func (s *BarSeries) Normalize() {
	sort.SliceStable(s.Bars, func(i, j int) bool {
		return s.Bars[i].Date.Before(s.Bars[j].Date)
	})
	if len(s.Bars) < 2 {
		return
	}
	out := s.Bars[:1]
	for _, b := range s.Bars[1:] {
		if sameDay(b.Date, out[len(out)-1].Date) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	s.Bars = out
}

// Dates returns the date axis of the series
func (s *BarSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		dates[i] = b.Date
	}
	return dates
}

// Opens returns the open prices of the series
func (s *BarSeries) Opens() []float64 {
	v := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		v[i] = b.Open
	}
	return v
}

// Closes returns the close prices of the series
func (s *BarSeries) Closes() []float64 {
	v := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		v[i] = b.Close
	}
	return v
}

// Volumes returns the volumes of the series
func (s *BarSeries) Volumes() []int64 {
	v := make([]int64, len(s.Bars))
	for i, b := range s.Bars {
		v[i] = b.Volume
	}
	return v
}

// Trim returns a new series containing only bars whose date falls within
// [start, end], in original order
func (s *BarSeries) Trim(start, end time.Time) *BarSeries {
	trimmed := &BarSeries{Symbol: s.Symbol}
	for _, b := range s.Bars {
		if DateWithin(b.Date, start, end) {
			trimmed.Bars = append(trimmed.Bars, b)
		}
	}
	return trimmed
}

// DateWithin reports whether d falls within [start, end] at day granularity
func DateWithin(d, start, end time.Time) bool {
	day := truncateDay(d)
	return !day.Before(truncateDay(start)) && !day.After(truncateDay(end))
}

// SameDay reports whether two timestamps fall on the same calendar day (UTC)
func SameDay(a, b time.Time) bool {
	return sameDay(a, b)
}

func sameDay(a, b time.Time) bool {
	return truncateDay(a).Equal(truncateDay(b))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
