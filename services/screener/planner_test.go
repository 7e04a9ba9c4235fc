package screener

import (
	"testing"
	"time"

	"stock_screener_backend/models"
	"stock_screener_backend/services/filters"
)

func TestPlannerAppliesExtension(t *testing.T) {
	p := NewPlanner(NewAnalyzer(0))
	fs := mustFilters(t, filters.Config{
		MovingAverage: &filters.MovingAverageConfig{Period: 20, Condition: filters.ConditionAbove},
	})

	meta := p.Plan(fs, rangeStart, rangeEnd)

	if !meta.Applied {
		t.Fatal("Plan() did not apply extension for a 20-day lookback over a 5-day range")
	}
	if meta.ExtensionDays != 33 {
		t.Errorf("ExtensionDays = %d, want 33", meta.ExtensionDays)
	}
	if !meta.ExtendedStart.Equal(rangeStart.AddDate(0, 0, -33)) {
		t.Errorf("ExtendedStart = %s, want original start minus 33 days", meta.ExtendedStart.Format("2006-01-02"))
	}
	if !meta.OriginalStart.Equal(rangeStart) {
		t.Error("OriginalStart was not preserved")
	}
}

func TestPlannerSkipsWithoutLookback(t *testing.T) {
	p := NewPlanner(NewAnalyzer(0))
	fs := mustFilters(t, filters.Config{
		PriceRange: &filters.PriceRangeConfig{MinPrice: 1, MaxPrice: 20},
	})

	meta := p.Plan(fs, rangeStart, rangeEnd)
	if meta.Applied || meta.ExtensionDays != 0 {
		t.Errorf("Plan() = applied %v, days %d; want no extension", meta.Applied, meta.ExtensionDays)
	}
	if !meta.ExtendedStart.Equal(rangeStart) {
		t.Error("ExtendedStart moved despite no extension")
	}
}

func TestPlannerSkipsWhenRangeSuppliesHistory(t *testing.T) {
	p := NewPlanner(NewAnalyzer(0))
	fs := mustFilters(t, filters.Config{
		MovingAverage: &filters.MovingAverageConfig{Period: 20, Condition: filters.ConditionAbove},
	})

	// A two-year range already contains the 33 days the 20-day average
	// needs; the early part of the range is the history
	wideStart := rangeEnd.AddDate(-2, 0, 0)
	meta := p.Plan(fs, wideStart, rangeEnd)

	if meta.Applied {
		t.Error("Plan() extended a range already wider than the required lookback")
	}
	if !meta.ExtendedStart.Equal(wideStart) {
		t.Error("ExtendedStart moved despite skipped extension")
	}
}

func TestPlannerTrimRoundTrip(t *testing.T) {
	p := NewPlanner(NewAnalyzer(0))

	dates := make([]time.Time, 10)
	for i := range dates {
		dates[i] = rangeStart.AddDate(0, 0, i-5)
	}
	fr := models.NewFilterResult("AAPL", dates)
	for i := range fr.QualifyingMask {
		fr.QualifyingMask[i] = i%2 == 0
	}

	trimmed := p.TrimResult(fr, rangeStart, rangeEnd)

	if len(trimmed.Dates) != 5 {
		t.Fatalf("TrimResult() kept %d dates, want 5", len(trimmed.Dates))
	}
	for i, d := range trimmed.Dates {
		if d.Before(rangeStart) || d.After(rangeEnd) {
			t.Errorf("date[%d] = %s outside requested range", i, d.Format("2006-01-02"))
		}
		// Alignment: each surviving mask entry matches its source index
		srcIdx := i + 5
		if trimmed.QualifyingMask[i] != fr.QualifyingMask[srcIdx] {
			t.Errorf("mask[%d] lost alignment with source index %d", i, srcIdx)
		}
	}
}
