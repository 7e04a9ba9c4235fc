package filters

import (
	"errors"
	"testing"
	"time"

	"stock_screener_backend/models"
)

var testStart = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

// testSeries builds a daily series with sequential dates. Highs and lows
// are padded around open/close so every bar passes validation.
func testSeries(symbol string, opens, closes []float64, volumes []int64) *models.BarSeries {
	if len(opens) != len(closes) {
		panic("testSeries: opens/closes length mismatch")
	}
	bars := make([]models.Bar, len(opens))
	for i := range opens {
		high := opens[i]
		if closes[i] > high {
			high = closes[i]
		}
		low := opens[i]
		if closes[i] < low {
			low = closes[i]
		}
		var vol int64 = 1_000_000
		if volumes != nil {
			vol = volumes[i]
		}
		bars[i] = models.Bar{
			Symbol: symbol,
			Date:   testStart.AddDate(0, 0, i),
			Open:   opens[i],
			High:   high + 1,
			Low:    low - 1,
			Close:  closes[i],
			Volume: vol,
		}
	}
	return models.NewBarSeries(symbol, bars)
}

// flatSeries builds n days of constant prices
func flatSeries(symbol string, n int, price float64) *models.BarSeries {
	opens := make([]float64, n)
	closes := make([]float64, n)
	for i := range opens {
		opens[i] = price
		closes[i] = price
	}
	return testSeries(symbol, opens, closes, nil)
}

func assertConfigError(t *testing.T, err error, filter string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected ConfigurationError for %s, got nil", filter)
	}
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
	if ce.Filter != filter {
		t.Errorf("ConfigurationError.Filter = %q, want %q", ce.Filter, filter)
	}
}

func TestConfigBuild(t *testing.T) {
	cfg := Config{
		PriceRange: &PriceRangeConfig{MinPrice: 1, MaxPrice: 20},
		Gap:        &GapConfig{Threshold: 3, Direction: GapUp},
	}
	fs, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(fs) != 2 {
		t.Fatalf("Build() returned %d filters, want 2", len(fs))
	}
}

func TestConfigBuildEmpty(t *testing.T) {
	cfg := Config{}
	if _, err := cfg.Build(); err == nil {
		t.Error("Build() error = nil for empty config, want error")
	}
}

func TestConfigBuildInvalidSection(t *testing.T) {
	cfg := Config{
		PriceRange: &PriceRangeConfig{MinPrice: 1, MaxPrice: 20},
		RSI:        &RSIConfig{Condition: "sideways", Threshold: 30},
	}
	_, err := cfg.Build()
	assertConfigError(t, err, "rsi")
}

func TestInsufficientDataResult(t *testing.T) {
	// A series shorter than the lookback degrades gracefully: zero
	// qualifying days plus the explanatory metric, never an error
	f, err := NewMovingAverageFilter(200, ConditionAbove)
	if err != nil {
		t.Fatalf("NewMovingAverageFilter() error = %v", err)
	}
	series := flatSeries("AAPL", 10, 100)

	fr, err := f.Apply(series)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if fr.Metrics[models.MetricInsufficientData] != 1 {
		t.Error("insufficient_data metric not set")
	}
	if fr.HasQualifyingDay() {
		t.Error("short series produced qualifying days")
	}
	if len(fr.QualifyingMask) != series.Len() {
		t.Errorf("mask length = %d, want %d", len(fr.QualifyingMask), series.Len())
	}
}
