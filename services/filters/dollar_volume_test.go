package filters

import (
	"testing"

	"stock_screener_backend/models"
)

func TestDollarVolumeFilterValidation(t *testing.T) {
	if _, err := NewDollarVolumeFilter(10_000_000); err != nil {
		t.Errorf("NewDollarVolumeFilter() error = %v", err)
	}
	_, err := NewDollarVolumeFilter(-1)
	assertConfigError(t, err, "dollar_volume")
}

func TestDollarVolumeFilterApply(t *testing.T) {
	f, err := NewDollarVolumeFilter(1_000_000)
	if err != nil {
		t.Fatalf("NewDollarVolumeFilter() error = %v", err)
	}

	// Day 0: 100 * 5,000 = 500k; day 1: 100 * 20,000 = 2M
	opens := []float64{100, 100, 100}
	volumes := []int64{5_000, 20_000, 1}
	series := testSeries("LIQD", opens, opens, volumes)

	fr, err := f.Apply(series)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// Each day is judged by the PREVIOUS day's dollar volume
	wantMask := []bool{false, false, true}
	for i, want := range wantMask {
		if fr.QualifyingMask[i] != want {
			t.Errorf("mask[%d] = %v, want %v", i, fr.QualifyingMask[i], want)
		}
	}
}

func TestDollarVolumeFilterPrefersVWAP(t *testing.T) {
	f, _ := NewDollarVolumeFilter(1_500)

	bars := []models.Bar{
		// close alone (100 * 10 = 1,000) misses the bar; VWAP 200 clears it
		{Symbol: "VWAP", Date: testStart, Open: 100, High: 210, Low: 90, Close: 100, Volume: 10, VWAP: 200},
		{Symbol: "VWAP", Date: testStart.AddDate(0, 0, 1), Open: 100, High: 110, Low: 90, Close: 100, Volume: 10},
	}
	fr, err := f.Apply(models.NewBarSeries("VWAP", bars))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !fr.QualifyingMask[1] {
		t.Error("mask[1] = false, VWAP-based dollar volume should qualify")
	}
}
