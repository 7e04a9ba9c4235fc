package filters

import (
	"fmt"

	"stock_screener_backend/models"
)

// DollarVolumeFilter qualifies days whose previous-day dollar volume
// (volume * price, preferring VWAP) meets a minimum
type DollarVolumeFilter struct {
	minDollarVolume float64
}

// NewDollarVolumeFilter validates the threshold and creates the filter
func NewDollarVolumeFilter(minDollarVolume float64) (*DollarVolumeFilter, error) {
	if minDollarVolume < 0 {
		return nil, &ConfigurationError{Filter: "dollar_volume", Reason: fmt.Sprintf("min_dollar_volume %.2f must not be negative", minDollarVolume)}
	}
	return &DollarVolumeFilter{minDollarVolume: minDollarVolume}, nil
}

func (f *DollarVolumeFilter) Name() string {
	return fmt.Sprintf("dollar_volume_%.0f", f.minDollarVolume)
}

func (f *DollarVolumeFilter) Type() string {
	return "dollar_volume"
}

// RequiredLookbackDays is one: each day is judged by the prior day's
// dollar volume
func (f *DollarVolumeFilter) RequiredLookbackDays() int {
	return 1
}

func (f *DollarVolumeFilter) Describe() string {
	return fmt.Sprintf("dollar_volume(min=%.2f)", f.minDollarVolume)
}

// Apply qualifies day i iff dollarVolume[i-1] >= minDollarVolume, where
// dollarVolume = volume * (VWAP if positive, else close). Index 0 has no
// previous day and never qualifies.
func (f *DollarVolumeFilter) Apply(series *models.BarSeries) (*models.FilterResult, error) {
	if series.Len() < 2 {
		return insufficientDataResult(series.Symbol, series), nil
	}

	fr := models.NewFilterResult(series.Symbol, series.Dates())

	dvSum := 0.0
	maxDV := 0.0
	for i := 1; i < series.Len(); i++ {
		dv := series.Bars[i-1].DollarVolume()
		fr.QualifyingMask[i] = dv >= f.minDollarVolume
		dvSum += dv
		if dv > maxDV {
			maxDV = dv
		}
	}

	fr.Metrics["avg_dollar_volume"] = dvSum / float64(series.Len()-1)
	fr.Metrics["max_dollar_volume"] = maxDV
	setQualifyingMetrics(fr)
	return fr, nil
}
