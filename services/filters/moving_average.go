package filters

import (
	"fmt"
	"math"

	"stock_screener_backend/models"
)

var validMAPeriods = map[int]bool{20: true, 50: true, 200: true}

// MovingAverageFilter compares each day's open against the simple moving
// average of the previous Period closes (the current day's close is
// excluded from the average)
type MovingAverageFilter struct {
	period    int
	condition string // above or below
}

// NewMovingAverageFilter validates the period and condition and creates
// the filter. Supported periods are 20, 50 and 200.
func NewMovingAverageFilter(period int, condition string) (*MovingAverageFilter, error) {
	if !validMAPeriods[period] {
		return nil, &ConfigurationError{Filter: "moving_average", Reason: fmt.Sprintf("unsupported period %d (must be 20, 50 or 200)", period)}
	}
	if condition != ConditionAbove && condition != ConditionBelow {
		return nil, &ConfigurationError{Filter: "moving_average", Reason: fmt.Sprintf("condition must be %q or %q, got %q", ConditionAbove, ConditionBelow, condition)}
	}
	return &MovingAverageFilter{period: period, condition: condition}, nil
}

func (f *MovingAverageFilter) Name() string {
	return fmt.Sprintf("sma_%d_%s", f.period, f.condition)
}

func (f *MovingAverageFilter) Type() string {
	return "moving_average"
}

// RequiredLookbackDays equals the averaging period: day i needs closes
// from i-P through i-1
func (f *MovingAverageFilter) RequiredLookbackDays() int {
	return f.period
}

func (f *MovingAverageFilter) Describe() string {
	return fmt.Sprintf("moving_average(period=%d,condition=%s)", f.period, f.condition)
}

// Apply computes ma[i] = mean(close[i-P .. i-1]) and qualifies day i when
// the open is above (or below) that average. Days i < P have no defined
// moving average and never qualify.
func (f *MovingAverageFilter) Apply(series *models.BarSeries) (*models.FilterResult, error) {
	if series.Len() < f.period+1 {
		return insufficientDataResult(series.Symbol, series), nil
	}

	fr := models.NewFilterResult(series.Symbol, series.Dates())
	opens := series.Opens()
	closes := series.Closes()

	// Rolling sum of the previous period closes
	windowSum := 0.0
	for i := 0; i < f.period; i++ {
		windowSum += closes[i]
	}

	validDays := 0
	distanceSum := 0.0
	for i := f.period; i < len(closes); i++ {
		ma := windowSum / float64(f.period)
		switch f.condition {
		case ConditionAbove:
			fr.QualifyingMask[i] = opens[i] > ma
		case ConditionBelow:
			fr.QualifyingMask[i] = opens[i] < ma
		}
		if ma != 0 && !math.IsNaN(ma) {
			distanceSum += (opens[i] - ma) / ma * 100
			validDays++
		}
		windowSum += closes[i] - closes[i-f.period]
	}

	if validDays > 0 {
		fr.Metrics["avg_distance_percent"] = distanceSum / float64(validDays)
	}
	fr.Metrics["valid_days"] = float64(validDays)
	setQualifyingMetrics(fr)
	return fr, nil
}
