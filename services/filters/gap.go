package filters

import (
	"fmt"

	"stock_screener_backend/models"
)

// Gap directions
const (
	GapUp   = "up"
	GapDown = "down"
	GapBoth = "both"
)

// GapFilter qualifies days whose open gaps away from the previous close by
// at least a threshold percentage
type GapFilter struct {
	threshold float64 // percent, e.g. 3 for 3%
	direction string  // up, down or both
}

// NewGapFilter validates parameters and creates the filter
func NewGapFilter(threshold float64, direction string) (*GapFilter, error) {
	if threshold < 0 {
		return nil, &ConfigurationError{Filter: "gap", Reason: fmt.Sprintf("threshold %.2f must not be negative", threshold)}
	}
	switch direction {
	case GapUp, GapDown, GapBoth:
	default:
		return nil, &ConfigurationError{Filter: "gap", Reason: fmt.Sprintf("direction must be up, down or both, got %q", direction)}
	}
	return &GapFilter{threshold: threshold, direction: direction}, nil
}

func (f *GapFilter) Name() string {
	return fmt.Sprintf("gap_%s_%g", f.direction, f.threshold)
}

func (f *GapFilter) Type() string {
	return "gap"
}

// RequiredLookbackDays is one: each gap needs the previous day's close
func (f *GapFilter) RequiredLookbackDays() int {
	return 1
}

func (f *GapFilter) Describe() string {
	return fmt.Sprintf("gap(direction=%s,threshold=%.4f)", f.direction, f.threshold)
}

// Apply computes gap%[i] = (open[i] - close[i-1]) / close[i-1] * 100. The
// gap is undefined on index 0 and on days following a non-positive close;
// those days never qualify.
func (f *GapFilter) Apply(series *models.BarSeries) (*models.FilterResult, error) {
	if series.Len() < 2 {
		return insufficientDataResult(series.Symbol, series), nil
	}

	fr := models.NewFilterResult(series.Symbol, series.Dates())
	opens := series.Opens()
	closes := series.Closes()

	gapUpDays := 0
	gapDownDays := 0
	qualifyingGapSum := 0.0
	maxAbsGap := 0.0
	for i := 1; i < len(opens); i++ {
		prevClose := closes[i-1]
		if prevClose <= 0 {
			continue
		}
		gap := (opens[i] - prevClose) / prevClose * 100

		if gap > 0 {
			gapUpDays++
		} else if gap < 0 {
			gapDownDays++
		}
		if abs := absFloat(gap); abs > maxAbsGap {
			maxAbsGap = abs
		}

		switch f.direction {
		case GapUp:
			fr.QualifyingMask[i] = gap >= f.threshold
		case GapDown:
			fr.QualifyingMask[i] = gap <= -f.threshold
		case GapBoth:
			fr.QualifyingMask[i] = absFloat(gap) >= f.threshold
		}
		if fr.QualifyingMask[i] {
			qualifyingGapSum += gap
		}
	}

	if n := countTrue(fr.QualifyingMask); n > 0 {
		fr.Metrics["avg_gap_percent"] = qualifyingGapSum / float64(n)
	}
	fr.Metrics["gap_up_days"] = float64(gapUpDays)
	fr.Metrics["gap_down_days"] = float64(gapDownDays)
	fr.Metrics["max_abs_gap_percent"] = maxAbsGap
	setQualifyingMetrics(fr)
	return fr, nil
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
