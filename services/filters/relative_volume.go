package filters

import (
	"fmt"

	"stock_screener_backend/models"
)

// RelativeVolumeFilter qualifies days whose recent average volume is at
// least MinRatio times the average over a longer, strictly earlier
// lookback window
type RelativeVolumeFilter struct {
	recentDays   int
	lookbackDays int
	minRatio     float64
}

// NewRelativeVolumeFilter validates parameters and creates the filter.
// The lookback window must be longer than the recent window so the two
// never overlap.
func NewRelativeVolumeFilter(recentDays, lookbackDays int, minRatio float64) (*RelativeVolumeFilter, error) {
	if recentDays < 1 {
		return nil, &ConfigurationError{Filter: "relative_volume", Reason: fmt.Sprintf("recent_days %d must be at least 1", recentDays)}
	}
	if lookbackDays <= recentDays {
		return nil, &ConfigurationError{Filter: "relative_volume", Reason: fmt.Sprintf("lookback_days %d must exceed recent_days %d", lookbackDays, recentDays)}
	}
	if minRatio <= 0 {
		return nil, &ConfigurationError{Filter: "relative_volume", Reason: fmt.Sprintf("min_ratio %.2f must be positive", minRatio)}
	}
	return &RelativeVolumeFilter{recentDays: recentDays, lookbackDays: lookbackDays, minRatio: minRatio}, nil
}

func (f *RelativeVolumeFilter) Name() string {
	return fmt.Sprintf("relative_volume_%dx%d_%g", f.recentDays, f.lookbackDays, f.minRatio)
}

func (f *RelativeVolumeFilter) Type() string {
	return "relative_volume"
}

// RequiredLookbackDays equals the lookback window length
func (f *RelativeVolumeFilter) RequiredLookbackDays() int {
	return f.lookbackDays
}

func (f *RelativeVolumeFilter) Describe() string {
	return fmt.Sprintf("relative_volume(recent=%d,lookback=%d,min_ratio=%.4f)", f.recentDays, f.lookbackDays, f.minRatio)
}

// Apply computes, for each day i >= lookbackDays-1:
//
//	recentAvg   = mean(volume[i-recentDays+1 .. i])   (includes day i)
//	lookbackAvg = mean(volume[i-lookbackDays+1 .. i-recentDays])
//
// The lookback window ends strictly before the recent window starts. The
// ratio is undefined when lookbackAvg is zero; such days never qualify.
func (f *RelativeVolumeFilter) Apply(series *models.BarSeries) (*models.FilterResult, error) {
	if series.Len() < f.lookbackDays {
		return insufficientDataResult(series.Symbol, series), nil
	}

	fr := models.NewFilterResult(series.Symbol, series.Dates())
	volumes := series.Volumes()

	validDays := 0
	ratioSum := 0.0
	maxRatio := 0.0
	for i := f.lookbackDays - 1; i < len(volumes); i++ {
		recentStart := i - f.recentDays + 1
		if recentStart < 0 {
			recentStart = 0
		}
		lookbackStart := i - f.lookbackDays + 1
		if lookbackStart < 0 {
			lookbackStart = 0
		}

		recentAvg := meanInt64(volumes[recentStart : i+1])
		lookbackAvg := meanInt64(volumes[lookbackStart:recentStart])
		if lookbackAvg <= 0 {
			continue
		}

		ratio := recentAvg / lookbackAvg
		fr.QualifyingMask[i] = ratio >= f.minRatio
		ratioSum += ratio
		validDays++
		if ratio > maxRatio {
			maxRatio = ratio
		}
	}

	if validDays > 0 {
		fr.Metrics["avg_volume_ratio"] = ratioSum / float64(validDays)
		fr.Metrics["max_volume_ratio"] = maxRatio
	}
	fr.Metrics["valid_days"] = float64(validDays)
	setQualifyingMetrics(fr)
	return fr, nil
}

func meanInt64(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}
