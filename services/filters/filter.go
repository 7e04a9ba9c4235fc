package filters

import (
	"fmt"
	"math"

	"stock_screener_backend/models"
)

// Filter is the shared contract every screening filter implements. Apply is
// a pure function over one symbol's bar series: it returns a per-day
// qualifying mask aligned with the series' date axis plus summary metrics.
type Filter interface {
	// Name identifies the configured filter instance, e.g. "sma_50_above"
	Name() string
	// Type identifies the filter kind, e.g. "moving_average"
	Type() string
	// Apply computes the qualifying mask and metrics for a series
	Apply(series *models.BarSeries) (*models.FilterResult, error)
	// RequiredLookbackDays is how many prior days of history the filter
	// needs before its first valid value
	RequiredLookbackDays() int
	// Describe returns a canonical parameter string used for cache keys
	// and run persistence
	Describe() string
}

// ConfigurationError reports invalid filter parameters. Raised at filter
// construction, before any data is fetched.
type ConfigurationError struct {
	Filter string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s filter configuration: %s", e.Filter, e.Reason)
}

// Filter conditions shared by the moving-average and RSI filters
const (
	ConditionAbove = "above"
	ConditionBelow = "below"
)

// mean returns the arithmetic mean, or NaN for an empty slice
func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev returns the population standard deviation, or NaN for an empty slice
func stddev(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := mean(values)
	variance := 0.0
	for _, v := range values {
		d := v - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

// countTrue returns the number of true entries in a mask
func countTrue(mask []bool) int {
	n := 0
	for _, ok := range mask {
		if ok {
			n++
		}
	}
	return n
}

// setQualifyingMetrics records the standard qualifying-day count/percent
// metrics every filter reports
func setQualifyingMetrics(fr *models.FilterResult) {
	n := countTrue(fr.QualifyingMask)
	fr.Metrics["qualifying_days"] = float64(n)
	if len(fr.QualifyingMask) > 0 {
		fr.Metrics["qualifying_percent"] = float64(n) / float64(len(fr.QualifyingMask)) * 100
	} else {
		fr.Metrics["qualifying_percent"] = 0
	}
}

// insufficientDataResult returns the graceful-degradation result used when
// a series is too short for the filter to produce any valid value: zero
// qualifying days plus an explanatory metric, never an error.
func insufficientDataResult(symbol string, series *models.BarSeries) *models.FilterResult {
	fr := models.NewFilterResult(symbol, series.Dates())
	fr.Metrics[models.MetricInsufficientData] = 1
	setQualifyingMetrics(fr)
	return fr
}
