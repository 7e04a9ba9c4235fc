package filters

import (
	"fmt"
	"math"

	"stock_screener_backend/models"
)

// DefaultRSIPeriod is the conventional 14-day RSI period
const DefaultRSIPeriod = 14

// RSIFilter qualifies days whose Wilder RSI is above or below a threshold
type RSIFilter struct {
	period    int
	condition string // above or below
	threshold float64
}

// NewRSIFilter validates parameters and creates the filter. Pass period 0
// for the default 14-day RSI.
func NewRSIFilter(period int, condition string, threshold float64) (*RSIFilter, error) {
	if period == 0 {
		period = DefaultRSIPeriod
	}
	if period < 2 {
		return nil, &ConfigurationError{Filter: "rsi", Reason: fmt.Sprintf("period %d too short (minimum 2)", period)}
	}
	if condition != ConditionAbove && condition != ConditionBelow {
		return nil, &ConfigurationError{Filter: "rsi", Reason: fmt.Sprintf("condition must be %q or %q, got %q", ConditionAbove, ConditionBelow, condition)}
	}
	if threshold < 0 || threshold > 100 {
		return nil, &ConfigurationError{Filter: "rsi", Reason: fmt.Sprintf("threshold %.2f outside [0, 100]", threshold)}
	}
	return &RSIFilter{period: period, condition: condition, threshold: threshold}, nil
}

func (f *RSIFilter) Name() string {
	return fmt.Sprintf("rsi_%d_%s_%g", f.period, f.condition, f.threshold)
}

func (f *RSIFilter) Type() string {
	return "rsi"
}

// RequiredLookbackDays is period+1: the seed average consumes period
// deltas, which take period+1 closes
func (f *RSIFilter) RequiredLookbackDays() int {
	return f.period + 1
}

func (f *RSIFilter) Describe() string {
	return fmt.Sprintf("rsi(period=%d,condition=%s,threshold=%.4f)", f.period, f.condition, f.threshold)
}

// Apply computes Wilder-smoothed RSI over the series. The first valid
// index is period (after period deltas); earlier days never qualify.
func (f *RSIFilter) Apply(series *models.BarSeries) (*models.FilterResult, error) {
	if series.Len() < f.period+1 {
		return insufficientDataResult(series.Symbol, series), nil
	}

	fr := models.NewFilterResult(series.Symbol, series.Dates())
	rsi := computeWilderRSI(series.Closes(), f.period)

	validDays := 0
	rsiSum := 0.0
	minRSI := math.NaN()
	maxRSI := math.NaN()
	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		switch f.condition {
		case ConditionAbove:
			fr.QualifyingMask[i] = v > f.threshold
		case ConditionBelow:
			fr.QualifyingMask[i] = v < f.threshold
		}
		rsiSum += v
		validDays++
		if math.IsNaN(minRSI) || v < minRSI {
			minRSI = v
		}
		if math.IsNaN(maxRSI) || v > maxRSI {
			maxRSI = v
		}
	}

	if validDays > 0 {
		fr.Metrics["avg_rsi"] = rsiSum / float64(validDays)
		fr.Metrics["min_rsi"] = minRSI
		fr.Metrics["max_rsi"] = maxRSI
	}
	fr.Metrics["valid_days"] = float64(validDays)
	setQualifyingMetrics(fr)
	return fr, nil
}

// computeWilderRSI returns the RSI series for the given closes using
// Wilder's smoothing. Indices before period are NaN. The seed averages are
// the simple mean of the first period gains/losses; every later day blends
// the previous average with weight (period-1)/period. RSI is pinned to 100
// when the average loss is zero.
func computeWilderRSI(closes []float64, period int) []float64 {
	rsi := make([]float64, len(closes))
	for i := range rsi {
		rsi[i] = math.NaN()
	}
	if len(closes) < period+1 {
		return rsi
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	rsi[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		rsi[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return rsi
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
