package filters

import (
	"fmt"

	"stock_screener_backend/models"
)

// PriceRangeFilter qualifies days whose open price falls within
// [MinPrice, MaxPrice]
type PriceRangeFilter struct {
	minPrice float64
	maxPrice float64
}

// NewPriceRangeFilter validates the price bounds and creates the filter
func NewPriceRangeFilter(minPrice, maxPrice float64) (*PriceRangeFilter, error) {
	if minPrice < 0 {
		return nil, &ConfigurationError{Filter: "price_range", Reason: fmt.Sprintf("min_price %.2f must not be negative", minPrice)}
	}
	if maxPrice < minPrice {
		return nil, &ConfigurationError{Filter: "price_range", Reason: fmt.Sprintf("max_price %.2f below min_price %.2f", maxPrice, minPrice)}
	}
	return &PriceRangeFilter{minPrice: minPrice, maxPrice: maxPrice}, nil
}

func (f *PriceRangeFilter) Name() string {
	return "price_range"
}

func (f *PriceRangeFilter) Type() string {
	return "price_range"
}

// RequiredLookbackDays is zero: the filter only looks at the current day
func (f *PriceRangeFilter) RequiredLookbackDays() int {
	return 0
}

func (f *PriceRangeFilter) Describe() string {
	return fmt.Sprintf("price_range(min=%.4f,max=%.4f)", f.minPrice, f.maxPrice)
}

// Apply qualifies day i iff minPrice <= open[i] <= maxPrice
func (f *PriceRangeFilter) Apply(series *models.BarSeries) (*models.FilterResult, error) {
	fr := models.NewFilterResult(series.Symbol, series.Dates())
	if series.Len() == 0 {
		fr.Metrics[models.MetricInsufficientData] = 1
		setQualifyingMetrics(fr)
		return fr, nil
	}

	opens := series.Opens()
	minObserved := opens[0]
	maxObserved := opens[0]
	for i, open := range opens {
		fr.QualifyingMask[i] = open >= f.minPrice && open <= f.maxPrice
		if open < minObserved {
			minObserved = open
		}
		if open > maxObserved {
			maxObserved = open
		}
	}

	fr.Metrics["mean_open"] = mean(opens)
	fr.Metrics["std_open"] = stddev(opens)
	fr.Metrics["min_open"] = minObserved
	fr.Metrics["max_open"] = maxObserved
	setQualifyingMetrics(fr)
	return fr, nil
}
