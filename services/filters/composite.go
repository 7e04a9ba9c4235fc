package filters

import (
	"fmt"
	"strings"

	"stock_screener_backend/models"
)

// CompositeFilter ANDs a set of filters together over one date axis. A day
// qualifies only when every member filter qualifies it.
type CompositeFilter struct {
	filters []Filter
}

// NewCompositeFilter creates an AND-composite over the given filters
func NewCompositeFilter(fs ...Filter) (*CompositeFilter, error) {
	if len(fs) == 0 {
		return nil, &ConfigurationError{Filter: "composite", Reason: "at least one filter is required"}
	}
	return &CompositeFilter{filters: fs}, nil
}

// Filters returns the member filters
func (f *CompositeFilter) Filters() []Filter {
	return f.filters
}

func (f *CompositeFilter) Name() string {
	names := make([]string, len(f.filters))
	for i, sub := range f.filters {
		names[i] = sub.Name()
	}
	return "and(" + strings.Join(names, ",") + ")"
}

func (f *CompositeFilter) Type() string {
	return "composite"
}

// RequiredLookbackDays is the maximum across member filters
func (f *CompositeFilter) RequiredLookbackDays() int {
	maxDays := 0
	for _, sub := range f.filters {
		if d := sub.RequiredLookbackDays(); d > maxDays {
			maxDays = d
		}
	}
	return maxDays
}

func (f *CompositeFilter) Describe() string {
	parts := make([]string, len(f.filters))
	for i, sub := range f.filters {
		parts[i] = sub.Describe()
	}
	return "and(" + strings.Join(parts, ",") + ")"
}

// Apply runs every member filter over the series and intersects their
// qualifying masks. Metrics merge across members, last writer wins. Fails
// if two member results disagree on symbol or date axis.
func (f *CompositeFilter) Apply(series *models.BarSeries) (*models.FilterResult, error) {
	var combined *models.FilterResult
	for _, sub := range f.filters {
		fr, err := sub.Apply(series)
		if err != nil {
			return nil, fmt.Errorf("filter %s failed for %s: %w", sub.Name(), series.Symbol, err)
		}
		if combined == nil {
			combined = fr
			continue
		}
		if err := combined.Combine(fr); err != nil {
			return nil, fmt.Errorf("combining filter %s for %s: %w", sub.Name(), series.Symbol, err)
		}
	}
	setQualifyingMetrics(combined)
	return combined, nil
}
