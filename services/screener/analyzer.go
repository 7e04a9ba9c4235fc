package screener

import (
	"time"

	"stock_screener_backend/models"
	"stock_screener_backend/services/filters"
)

// DefaultMaxExtensionDays caps how far back a requested range may be
// extended, bounding worst-case fetch volume for long moving averages
const DefaultMaxExtensionDays = 365

// Analyzer inspects the active filter set and works out how much extra
// history a requested date range needs
type Analyzer struct {
	maxExtensionDays int
}

// NewAnalyzer creates an analyzer with the given extension ceiling in
// calendar days (0 uses the default)
func NewAnalyzer(maxExtensionDays int) *Analyzer {
	if maxExtensionDays <= 0 {
		maxExtensionDays = DefaultMaxExtensionDays
	}
	return &Analyzer{maxExtensionDays: maxExtensionDays}
}

// Analyze returns one requirement per filter
func (a *Analyzer) Analyze(fs []filters.Filter) []models.FilterRequirement {
	reqs := make([]models.FilterRequirement, 0, len(fs))
	for _, f := range fs {
		reqs = append(reqs, models.FilterRequirement{
			FilterName:   f.Name(),
			FilterType:   f.Type(),
			LookbackDays: f.RequiredLookbackDays(),
		})
	}
	return reqs
}

// MaxLookback returns the largest lookback across requirements
func MaxLookback(reqs []models.FilterRequirement) int {
	maxDays := 0
	for _, r := range reqs {
		if r.LookbackDays > maxDays {
			maxDays = r.LookbackDays
		}
	}
	return maxDays
}

// bufferDays approximates the weekend/holiday padding needed to turn a
// trading-day lookback into calendar days: roughly two weekend days per
// trading week plus a fixed holiday margin. The formula is a tunable
// heuristic, not a trading-calendar computation.
func bufferDays(maxLookback int) int {
	if maxLookback == 0 {
		return 0
	}
	weeks := (maxLookback + 4) / 5 // ceil(maxLookback/5)
	return weeks*2 + 5
}

// CalculateRequiredStart computes the extended start date for a requested
// range given the active filters. The extension is lookback plus the
// weekend/holiday buffer, in calendar days, capped at the configured
// ceiling. A filter set with no lookback needs no extension.
func (a *Analyzer) CalculateRequiredStart(fs []filters.Filter, start, end time.Time) (time.Time, int, []models.FilterRequirement) {
	reqs := a.Analyze(fs)
	maxLookback := MaxLookback(reqs)
	if maxLookback == 0 {
		return start, 0, reqs
	}

	extensionDays := maxLookback + bufferDays(maxLookback)
	if extensionDays > a.maxExtensionDays {
		extensionDays = a.maxExtensionDays
	}
	return start.AddDate(0, 0, -extensionDays), extensionDays, reqs
}
