package screener

import (
	"time"

	"stock_screener_backend/models"
	"stock_screener_backend/services/filters"
)

// Planner wraps the analyzer's lookback arithmetic into the
// extend-fetch-trim cycle: widen the requested range backward so every
// filter has enough history, then cut results back to the caller's range
type Planner struct {
	analyzer *Analyzer
}

// NewPlanner creates a planner over the given analyzer
func NewPlanner(analyzer *Analyzer) *Planner {
	return &Planner{analyzer: analyzer}
}

// Plan decides whether and how far to extend [start, end]. Extension is
// skipped when no filter needs lookback, and when the requested range is
// already wider than the required extension (the early part of the range
// then supplies the history itself).
func (p *Planner) Plan(fs []filters.Filter, start, end time.Time) *models.ExtensionMetadata {
	extendedStart, extensionDays, reqs := p.analyzer.CalculateRequiredStart(fs, start, end)

	meta := &models.ExtensionMetadata{
		OriginalStart: start,
		ExtendedStart: extendedStart,
		ExtensionDays: extensionDays,
		Requirements:  reqs,
	}

	if extensionDays == 0 {
		meta.ExtendedStart = start
		return meta
	}
	if rangeDays := int(end.Sub(start).Hours() / 24); rangeDays >= extensionDays {
		meta.ExtendedStart = start
		meta.ExtensionDays = 0
		return meta
	}

	meta.Applied = true
	return meta
}

// TrimResult cuts one symbol's per-day arrays back to dates within
// [start, end], preserving mask/date alignment
func (p *Planner) TrimResult(fr *models.FilterResult, start, end time.Time) *models.FilterResult {
	return fr.Trim(start, end)
}
