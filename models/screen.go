package models

import (
	"fmt"
	"sort"
	"time"
)

// Fetch mode provenance recorded on ExtensionMetadata so callers and tests
// can see which fetch path actually executed.
const (
	FetchModeBulk         = "bulk"
	FetchModeIndividual   = "individual"
	FetchModeBulkFallback = "bulk_fallback"
)

// MetricInsufficientData is set to 1 on a FilterResult when the series was
// too short for the filter to produce any valid value.
const MetricInsufficientData = "insufficient_data"

// FilterRequirement declares how many prior days of history a filter needs
// before it can produce a valid value on the first requested day
type FilterRequirement struct {
	FilterName   string `json:"filter_name"`
	FilterType   string `json:"filter_type"`
	LookbackDays int    `json:"lookback_days"`
}

// FilterResult holds the per-day qualifying mask and summary metrics a
// filter produced for one symbol
type FilterResult struct {
	Symbol         string             `json:"symbol"`
	Dates          []time.Time        `json:"dates"`
	QualifyingMask []bool             `json:"qualifying_mask"`
	Metrics        map[string]float64 `json:"metrics"`
}

// NewFilterResult creates an empty, all-false result over the given date axis
func NewFilterResult(symbol string, dates []time.Time) *FilterResult {
	return &FilterResult{
		Symbol:         symbol,
		Dates:          dates,
		QualifyingMask: make([]bool, len(dates)),
		Metrics:        make(map[string]float64),
	}
}

// Combine ANDs another result's qualifying mask into this one and merges
// its metrics (last writer wins on key collision). Both results must cover
// the same symbol and the same date axis.
func (fr *FilterResult) Combine(other *FilterResult) error {
	if other == nil {
		return fmt.Errorf("cannot combine with nil filter result")
	}
	if fr.Symbol != other.Symbol {
		return fmt.Errorf("filter result symbol mismatch: %s vs %s", fr.Symbol, other.Symbol)
	}
	if len(fr.Dates) != len(other.Dates) {
		return fmt.Errorf("filter result date axis mismatch for %s: %d vs %d days", fr.Symbol, len(fr.Dates), len(other.Dates))
	}
	for i := range fr.Dates {
		if !SameDay(fr.Dates[i], other.Dates[i]) {
			return fmt.Errorf("filter result date axis mismatch for %s at index %d: %s vs %s",
				fr.Symbol, i, fr.Dates[i].Format("2006-01-02"), other.Dates[i].Format("2006-01-02"))
		}
	}
	for i := range fr.QualifyingMask {
		fr.QualifyingMask[i] = fr.QualifyingMask[i] && other.QualifyingMask[i]
	}
	for k, v := range other.Metrics {
		fr.Metrics[k] = v
	}
	return nil
}

// QualifyingDates returns the dates on which the mask is true
func (fr *FilterResult) QualifyingDates() []time.Time {
	var dates []time.Time
	for i, ok := range fr.QualifyingMask {
		if ok {
			dates = append(dates, fr.Dates[i])
		}
	}
	return dates
}

// HasQualifyingDay reports whether at least one day qualifies
func (fr *FilterResult) HasQualifyingDay() bool {
	for _, ok := range fr.QualifyingMask {
		if ok {
			return true
		}
	}
	return false
}

// Trim returns a copy restricted to indices whose date falls within
// [start, end], preserving mask/date alignment
func (fr *FilterResult) Trim(start, end time.Time) *FilterResult {
	trimmed := &FilterResult{
		Symbol:  fr.Symbol,
		Metrics: make(map[string]float64, len(fr.Metrics)),
	}
	for k, v := range fr.Metrics {
		trimmed.Metrics[k] = v
	}
	for i, d := range fr.Dates {
		if DateWithin(d, start, end) {
			trimmed.Dates = append(trimmed.Dates, d)
			trimmed.QualifyingMask = append(trimmed.QualifyingMask, fr.QualifyingMask[i])
		}
	}
	return trimmed
}

// ScreenResult aggregates the outcome of one screening call
type ScreenResult struct {
	PerSymbolResults  map[string]*FilterResult `json:"per_symbol_results"`
	QualifyingSymbols []string                 `json:"qualifying_symbols"`
	FailedSymbols     []string                 `json:"failed_symbols,omitempty"`
	NumProcessed      int                      `json:"num_processed"`
	NumErrors         int                      `json:"num_errors"`
	ProcessingTimeMs  int64                    `json:"processing_time_ms"`
}

// NewScreenResult creates an empty screen result
func NewScreenResult() *ScreenResult {
	return &ScreenResult{
		PerSymbolResults: make(map[string]*FilterResult),
	}
}

// AddSymbolResult records a finished symbol; the symbol qualifies when its
// combined mask has at least one true entry
func (sr *ScreenResult) AddSymbolResult(symbol string, fr *FilterResult) {
	sr.PerSymbolResults[symbol] = fr
	sr.NumProcessed++
	if fr.HasQualifyingDay() {
		sr.QualifyingSymbols = append(sr.QualifyingSymbols, symbol)
	}
}

// AddFailedSymbol records a symbol whose data could not be fetched
func (sr *ScreenResult) AddFailedSymbol(symbol string) {
	sr.FailedSymbols = append(sr.FailedSymbols, symbol)
	sr.NumErrors++
}

// SortSymbols puts qualifying and failed symbol lists in deterministic order
func (sr *ScreenResult) SortSymbols() {
	sort.Strings(sr.QualifyingSymbols)
	sort.Strings(sr.FailedSymbols)
}

// ExtensionMetadata records how the requested period was extended for
// lookback, plus which fetch path ran. Diagnostic only.
type ExtensionMetadata struct {
	Applied       bool                `json:"applied"`
	OriginalStart time.Time           `json:"original_start"`
	ExtendedStart time.Time           `json:"extended_start"`
	ExtensionDays int                 `json:"extension_days"`
	Requirements  []FilterRequirement `json:"requirements"`
	FetchMode     string              `json:"fetch_mode,omitempty"`
}
