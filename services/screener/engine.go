package screener

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"stock_screener_backend/models"
	"stock_screener_backend/services/fetch"
	"stock_screener_backend/services/filters"
)

// Engine is the top-level screening coordinator: it plans the lookback
// extension, fetches bars through the orchestrator, applies the filter set
// per symbol, trims back to the requested range and aggregates the result
type Engine struct {
	orchestrator      *fetch.Orchestrator
	analyzer          *Analyzer
	planner           *Planner
	filterConcurrency int
}

// NewEngine creates a screening engine. filterConcurrency bounds parallel
// per-symbol filter computation; it should not exceed the orchestrator's
// fetch concurrency.
func NewEngine(orchestrator *fetch.Orchestrator, analyzer *Analyzer, filterConcurrency int) *Engine {
	if filterConcurrency <= 0 {
		filterConcurrency = 16
	}
	return &Engine{
		orchestrator:      orchestrator,
		analyzer:          analyzer,
		planner:           NewPlanner(analyzer),
		filterConcurrency: filterConcurrency,
	}
}

// Screen runs the filter set over [start, end] without lookback extension.
// The caller is responsible for requesting enough history; filters degrade
// gracefully (zero qualifying days plus an insufficient_data metric) when
// it is not.
func (e *Engine) Screen(ctx context.Context, symbols []string, fs []filters.Filter, start, end time.Time) (*models.ScreenResult, error) {
	if err := validateRequest(symbols, fs, start, end); err != nil {
		return nil, err
	}

	started := time.Now()
	seriesBySymbol, report, err := e.orchestrator.Fetch(ctx, symbols, start, end)
	if err != nil && len(seriesBySymbol) == 0 {
		return nil, fmt.Errorf("fetch failed for all symbols: %w", err)
	}

	result := e.applyFilters(ctx, seriesBySymbol, fs, nil)
	recordFetchFailures(result, report)
	result.SortSymbols()
	result.ProcessingTimeMs = time.Since(started).Milliseconds()
	return result, nil
}

// ScreenWithExtension runs the filter set over [start, end], automatically
// extending the fetched range backward so lookback-dependent filters have
// enough history, then trimming results to the requested range
func (e *Engine) ScreenWithExtension(ctx context.Context, symbols []string, fs []filters.Filter, start, end time.Time) (*models.ScreenResult, *models.ExtensionMetadata, error) {
	if err := validateRequest(symbols, fs, start, end); err != nil {
		return nil, nil, err
	}

	started := time.Now()
	meta := e.planner.Plan(fs, start, end)

	fetchStart := start
	if meta.Applied {
		fetchStart = meta.ExtendedStart
		log.Printf("Extending fetch range by %d days (from %s to %s) for lookback",
			meta.ExtensionDays, start.Format("2006-01-02"), fetchStart.Format("2006-01-02"))
	}

	seriesBySymbol, report, err := e.orchestrator.Fetch(ctx, symbols, fetchStart, end)
	if err != nil && len(seriesBySymbol) == 0 {
		return nil, meta, fmt.Errorf("fetch failed for all symbols: %w", err)
	}
	if report != nil {
		meta.FetchMode = report.Mode
	}

	var trim *trimRange
	if meta.Applied {
		trim = &trimRange{start: start, end: end}
	}
	result := e.applyFilters(ctx, seriesBySymbol, fs, trim)
	recordFetchFailures(result, report)
	result.SortSymbols()
	result.ProcessingTimeMs = time.Since(started).Milliseconds()
	return result, meta, nil
}

type trimRange struct {
	start time.Time
	end   time.Time
}

// applyFilters runs the AND-composite over each fetched series with
// bounded parallelism. Workers compute independently; a single mutex
// guards the aggregate.
func (e *Engine) applyFilters(ctx context.Context, seriesBySymbol map[string]*models.BarSeries, fs []filters.Filter, trim *trimRange) *models.ScreenResult {
	result := models.NewScreenResult()
	composite, err := filters.NewCompositeFilter(fs...)
	if err != nil {
		// validateRequest guarantees a non-empty filter set
		return result
	}

	sem := make(chan struct{}, e.filterConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for symbol, series := range seriesBySymbol {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(symbol string, series *models.BarSeries) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			fr, err := composite.Apply(series)
			if err != nil {
				log.Printf("Filter application failed for %s: %v", symbol, err)
				mu.Lock()
				result.AddFailedSymbol(symbol)
				mu.Unlock()
				return
			}
			if trim != nil {
				fr = fr.Trim(trim.start, trim.end)
			}
			if series.Len() > 0 {
				last := series.Bars[series.Len()-1]
				fr.Metrics["last_close"] = last.Close
				fr.Metrics["last_dollar_volume"] = last.DollarVolume()
			}

			mu.Lock()
			result.AddSymbolResult(symbol, fr)
			mu.Unlock()
		}(symbol, series)
	}
	wg.Wait()
	return result
}

// recordFetchFailures folds fetch-level failures into the aggregate so
// callers can distinguish "no qualifying symbols" from "data unavailable"
func recordFetchFailures(result *models.ScreenResult, report *fetch.Report) {
	if report == nil {
		return
	}
	for symbol := range report.Failed {
		result.AddFailedSymbol(symbol)
	}
}

// validateRequest surfaces terminal configuration problems before any
// network I/O
func validateRequest(symbols []string, fs []filters.Filter, start, end time.Time) error {
	if len(symbols) == 0 {
		return fmt.Errorf("symbol universe is empty")
	}
	if len(fs) == 0 {
		return fmt.Errorf("filter set is empty")
	}
	if end.Before(start) {
		return fmt.Errorf("invalid date range: end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return nil
}
