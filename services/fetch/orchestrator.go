package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"stock_screener_backend/models"
	"stock_screener_backend/services/barstore"
	"stock_screener_backend/services/pricestore"
)

// Options tune the orchestrator's concurrency and retry behavior
type Options struct {
	MaxConcurrent int           // bound on simultaneous per-symbol fetches
	RetryAttempts int           // attempts per symbol on retryable errors
	RetryDelay    time.Duration // base delay, grows linearly per attempt
}

// DefaultOptions are reasonable production settings
func DefaultOptions() Options {
	return Options{
		MaxConcurrent: 50,
		RetryAttempts: 3,
		RetryDelay:    500 * time.Millisecond,
	}
}

// Report describes how a fetch executed: which path ran and which symbols
// could not be fetched. Per-symbol failures never abort the batch.
type Report struct {
	Mode          string            // bulk, individual or bulk_fallback
	Failed        map[string]string // symbol -> reason
	BarsFetched   int
	DroppedBars   int // bars discarded for violating OHLC invariants
	ServedLocally int // symbols served from the local bar store after provider failure
}

// ProgressFunc is invoked after each symbol completes (successfully or not)
type ProgressFunc func(symbol string, ok bool, completed, total int)

// Orchestrator coordinates bar fetching for a screening call. A request
// spanning a single calendar date uses one bulk call for all symbols and
// transparently falls back to per-symbol fetches when the bulk call fails
// or returns nothing; multi-date requests fan out per symbol under a
// concurrency bound with retry and backoff.
type Orchestrator struct {
	client     barstore.Client
	store      *pricestore.Store // optional local mirror
	opts       Options
	OnProgress ProgressFunc
}

// New creates an orchestrator. store may be nil to disable the local
// bar mirror.
func New(client barstore.Client, store *pricestore.Store, opts Options) *Orchestrator {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultOptions().MaxConcurrent
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = DefaultOptions().RetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultOptions().RetryDelay
	}
	return &Orchestrator{client: client, store: store, opts: opts}
}

// Fetch retrieves date-ordered bar series for the given symbols over
// [start, end]. The returned map contains only symbols with usable data;
// failures are listed in the report.
func (o *Orchestrator) Fetch(ctx context.Context, symbols []string, start, end time.Time) (map[string]*models.BarSeries, *Report, error) {
	if len(symbols) == 0 {
		return nil, nil, fmt.Errorf("no symbols to fetch")
	}
	if end.Before(start) {
		return nil, nil, fmt.Errorf("invalid fetch range: end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	if models.SameDay(start, end) {
		return o.fetchBulk(ctx, symbols, start)
	}
	return o.fetchIndividual(ctx, symbols, start, end, models.FetchModeIndividual)
}

// fetchBulk runs the single-date bulk path with automatic per-symbol
// fallback. The fallback is transparent: same return shape, recorded only
// in the report's Mode.
func (o *Orchestrator) fetchBulk(ctx context.Context, symbols []string, date time.Time) (map[string]*models.BarSeries, *Report, error) {
	all, err := o.client.FetchBulk(ctx, date)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		log.Printf("Bulk fetch for %s failed (%v), falling back to per-symbol fetch", date.Format("2006-01-02"), err)
		return o.fetchIndividual(ctx, symbols, date, date, models.FetchModeBulkFallback)
	}
	if len(all) == 0 {
		log.Printf("Bulk fetch for %s returned no data, falling back to per-symbol fetch", date.Format("2006-01-02"))
		return o.fetchIndividual(ctx, symbols, date, date, models.FetchModeBulkFallback)
	}

	report := &Report{Mode: models.FetchModeBulk, Failed: make(map[string]string)}
	result := make(map[string]*models.BarSeries)
	completed := 0
	for _, symbol := range symbols {
		completed++
		series, ok := all[symbol]
		if !ok || series.Len() == 0 {
			report.Failed[symbol] = "no data in bulk response"
			o.notify(symbol, false, completed, len(symbols))
			continue
		}
		clean, dropped, err := validateSeries(series)
		report.DroppedBars += dropped
		if err != nil {
			report.Failed[symbol] = err.Error()
			o.notify(symbol, false, completed, len(symbols))
			continue
		}
		result[symbol] = clean
		report.BarsFetched += clean.Len()
		o.saveLocal(clean)
		o.notify(symbol, true, completed, len(symbols))
	}
	return result, report, nil
}

// fetchIndividual fans out per-symbol range fetches in MaxConcurrent-sized
// chunks. A single collector owns the result map; workers only send.
func (o *Orchestrator) fetchIndividual(ctx context.Context, symbols []string, start, end time.Time, mode string) (map[string]*models.BarSeries, *Report, error) {
	report := &Report{Mode: mode, Failed: make(map[string]string)}
	result := make(map[string]*models.BarSeries)

	type symbolResult struct {
		symbol string
		series *models.BarSeries
		local  bool
		err    error
	}

	sem := make(chan struct{}, o.opts.MaxConcurrent)
	results := make(chan symbolResult)
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- symbolResult{symbol: symbol, err: ctx.Err()}
				return
			}

			series, local, err := o.fetchSymbol(ctx, symbol, start, end)
			results <- symbolResult{symbol: symbol, series: series, local: local, err: err}
		}(symbol)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for r := range results {
		completed++
		done := completed

		if r.err != nil {
			report.Failed[r.symbol] = r.err.Error()
			o.notify(r.symbol, false, done, len(symbols))
			continue
		}

		clean, dropped, err := validateSeries(r.series)
		report.DroppedBars += dropped
		if err != nil {
			report.Failed[r.symbol] = err.Error()
			o.notify(r.symbol, false, done, len(symbols))
			continue
		}

		result[r.symbol] = clean
		report.BarsFetched += clean.Len()
		if r.local {
			report.ServedLocally++
		} else {
			o.saveLocal(clean)
		}
		o.notify(r.symbol, true, done, len(symbols))
	}

	if err := ctx.Err(); err != nil {
		// Completed symbols are kept; in-flight ones were dropped above
		return result, report, err
	}
	return result, report, nil
}

// fetchSymbol fetches one symbol with retry and backoff on retryable
// provider errors, falling back to the local bar store after exhaustion
func (o *Orchestrator) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) (*models.BarSeries, bool, error) {
	var lastErr error
	for attempt := 1; attempt <= o.opts.RetryAttempts; attempt++ {
		series, err := o.client.FetchRange(ctx, symbol, start, end)
		if err == nil {
			return series, false, nil
		}
		lastErr = err

		var pe *barstore.ProviderError
		if !errors.As(err, &pe) || !pe.Retryable {
			break
		}
		if attempt == o.opts.RetryAttempts {
			break
		}

		delay := o.opts.RetryDelay * time.Duration(attempt)
		log.Printf("Retryable fetch error for %s (attempt %d/%d): %v, retrying in %s",
			symbol, attempt, o.opts.RetryAttempts, err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	if o.store != nil {
		if cached, err := o.store.GetRange(symbol, start, end); err == nil && cached.Len() > 0 {
			log.Printf("Serving %s from local bar store after provider failure: %v", symbol, lastErr)
			return cached, true, nil
		}
	}
	return nil, false, lastErr
}

// validateSeries drops bars violating OHLC invariants. The symbol only
// fails when every bar is invalid.
func validateSeries(series *models.BarSeries) (*models.BarSeries, int, error) {
	valid := make([]models.Bar, 0, series.Len())
	dropped := 0
	for _, b := range series.Bars {
		if err := b.Validate(); err != nil {
			log.Printf("Dropping invalid bar: %v", err)
			dropped++
			continue
		}
		valid = append(valid, b)
	}
	if len(valid) == 0 && series.Len() > 0 {
		return nil, dropped, fmt.Errorf("all %d bars for %s failed validation", series.Len(), series.Symbol)
	}
	return models.NewBarSeries(series.Symbol, valid), dropped, nil
}

func (o *Orchestrator) saveLocal(series *models.BarSeries) {
	if o.store == nil {
		return
	}
	if err := o.store.SaveSeries(series); err != nil {
		log.Printf("Failed to mirror %s bars locally: %v", series.Symbol, err)
	}
}

func (o *Orchestrator) notify(symbol string, ok bool, completed, total int) {
	if o.OnProgress != nil {
		o.OnProgress(symbol, ok, completed, total)
	}
}
