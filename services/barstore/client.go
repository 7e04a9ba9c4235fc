package barstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stock_screener_backend/models"
)

// Client fetches daily OHLCV bars from the market data provider. FetchBulk
// retrieves every symbol for one date in a single request; FetchRange
// retrieves one symbol over a date range.
type Client interface {
	FetchRange(ctx context.Context, symbol string, start, end time.Time) (*models.BarSeries, error)
	FetchBulk(ctx context.Context, date time.Time) (map[string]*models.BarSeries, error)
}

// ProviderError reports a failed provider call. Retryable errors (rate
// limits, timeouts, server errors) are retried by the fetch orchestrator;
// non-retryable ones (auth, not found) fail the symbol immediately.
type ProviderError struct {
	Symbol     string
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *ProviderError) Error() string {
	scope := "bulk"
	if e.Symbol != "" {
		scope = e.Symbol
	}
	return fmt.Sprintf("provider error (%s, status %d): %s", scope, e.StatusCode, e.Message)
}

// HTTPClient is the aggregates-API implementation of Client
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates a bar store client for the given provider base URL
// and API key
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// aggregateBar is one raw bar in an aggregates response
type aggregateBar struct {
	Ticker    string  `json:"T,omitempty"`
	Timestamp int64   `json:"t"` // Unix milliseconds
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	VWAP      float64 `json:"vw,omitempty"`
}

// aggregatesResponse is the provider response for both the per-symbol
// range endpoint and the grouped single-date endpoint
type aggregatesResponse struct {
	Ticker       string         `json:"ticker,omitempty"`
	ResultsCount int            `json:"resultsCount"`
	Results      []aggregateBar `json:"results"`
	Status       string         `json:"status"`
}

func (b aggregateBar) toBar(symbol string) models.Bar {
	if b.Ticker != "" {
		symbol = b.Ticker
	}
	return models.Bar{
		Symbol: symbol,
		Date:   time.UnixMilli(b.Timestamp).UTC().Truncate(24 * time.Hour),
		Open:   b.Open,
		High:   b.High,
		Low:    b.Low,
		Close:  b.Close,
		Volume: int64(b.Volume),
		VWAP:   b.VWAP,
	}
}

// FetchRange fetches daily bars for one symbol over [start, end]
func (c *HTTPClient) FetchRange(ctx context.Context, symbol string, start, end time.Time) (*models.BarSeries, error) {
	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s",
		c.baseURL, url.PathEscape(symbol), start.Format("2006-01-02"), end.Format("2006-01-02"))

	resp, err := c.get(ctx, endpoint, symbol)
	if err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(resp.Results))
	for _, raw := range resp.Results {
		bars = append(bars, raw.toBar(symbol))
	}
	return models.NewBarSeries(symbol, bars), nil
}

// FetchBulk fetches one daily bar for every symbol on the given date
func (c *HTTPClient) FetchBulk(ctx context.Context, date time.Time) (map[string]*models.BarSeries, error) {
	endpoint := fmt.Sprintf("%s/v2/aggs/grouped/locale/us/market/stocks/%s",
		c.baseURL, date.Format("2006-01-02"))

	resp, err := c.get(ctx, endpoint, "")
	if err != nil {
		return nil, err
	}

	bySymbol := make(map[string][]models.Bar)
	for _, raw := range resp.Results {
		bar := raw.toBar("")
		if bar.Symbol == "" {
			continue
		}
		bySymbol[bar.Symbol] = append(bySymbol[bar.Symbol], bar)
	}

	series := make(map[string]*models.BarSeries, len(bySymbol))
	for symbol, bars := range bySymbol {
		series[symbol] = models.NewBarSeries(symbol, bars)
	}
	return series, nil
}

// get performs one provider request with query parameters shared by both
// endpoints and maps HTTP failures onto ProviderError
func (c *HTTPClient) get(ctx context.Context, endpoint, symbol string) (*aggregatesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	q := req.URL.Query()
	q.Set("adjusted", "true")
	q.Set("limit", "50000")
	q.Set("apiKey", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Network-level failures are worth retrying
		return nil, &ProviderError{Symbol: symbol, Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Symbol: symbol, StatusCode: resp.StatusCode, Message: err.Error(), Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Symbol:     symbol,
			StatusCode: resp.StatusCode,
			Message:    truncateBody(body),
			Retryable:  isRetryableStatus(resp.StatusCode),
		}
	}

	var parsed aggregatesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &ProviderError{Symbol: symbol, StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to parse response: %v", err), Retryable: false}
	}
	return &parsed, nil
}

// isRetryableStatus classifies rate limits and server errors as retryable;
// auth and not-found failures are permanent
func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return true
	}
	return status >= 500
}

func truncateBody(body []byte) string {
	const maxLen = 200
	if len(body) > maxLen {
		return string(body[:maxLen]) + "..."
	}
	return string(body)
}
