package barstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchRangeParsesAggregates(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("apiKey")
		fmt.Fprint(w, `{
			"ticker": "AAPL",
			"resultsCount": 2,
			"status": "OK",
			"results": [
				{"t": 1767571200000, "o": 100.5, "h": 103.0, "l": 99.0, "c": 102.0, "v": 1500000, "vw": 101.2},
				{"t": 1767657600000, "o": 102.0, "h": 104.0, "l": 101.0, "c": 103.5, "v": 1200000}
			]
		}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key")
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	series, err := client.FetchRange(context.Background(), "AAPL", start, end)
	if err != nil {
		t.Fatalf("FetchRange() error = %v", err)
	}

	wantPath := "/v2/aggs/ticker/AAPL/range/1/day/2026-01-05/2026-01-06"
	if gotPath != wantPath {
		t.Errorf("request path = %q, want %q", gotPath, wantPath)
	}
	if gotKey != "test-key" {
		t.Errorf("apiKey = %q, want test-key", gotKey)
	}

	if series.Len() != 2 {
		t.Fatalf("series length = %d, want 2", series.Len())
	}
	first := series.Bars[0]
	if first.Open != 100.5 || first.Close != 102.0 || first.Volume != 1500000 || first.VWAP != 101.2 {
		t.Errorf("first bar = %+v, fields not parsed", first)
	}
	if !first.Date.Equal(start) {
		t.Errorf("first bar date = %s, want 2026-01-05", first.Date.Format("2006-01-02"))
	}
}

func TestFetchBulkGroupsBySymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/aggs/grouped/locale/us/market/stocks/2026-01-05" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{
			"resultsCount": 3,
			"status": "OK",
			"results": [
				{"T": "AAPL", "t": 1767571200000, "o": 100, "h": 101, "l": 99, "c": 100.5, "v": 1000},
				{"T": "MSFT", "t": 1767571200000, "o": 300, "h": 305, "l": 298, "c": 304, "v": 2000},
				{"t": 1767571200000, "o": 1, "h": 1, "l": 1, "c": 1, "v": 1}
			]
		}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key")
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	series, err := client.FetchBulk(context.Background(), date)
	if err != nil {
		t.Fatalf("FetchBulk() error = %v", err)
	}
	// The unnamed result has no ticker and is dropped
	if len(series) != 2 {
		t.Fatalf("got %d symbols, want 2", len(series))
	}
	if s, ok := series["MSFT"]; !ok || s.Bars[0].Close != 304 {
		t.Errorf("MSFT series = %+v, want close 304", series["MSFT"])
	}
}

func TestProviderErrorClassification(t *testing.T) {
	tests := []struct {
		status        int
		wantRetryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusRequestTimeout, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"status":"ERROR"}`)
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, "test-key")
			start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

			_, err := client.FetchRange(context.Background(), "AAPL", start, start)
			if err == nil {
				t.Fatal("FetchRange() error = nil, want ProviderError")
			}
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("error type = %T, want *ProviderError", err)
			}
			if pe.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v for status %d, want %v", pe.Retryable, tt.status, tt.wantRetryable)
			}
			if pe.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", pe.StatusCode, tt.status)
			}
		})
	}
}

func TestFetchRangeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json at all`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key")
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	_, err := client.FetchRange(context.Background(), "AAPL", start, start)
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if pe.Retryable {
		t.Error("parse failures must not be retryable")
	}
}
