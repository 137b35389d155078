package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(t *testing.T, payload interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func TestCoinGeckoFetchPrices(t *testing.T) {
	t.Parallel()

	p := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.limiter = NewRateLimiter(10, time.Millisecond)
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if !strings.Contains(req.URL.Path, "/simple/price") {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			q := req.URL.Query()
			if q.Get("include_market_cap") != "true" {
				t.Fatalf("market cap not requested: %s", req.URL.RawQuery)
			}
			return jsonResponse(t, map[string]map[string]float64{
				"bitcoin": {
					"usd":            42150.75,
					"usd_24h_change": -2.88,
					"usd_24h_vol":    18500000000,
					"usd_market_cap": 825000000000,
				},
			}), nil
		}),
	}

	result, err := p.FetchPrices(context.Background(), []string{"bitcoin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	point, ok := result["bitcoin"]
	if !ok {
		t.Fatalf("expected bitcoin point, got %v", result)
	}
	if point.Symbol != "BTC" || point.CurrentPrice != 42150.75 {
		t.Fatalf("unexpected point: %+v", point)
	}
	if point.Change24hPct != -2.88 || point.MarketCap != 825000000000 {
		t.Fatalf("unexpected point values: %+v", point)
	}
}

func TestCoinGeckoFetchPricesSkipsUnknownIDs(t *testing.T) {
	t.Parallel()

	p := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.limiter = NewRateLimiter(10, time.Millisecond)
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(t, map[string]map[string]float64{
				"not-a-coin": {"usd": 1},
			}), nil
		}),
	}

	result, err := p.FetchPrices(context.Background(), []string{"not-a-coin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Fatalf("expected unknown id to be dropped, got %v", result)
	}
}

func TestCoinGeckoFetchOHLC(t *testing.T) {
	t.Parallel()

	p := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.limiter = NewRateLimiter(10, time.Millisecond)
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if !strings.Contains(req.URL.Path, "/coins/solana/ohlc") {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			if req.URL.Query().Get("days") != "7" {
				t.Fatalf("unexpected days param: %s", req.URL.RawQuery)
			}
			return jsonResponse(t, [][]float64{
				{1735689600000, 98.32, 99.10, 97.80, 98.75},
				{1735704000000, 98.75, 100.20, 98.50, 99.90},
			}), nil
		}),
	}

	candles, err := p.FetchOHLC(context.Background(), "solana", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	first := candles[0]
	if first.Timestamp != 1735689600000 || first.Open != 98.32 || first.High != 99.10 ||
		first.Low != 97.80 || first.Close != 98.75 {
		t.Fatalf("unexpected first candle: %+v", first)
	}
}

func TestCoinGeckoFetchOHLCRejectsShortRows(t *testing.T) {
	t.Parallel()

	p := NewCoinGeckoProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.baseURL = "http://example"
	p.limiter = NewRateLimiter(10, time.Millisecond)
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(t, [][]float64{{1735689600000, 98.32}}), nil
		}),
	}

	if _, err := p.FetchOHLC(context.Background(), "solana", 7); err == nil {
		t.Fatal("expected error for truncated row")
	}
}

func TestFormatDays(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		7:    "7",
		30:   "30",
		0.25: "0.25",
	}
	for days, expected := range tests {
		if got := formatDays(days); got != expected {
			t.Fatalf("formatDays(%v) = %q, want %q", days, got, expected)
		}
	}
}
