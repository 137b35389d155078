package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pulseboard/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches price snapshots and day-granularity OHLC data
// from the CoinGecko free API. It is the coarse provider: span >= 1 day.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return NewCoinGeckoProviderWithBaseURL(tracer, coingeckoBaseURL)
}

// NewCoinGeckoProviderWithBaseURL points the provider at an alternate base,
// typically the gateway's /proxy/coingecko prefix.
func NewCoinGeckoProviderWithBaseURL(tracer trace.Tracer, baseURL string) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// FetchPrices fetches current snapshots for the given asset ids in a single
// API call.
func (p *CoinGeckoProvider) FetchPrices(ctx context.Context, ids []string) (map[string]*domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-prices")
	defer span.End()

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_24hr_vol=true&include_market_cap=true",
		p.baseURL, strings.Join(ids, ","))

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	// Response shape: {"bitcoin": {"usd": 97000, "usd_24h_change": 2.34,
	// "usd_24h_vol": 45000000000, "usd_market_cap": 1900000000000}, ...}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse prices: %w", err)
	}

	result := make(map[string]*domain.PricePoint, len(raw))
	for id, data := range raw {
		asset, ok := domain.AssetByID[id]
		if !ok {
			continue
		}
		changePct := data["usd_24h_change"]
		price := data["usd"]
		result[id] = &domain.PricePoint{
			Symbol:       asset.Symbol,
			CurrentPrice: price,
			Change24h:    price * changePct / 100,
			Change24hPct: changePct,
			Volume24h:    data["usd_24h_vol"],
			MarketCap:    data["usd_market_cap"],
		}
	}

	return result, nil
}

// FetchOHLC fetches day-granularity OHLC rows for an asset.
// Rows are 5-element numeric arrays [timestampMs, open, high, low, close].
func (p *CoinGeckoProvider) FetchOHLC(ctx context.Context, id string, days float64) ([]domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-ohlc")
	defer span.End()

	url := fmt.Sprintf("%s/coins/%s/ohlc?vs_currency=usd&days=%s", p.baseURL, id, formatDays(days))

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch ohlc for %s: %w", id, err)
	}

	var raw [][]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse ohlc for %s: %w", id, err)
	}

	candles := make([]domain.Candle, 0, len(raw))
	for i, row := range raw {
		if len(row) < 5 {
			return nil, fmt.Errorf("ohlc row %d has %d fields, want 5", i, len(row))
		}
		candles = append(candles, domain.Candle{
			Timestamp: int64(row[0]),
			Open:      row[1],
			High:      row[2],
			Low:       row[3],
			Close:     row[4],
		})
	}

	return candles, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// formatDays renders the days parameter without a trailing decimal for whole
// values, matching what the upstream expects ("7", not "7.000000").
func formatDays(days float64) string {
	if days == float64(int64(days)) {
		return fmt.Sprintf("%d", int64(days))
	}
	return fmt.Sprintf("%g", days)
}
