package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pulseboard/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const binanceBaseURL = "https://api.binance.com/api/v3"

// BinanceProvider fetches sub-day klines from the Binance REST API.
// It is the fine provider: second/minute/hour granularity.
type BinanceProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewBinanceProvider(tracer trace.Tracer) *BinanceProvider {
	return NewBinanceProviderWithBaseURL(tracer, binanceBaseURL)
}

// NewBinanceProviderWithBaseURL points the provider at an alternate base,
// typically the gateway's /proxy/binance prefix.
func NewBinanceProviderWithBaseURL(tracer trace.Tracer, baseURL string) *BinanceProvider {
	return &BinanceProvider{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		tracer:  tracer,
	}
}

// FetchKlines fetches up to limit klines for a trading pair at the given
// interval ("1s", "5s", "1m", "5m", "15m", "1h").
func (p *BinanceProvider) FetchKlines(ctx context.Context, pair, interval string, limit int) ([]domain.Candle, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-klines")
	defer span.End()

	url := fmt.Sprintf("%s/klines?symbol=%s&interval=%s&limit=%d", p.baseURL, pair, interval, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", pair, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("binance API error %d: %s", resp.StatusCode, string(body))
	}

	// Each kline is a heterogeneous JSON array; numeric price/volume fields
	// are string-encoded: [openTime, "o", "h", "l", "c", "v", closeTime, ...].
	var raw [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse klines for %s: %w", pair, err)
	}

	return parseKlines(raw)
}

func parseKlines(raw [][]json.RawMessage) ([]domain.Candle, error) {
	candles := make([]domain.Candle, 0, len(raw))
	for i, row := range raw {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row %d has %d fields, want >= 6", i, len(row))
		}

		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("kline row %d open time: %w", i, err)
		}

		open, err := parseQuotedFloat(row[1])
		if err != nil {
			return nil, fmt.Errorf("kline row %d open: %w", i, err)
		}
		high, err := parseQuotedFloat(row[2])
		if err != nil {
			return nil, fmt.Errorf("kline row %d high: %w", i, err)
		}
		low, err := parseQuotedFloat(row[3])
		if err != nil {
			return nil, fmt.Errorf("kline row %d low: %w", i, err)
		}
		closePrice, err := parseQuotedFloat(row[4])
		if err != nil {
			return nil, fmt.Errorf("kline row %d close: %w", i, err)
		}
		volume, err := parseQuotedFloat(row[5])
		if err != nil {
			return nil, fmt.Errorf("kline row %d volume: %w", i, err)
		}

		candles = append(candles, domain.Candle{
			Timestamp: openTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}
	return candles, nil
}

// parseQuotedFloat parses a JSON string token holding a decimal number.
func parseQuotedFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
