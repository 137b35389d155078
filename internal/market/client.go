package market

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pulseboard/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CoarseProvider serves day-granularity-and-above history plus snapshots.
type CoarseProvider interface {
	FetchPrices(ctx context.Context, ids []string) (map[string]*domain.PricePoint, error)
	FetchOHLC(ctx context.Context, id string, days float64) ([]domain.Candle, error)
}

// FineProvider serves sub-day (second/minute/hour) history.
type FineProvider interface {
	FetchKlines(ctx context.Context, pair, interval string, limit int) ([]domain.Candle, error)
}

// Client is the market data client: it resolves logical (asset, span)
// requests to a concrete provider query, normalizes the response, and
// degrades to synthesized data when the upstream is unavailable. Every
// public method is total; failures surface only through Result status.
type Client struct {
	tracer trace.Tracer
	coarse CoarseProvider
	fine   FineProvider
	synth  *synthesizer
}

func NewClient(tracer trace.Tracer, coarse CoarseProvider, fine FineProvider) *Client {
	return &Client{
		tracer: tracer,
		coarse: coarse,
		fine:   fine,
		synth:  newSynthesizer(),
	}
}

// Candles returns OHLC history for an asset over a lookback span in
// fractional days. Span >= 1 routes to the coarse provider's OHLC endpoint;
// span < 1 resolves a sub-day granularity against the fine provider.
func (c *Client) Candles(ctx context.Context, assetID string, spanDays float64) Result[[]domain.Candle] {
	ctx, span := c.tracer.Start(ctx, "market.candles")
	defer span.End()
	span.SetAttributes(attribute.String("asset", assetID), attribute.Float64("span_days", spanDays))

	asset, ok := domain.AssetByID[assetID]
	if !ok {
		return Failed[[]domain.Candle]("unsupported asset: " + assetID)
	}
	if spanDays <= 0 {
		return Failed[[]domain.Candle](fmt.Sprintf("invalid span: %g", spanDays))
	}

	if spanDays >= 1 {
		candles, err := c.coarse.FetchOHLC(ctx, assetID, spanDays)
		if err != nil {
			return Degraded(
				c.synth.Candles(assetID, multiDayPeriod, multiDayCount, multiDayVolatility, false),
				err.Error(),
			)
		}
		return Ok(normalizeCandles(candles))
	}

	g := selectGranularity(spanDays)
	candles, err := c.fine.FetchKlines(ctx, asset.BinancePair, g.Interval, g.Limit)
	if err != nil {
		return Degraded(
			c.synth.Candles(assetID, g.Period, g.Limit, volatilityFor(g.Interval), true),
			err.Error(),
		)
	}
	return Ok(normalizeCandles(candles))
}

// Price returns the current snapshot for one asset, degrading to the static
// last-known-good table when the snapshot endpoint fails.
func (c *Client) Price(ctx context.Context, assetID string) Result[domain.PricePoint] {
	ctx, span := c.tracer.Start(ctx, "market.price")
	defer span.End()
	span.SetAttributes(attribute.String("asset", assetID))

	if _, ok := domain.AssetByID[assetID]; !ok {
		return Failed[domain.PricePoint]("unsupported asset: " + assetID)
	}

	points, err := c.coarse.FetchPrices(ctx, []string{assetID})
	if err != nil {
		return Degraded(c.synth.Price(assetID), err.Error())
	}
	point, ok := points[assetID]
	if !ok {
		return Degraded(c.synth.Price(assetID), "snapshot missing asset "+assetID)
	}
	return Ok(*point)
}

// Prices returns snapshots for all supported assets in one batched call,
// substituting the static table for every asset on failure.
func (c *Client) Prices(ctx context.Context) Result[map[string]domain.PricePoint] {
	ctx, span := c.tracer.Start(ctx, "market.prices")
	defer span.End()

	ids := domain.SupportedIDs()
	points, err := c.coarse.FetchPrices(ctx, ids)
	if err != nil {
		table := make(map[string]domain.PricePoint, len(ids))
		for _, id := range ids {
			table[id] = c.synth.Price(id)
		}
		return Degraded(table, err.Error())
	}

	out := make(map[string]domain.PricePoint, len(points))
	for id, p := range points {
		out[id] = *p
	}
	return Ok(out)
}

// Sentiment aggregates a market-wide snapshot over the given assets
// (defaulting to all supported), degrading to the constant snapshot when
// the batched price fetch fails.
func (c *Client) Sentiment(ctx context.Context, assetIDs []string) Result[domain.Sentiment] {
	ctx, span := c.tracer.Start(ctx, "market.sentiment")
	defer span.End()

	if len(assetIDs) == 0 {
		assetIDs = domain.SupportedIDs()
	}

	points, err := c.coarse.FetchPrices(ctx, assetIDs)
	if err != nil || len(points) == 0 {
		reason := "snapshot returned no assets"
		if err != nil {
			reason = err.Error()
		}
		return Degraded(c.synth.Sentiment(), reason)
	}

	return Ok(aggregateSentiment(points, len(assetIDs)))
}

// Rows formats price snapshots into sidebar rows in supported-asset
// display order. Assets missing from the map are skipped.
func Rows(points map[string]domain.PricePoint) []domain.MarketRow {
	rows := make([]domain.MarketRow, 0, len(domain.SupportedAssets))
	for _, asset := range domain.SupportedAssets {
		p, ok := points[asset.ID]
		if !ok {
			continue
		}
		trend := "up"
		changeSign := "+"
		if p.Change24hPct < 0 {
			trend = "down"
			changeSign = ""
		}
		rows = append(rows, domain.MarketRow{
			Symbol: asset.Symbol + "/USD",
			Price:  "$" + formatUSD(p.CurrentPrice),
			Change: fmt.Sprintf("%s%.2f%%", changeSign, p.Change24hPct),
			Trend:  trend,
		})
	}
	return rows
}

// normalizeCandles sorts ascending by timestamp and drops duplicate
// timestamps, keeping the later row.
func normalizeCandles(candles []domain.Candle) []domain.Candle {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp < candles[j].Timestamp
	})
	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].Timestamp == c.Timestamp {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

// formatUSD renders a price with thousands separators and two decimals.
func formatUSD(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
