package market

import (
	"context"

	"pulseboard/internal/domain"
	"pulseboard/internal/ta"

	"go.opentelemetry.io/otel/attribute"
)

const (
	rsiPeriod     = 14
	macdFast      = 12
	macdSlow      = 26
	macdSignal    = 9
	bollPeriod    = 20
	bollStdDevs   = 2.0
	minIndicatorN = macdSlow + 1
)

// Indicators computes the chart overlay indicators from the candle series
// for (asset, span). Provenance follows the underlying candles: indicators
// over synthesized candles are reported as degraded.
func (c *Client) Indicators(ctx context.Context, assetID string, spanDays float64) Result[domain.IndicatorSet] {
	ctx, span := c.tracer.Start(ctx, "market.indicators")
	defer span.End()
	span.SetAttributes(attribute.String("asset", assetID), attribute.Float64("span_days", spanDays))

	res := c.Candles(ctx, assetID, spanDays)
	if res.IsFailed() {
		return Failed[domain.IndicatorSet](res.Reason)
	}
	if len(res.Data) < minIndicatorN {
		return Failed[domain.IndicatorSet]("not enough candle history for indicators")
	}

	closes := make([]float64, len(res.Data))
	for i, candle := range res.Data {
		closes[i] = candle.Close
	}

	macdLine, signalLine := ta.MACDSeries(closes, macdFast, macdSlow, macdSignal)
	middle, upper, lower := ta.BollingerSeries(closes, bollPeriod, bollStdDevs)

	set := domain.IndicatorSet{
		RSI:             ta.Latest(ta.RSISeries(closes, rsiPeriod)),
		MACD:            ta.Latest(macdLine),
		MACDSignal:      ta.Latest(signalLine),
		EMAFast:         ta.Latest(ta.EMASeries(closes, macdFast)),
		EMASlow:         ta.Latest(ta.EMASeries(closes, macdSlow)),
		BollingerUpper:  ta.Latest(upper),
		BollingerMiddle: ta.Latest(middle),
		BollingerLower:  ta.Latest(lower),
	}

	if res.IsDegraded() {
		return Degraded(set, res.Reason)
	}
	return Ok(set)
}
