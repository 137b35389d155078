package market

import (
	"context"
	"errors"
	"math"
	"testing"

	"pulseboard/internal/domain"
)

func risingCandles(n int) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		price := 100 + float64(i)
		out[i] = domain.Candle{
			Timestamp: int64(i) * 3_600_000,
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.5,
		}
	}
	return out
}

func TestIndicatorsFromLiveCandles(t *testing.T) {
	t.Parallel()
	coarse := &fakeCoarse{ohlc: risingCandles(60)}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Indicators(context.Background(), "bitcoin", 7)
	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", res.Status, res.Reason)
	}

	set := res.Data
	if set.RSI <= 50 || set.RSI > 100 {
		t.Errorf("uptrend RSI should be above 50, got %v", set.RSI)
	}
	if set.MACD <= 0 {
		t.Errorf("uptrend MACD should be positive, got %v", set.MACD)
	}
	if set.EMAFast <= set.EMASlow {
		t.Errorf("uptrend fast EMA should lead slow EMA: %v vs %v", set.EMAFast, set.EMASlow)
	}
	if !(set.BollingerLower < set.BollingerMiddle && set.BollingerMiddle < set.BollingerUpper) {
		t.Errorf("bands out of order: %v %v %v", set.BollingerLower, set.BollingerMiddle, set.BollingerUpper)
	}
	for _, v := range []float64{set.RSI, set.MACD, set.MACDSignal, set.EMAFast, set.EMASlow, set.BollingerUpper, set.BollingerMiddle, set.BollingerLower} {
		if math.IsNaN(v) {
			t.Fatal("indicator set contains NaN")
		}
	}
}

func TestIndicatorsDegradeWithCandles(t *testing.T) {
	t.Parallel()
	coarse := &fakeCoarse{ohlcErr: errors.New("boom")}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Indicators(context.Background(), "bitcoin", 7)
	if !res.IsDegraded() {
		t.Fatalf("expected degraded indicators over synthesized candles, got %s", res.Status)
	}
	if res.Reason == "" {
		t.Error("expected degradation reason")
	}
	if math.IsNaN(res.Data.RSI) {
		t.Error("degraded indicators should still be computed")
	}
}

func TestIndicatorsUnknownAssetFails(t *testing.T) {
	t.Parallel()
	c := newTestClient(&fakeCoarse{}, &fakeFine{})

	res := c.Indicators(context.Background(), "shibtoken", 7)
	if !res.IsFailed() {
		t.Fatalf("expected failure, got %s", res.Status)
	}
}

func TestIndicatorsShortHistoryFails(t *testing.T) {
	t.Parallel()
	coarse := &fakeCoarse{ohlc: risingCandles(10)}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Indicators(context.Background(), "bitcoin", 7)
	if !res.IsFailed() {
		t.Fatalf("expected failure on short history, got %s", res.Status)
	}
}
