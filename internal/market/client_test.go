package market

import (
	"context"
	"errors"
	"testing"

	"pulseboard/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type fakeCoarse struct {
	prices    map[string]*domain.PricePoint
	pricesErr error
	ohlc      []domain.Candle
	ohlcErr   error

	lastOHLCID   string
	lastOHLCDays float64
}

func (f *fakeCoarse) FetchPrices(ctx context.Context, ids []string) (map[string]*domain.PricePoint, error) {
	return f.prices, f.pricesErr
}

func (f *fakeCoarse) FetchOHLC(ctx context.Context, id string, days float64) ([]domain.Candle, error) {
	f.lastOHLCID = id
	f.lastOHLCDays = days
	return f.ohlc, f.ohlcErr
}

type fakeFine struct {
	klines []domain.Candle
	err    error

	lastPair     string
	lastInterval string
	lastLimit    int
}

func (f *fakeFine) FetchKlines(ctx context.Context, pair, interval string, limit int) ([]domain.Candle, error) {
	f.lastPair = pair
	f.lastInterval = interval
	f.lastLimit = limit
	return f.klines, f.err
}

func newTestClient(coarse *fakeCoarse, fine *fakeFine) *Client {
	return NewClient(trace.NewNoopTracerProvider().Tracer("test"), coarse, fine)
}

func TestCandlesMultiDayRoutesToCoarseProvider(t *testing.T) {
	t.Parallel()

	coarse := &fakeCoarse{ohlc: []domain.Candle{
		{Timestamp: 2000, Open: 2, High: 3, Low: 1, Close: 2.5},
		{Timestamp: 1000, Open: 1, High: 2, Low: 0.5, Close: 2},
	}}
	fine := &fakeFine{}
	c := newTestClient(coarse, fine)

	for _, days := range []float64{7, 30} {
		res := c.Candles(context.Background(), "bitcoin", days)
		if res.Status != StatusOK {
			t.Fatalf("expected ok, got %+v", res)
		}
		if coarse.lastOHLCID != "bitcoin" || coarse.lastOHLCDays != days {
			t.Fatalf("coarse provider called with (%s, %g), want (bitcoin, %g)",
				coarse.lastOHLCID, coarse.lastOHLCDays, days)
		}
	}
	if fine.lastPair != "" {
		t.Fatal("fine provider must not be called for multi-day spans")
	}
}

func TestCandlesNormalizesCoarseResponse(t *testing.T) {
	t.Parallel()

	coarse := &fakeCoarse{ohlc: []domain.Candle{
		{Timestamp: 2000, Close: 2},
		{Timestamp: 1000, Close: 1},
		{Timestamp: 2000, Close: 3},
	}}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Candles(context.Background(), "bitcoin", 7)
	if len(res.Data) != 2 {
		t.Fatalf("expected duplicate timestamps collapsed, got %d rows", len(res.Data))
	}
	if res.Data[0].Timestamp != 1000 || res.Data[1].Timestamp != 2000 {
		t.Fatalf("expected ascending order, got %+v", res.Data)
	}
	if res.Data[1].Close != 3 {
		t.Fatalf("expected later duplicate kept, got %+v", res.Data[1])
	}
}

func TestCandlesSubDayRoutesToFineProvider(t *testing.T) {
	t.Parallel()

	fine := &fakeFine{klines: []domain.Candle{{Timestamp: 1000, Open: 1, High: 2, Low: 0.5, Close: 1.5}}}
	c := newTestClient(&fakeCoarse{}, fine)

	res := c.Candles(context.Background(), "solana", 0.25)
	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %+v", res)
	}
	if fine.lastPair != "SOLUSDT" {
		t.Fatalf("expected SOLUSDT pair, got %s", fine.lastPair)
	}
	if fine.lastInterval != "15m" || fine.lastLimit != 24 {
		t.Fatalf("expected 15m/24, got %s/%d", fine.lastInterval, fine.lastLimit)
	}
}

func TestCandlesDegradeOnCoarseFailure(t *testing.T) {
	t.Parallel()

	coarse := &fakeCoarse{ohlcErr: errors.New("coingecko API error 429")}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Candles(context.Background(), "bitcoin", 7)
	if !res.IsDegraded() {
		t.Fatalf("expected degraded result, got %+v", res.Status)
	}
	if res.Reason != "coingecko API error 429" {
		t.Fatalf("upstream failure not carried in reason: %q", res.Reason)
	}
	if len(res.Data) != multiDayCount {
		t.Fatalf("expected %d synthesized bars, got %d", multiDayCount, len(res.Data))
	}
	spacing := multiDayPeriod.Milliseconds()
	for i := 1; i < len(res.Data); i++ {
		if res.Data[i].Timestamp-res.Data[i-1].Timestamp != spacing {
			t.Fatalf("bar %d: synthesized spacing broken", i)
		}
	}
}

func TestCandlesDegradeOnFineFailure(t *testing.T) {
	t.Parallel()

	fine := &fakeFine{err: errors.New("connection refused")}
	c := newTestClient(&fakeCoarse{}, fine)

	res := c.Candles(context.Background(), "solana", 0.25)
	if !res.IsDegraded() {
		t.Fatalf("expected degraded result, got %+v", res.Status)
	}
	if len(res.Data) != 24 {
		t.Fatalf("expected 24 synthesized bars for 0.25d span, got %d", len(res.Data))
	}
	for i, bar := range res.Data {
		if bar.Volume <= 0 {
			t.Fatalf("bar %d: sub-day synthesized bars should carry volume", i)
		}
	}
}

func TestCandlesUnknownAssetFails(t *testing.T) {
	t.Parallel()

	c := newTestClient(&fakeCoarse{}, &fakeFine{})
	res := c.Candles(context.Background(), "no-such-coin", 7)
	if !res.IsFailed() {
		t.Fatalf("expected failed result, got %+v", res.Status)
	}
	res = c.Candles(context.Background(), "bitcoin", 0)
	if !res.IsFailed() {
		t.Fatalf("expected failed result for zero span, got %+v", res.Status)
	}
}

func TestPriceOkAndDegraded(t *testing.T) {
	t.Parallel()

	coarse := &fakeCoarse{prices: map[string]*domain.PricePoint{
		"bitcoin": {Symbol: "BTC", CurrentPrice: 97000},
	}}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Price(context.Background(), "bitcoin")
	if res.Status != StatusOK || res.Data.CurrentPrice != 97000 {
		t.Fatalf("unexpected result: %+v", res)
	}

	coarse.pricesErr = errors.New("timeout")
	first := c.Price(context.Background(), "bitcoin")
	second := c.Price(context.Background(), "bitcoin")
	if !first.IsDegraded() || !second.IsDegraded() {
		t.Fatal("expected degraded results")
	}
	if first.Data != second.Data {
		t.Fatalf("degraded snapshot must be the static table: %+v vs %+v", first.Data, second.Data)
	}
}

func TestPriceMissingAssetInResponseDegrades(t *testing.T) {
	t.Parallel()

	coarse := &fakeCoarse{prices: map[string]*domain.PricePoint{}}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Price(context.Background(), "solana")
	if !res.IsDegraded() {
		t.Fatalf("expected degraded result, got %+v", res.Status)
	}
	if res.Data.Symbol != "SOL" {
		t.Fatalf("expected SOL table entry, got %+v", res.Data)
	}
}

func TestPricesDegradedCoversAllAssets(t *testing.T) {
	t.Parallel()

	coarse := &fakeCoarse{pricesErr: errors.New("down")}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Prices(context.Background())
	if !res.IsDegraded() {
		t.Fatalf("expected degraded result, got %+v", res.Status)
	}
	for _, id := range domain.SupportedIDs() {
		if _, ok := res.Data[id]; !ok {
			t.Fatalf("degraded table missing %s", id)
		}
	}
}

func TestSentimentAggregatesLiveData(t *testing.T) {
	t.Parallel()

	coarse := &fakeCoarse{prices: map[string]*domain.PricePoint{
		"bitcoin": {Change24hPct: 5, Volume24h: 100},
		"solana":  {Change24hPct: -5, Volume24h: 100},
	}}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Sentiment(context.Background(), []string{"bitcoin", "solana"})
	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %+v", res)
	}
	if res.Data.Bullish != 50 || res.Data.Trend != domain.TrendNeutral {
		t.Fatalf("unexpected sentiment: %+v", res.Data)
	}
}

func TestSentimentDegradesToConstant(t *testing.T) {
	t.Parallel()

	coarse := &fakeCoarse{pricesErr: errors.New("down")}
	c := newTestClient(coarse, &fakeFine{})

	res := c.Sentiment(context.Background(), nil)
	if !res.IsDegraded() {
		t.Fatalf("expected degraded result, got %+v", res.Status)
	}
	if res.Data != fallbackSentiment {
		t.Fatalf("expected constant snapshot, got %+v", res.Data)
	}
}

func TestRowsFormatsSnapshots(t *testing.T) {
	t.Parallel()

	rows := Rows(map[string]domain.PricePoint{
		"bitcoin": {Symbol: "BTC", CurrentPrice: 42150.75, Change24hPct: -2.88},
		"solana":  {Symbol: "SOL", CurrentPrice: 98.32, Change24hPct: 2.23},
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	btc := rows[0]
	if btc.Symbol != "BTC/USD" || btc.Price != "$42,150.75" || btc.Change != "-2.88%" || btc.Trend != "down" {
		t.Fatalf("unexpected BTC row: %+v", btc)
	}
	sol := rows[1]
	if sol.Symbol != "SOL/USD" || sol.Price != "$98.32" || sol.Change != "+2.23%" || sol.Trend != "up" {
		t.Fatalf("unexpected SOL row: %+v", sol)
	}
}

func TestFormatUSD(t *testing.T) {
	t.Parallel()

	tests := map[float64]string{
		42150.75:   "42,150.75",
		98.32:      "98.32",
		1000000:    "1,000,000.00",
		0.61:       "0.61",
		-1250.3:    "-1,250.30",
		825000000:  "825,000,000.00",
	}
	for in, want := range tests {
		if got := formatUSD(in); got != want {
			t.Fatalf("formatUSD(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestCandlesSubDayFailureUsesIntervalVolatility(t *testing.T) {
	t.Parallel()

	fine := &fakeFine{err: errors.New("down")}
	c := newTestClient(&fakeCoarse{}, fine)

	// 0.0005 days resolves to the 1s bucket; synthesized bars must stay
	// within the tight second-scale volatility envelope around the walk.
	res := c.Candles(context.Background(), "bitcoin", 0.0005)
	if !res.IsDegraded() {
		t.Fatalf("expected degraded, got %+v", res.Status)
	}
	for i, bar := range res.Data {
		swing := (bar.High - bar.Low) / bar.Open
		if swing > 6*secondVolatility {
			t.Fatalf("bar %d: swing %f too wide for second-scale volatility", i, swing)
		}
	}
	if len(res.Data) == 0 || res.Data[0].Timestamp >= res.Data[len(res.Data)-1].Timestamp+1 {
		t.Fatalf("expected ascending synthesized series")
	}
}
