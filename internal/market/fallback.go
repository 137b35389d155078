package market

import (
	"math/rand"
	"sync"
	"time"

	"pulseboard/internal/domain"
)

const (
	// Multi-day fallbacks render 7 days of 4-hour bars.
	multiDayPeriod = 4 * time.Hour
	multiDayCount  = 169

	secondVolatility   = 0.0005
	minuteVolatility   = 0.001
	multiDayVolatility = 0.02
)

// fallbackBasePrice seeds the random walk per asset.
var fallbackBasePrice = map[string]float64{
	"bitcoin":  42150.75,
	"ethereum": 2245.10,
	"solana":   98.32,
	"ripple":   0.6152,
	"cardano":  0.5924,
	"dogecoin": 0.0841,
}

// fallbackPrice is the static last-known-good snapshot table, used verbatim
// when the snapshot endpoint is unavailable.
var fallbackPrice = map[string]domain.PricePoint{
	"bitcoin":  {Symbol: "BTC", CurrentPrice: 42150.75, Change24h: -1250.30, Change24hPct: -2.88, Volume24h: 18500000000, MarketCap: 825000000000},
	"ethereum": {Symbol: "ETH", CurrentPrice: 2245.10, Change24h: 31.20, Change24hPct: 1.41, Volume24h: 9400000000, MarketCap: 270000000000},
	"solana":   {Symbol: "SOL", CurrentPrice: 98.32, Change24h: 2.15, Change24hPct: 2.23, Volume24h: 1850000000, MarketCap: 43500000000},
	"ripple":   {Symbol: "XRP", CurrentPrice: 0.6152, Change24h: -0.0113, Change24hPct: -1.80, Volume24h: 1200000000, MarketCap: 33400000000},
	"cardano":  {Symbol: "ADA", CurrentPrice: 0.5924, Change24h: 0.0064, Change24hPct: 1.09, Volume24h: 420000000, MarketCap: 20900000000},
	"dogecoin": {Symbol: "DOGE", CurrentPrice: 0.0841, Change24h: 0.0009, Change24hPct: 1.08, Volume24h: 510000000, MarketCap: 12000000000},
}

// fallbackSentiment is the constant snapshot substituted when aggregation
// inputs are unavailable.
var fallbackSentiment = domain.Sentiment{
	Bullish:    78,
	Bearish:    22,
	Confidence: 85,
	Trend:      domain.TrendBullish,
}

// synthesizer produces statistically plausible substitute series when an
// upstream call fails, so the dashboard always has something to render.
// It is pure computation over an injected clock and random source.
type synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func newSynthesizer() *synthesizer {
	return &synthesizer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Candles generates count bars ending at the current period, spaced exactly
// period apart, chaining each close into the next open. The walk perturbs
// the per-asset base price by a bounded random percentage each step.
func (s *synthesizer) Candles(assetID string, period time.Duration, count int, volatility float64, withVolume bool) []domain.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := fallbackBasePrice[assetID]
	if !ok {
		price = fallbackBasePrice["solana"]
	}

	now := s.now().UnixMilli()
	periodMs := period.Milliseconds()
	start := now - int64(count-1)*periodMs

	candles := make([]domain.Candle, 0, count)
	for i := 0; i < count; i++ {
		open := price
		change := (s.rng.Float64() - 0.5) * 2 * volatility * price
		wick := s.rng.Float64() * (volatility / 2) * price
		high := open + absFloat(change) + wick
		low := open - absFloat(change) - wick
		closePrice := open + change

		c := domain.Candle{
			Timestamp: start + int64(i)*periodMs,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
		}
		if withVolume {
			c.Volume = s.rng.Float64()*1000000 + 500000
		}
		candles = append(candles, c)

		price = closePrice
	}

	return candles
}

// Price returns the static last-known-good snapshot for an asset. Repeated
// calls for the same id return identical values.
func (s *synthesizer) Price(assetID string) domain.PricePoint {
	if p, ok := fallbackPrice[assetID]; ok {
		return p
	}
	return fallbackPrice["solana"]
}

// Sentiment returns the constant fallback snapshot.
func (s *synthesizer) Sentiment() domain.Sentiment {
	return fallbackSentiment
}

// volatilityFor picks the walk step bound for a fine-provider interval.
// Second-scale bars move less per step than minute and hour bars.
func volatilityFor(interval string) float64 {
	if interval == "1s" || interval == "5s" {
		return secondVolatility
	}
	return minuteVolatility
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
