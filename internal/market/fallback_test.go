package market

import (
	"math/rand"
	"testing"
	"time"
)

func fixedSynthesizer(seed int64) *synthesizer {
	s := newSynthesizer()
	s.rng = rand.New(rand.NewSource(seed))
	s.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestSynthesizedCandlesHoldOHLCInvariants(t *testing.T) {
	t.Parallel()

	s := fixedSynthesizer(1)
	for _, tc := range []struct {
		period     time.Duration
		count      int
		volatility float64
	}{
		{time.Minute, 100, minuteVolatility},
		{5 * time.Second, 60, secondVolatility},
		{multiDayPeriod, multiDayCount, multiDayVolatility},
	} {
		candles := s.Candles("bitcoin", tc.period, tc.count, tc.volatility, false)
		if len(candles) != tc.count {
			t.Fatalf("expected %d candles, got %d", tc.count, len(candles))
		}
		for i, c := range candles {
			lo, hi := c.Open, c.Close
			if lo > hi {
				lo, hi = hi, lo
			}
			if c.Low > lo {
				t.Fatalf("bar %d: low %f above min(open, close) %f", i, c.Low, lo)
			}
			if c.High < hi {
				t.Fatalf("bar %d: high %f below max(open, close) %f", i, c.High, hi)
			}
		}
	}
}

func TestSynthesizedCandlesSpacingAndChaining(t *testing.T) {
	t.Parallel()

	s := fixedSynthesizer(7)
	period := 15 * time.Minute
	candles := s.Candles("solana", period, 24, minuteVolatility, true)

	for i := 1; i < len(candles); i++ {
		gap := candles[i].Timestamp - candles[i-1].Timestamp
		if gap != period.Milliseconds() {
			t.Fatalf("bar %d: spacing %dms, want %dms", i, gap, period.Milliseconds())
		}
		if candles[i].Open != candles[i-1].Close {
			t.Fatalf("bar %d: open %f does not chain from previous close %f",
				i, candles[i].Open, candles[i-1].Close)
		}
	}
}

func TestSynthesizedCandlesAnchorToClock(t *testing.T) {
	t.Parallel()

	s := fixedSynthesizer(3)
	now := s.now().UnixMilli()
	candles := s.Candles("bitcoin", time.Hour, 10, minuteVolatility, false)

	last := candles[len(candles)-1]
	if last.Timestamp != now {
		t.Fatalf("last bar at %d, want %d", last.Timestamp, now)
	}
	if candles[0].Timestamp != now-9*time.Hour.Milliseconds() {
		t.Fatalf("first bar at %d", candles[0].Timestamp)
	}
}

func TestSynthesizedCandlesSeedPrice(t *testing.T) {
	t.Parallel()

	s := fixedSynthesizer(11)
	candles := s.Candles("bitcoin", time.Minute, 5, minuteVolatility, false)
	if candles[0].Open != fallbackBasePrice["bitcoin"] {
		t.Fatalf("walk should start at base price, got %f", candles[0].Open)
	}

	unknown := s.Candles("no-such-coin", time.Minute, 5, minuteVolatility, false)
	if unknown[0].Open != fallbackBasePrice["solana"] {
		t.Fatalf("unknown asset should fall back to solana base, got %f", unknown[0].Open)
	}
}

func TestSynthesizedVolumePresence(t *testing.T) {
	t.Parallel()

	s := fixedSynthesizer(5)
	with := s.Candles("bitcoin", time.Minute, 10, minuteVolatility, true)
	for i, c := range with {
		if c.Volume < 500000 || c.Volume > 1500000 {
			t.Fatalf("bar %d: volume %f out of range", i, c.Volume)
		}
	}
	without := s.Candles("bitcoin", multiDayPeriod, 10, multiDayVolatility, false)
	for i, c := range without {
		if c.Volume != 0 {
			t.Fatalf("bar %d: unexpected volume %f", i, c.Volume)
		}
	}
}

func TestFallbackPriceTableIsStatic(t *testing.T) {
	t.Parallel()

	s := newSynthesizer()
	first := s.Price("bitcoin")
	second := s.Price("bitcoin")
	if first != second {
		t.Fatalf("fallback price not idempotent: %+v vs %+v", first, second)
	}
	if first.Symbol != "BTC" || first.CurrentPrice != 42150.75 {
		t.Fatalf("unexpected table entry: %+v", first)
	}
	if s.Price("no-such-coin") != fallbackPrice["solana"] {
		t.Fatal("unknown asset should return the solana entry")
	}
}

func TestFallbackSentimentConstant(t *testing.T) {
	t.Parallel()

	s := newSynthesizer()
	got := s.Sentiment()
	if got != fallbackSentiment {
		t.Fatalf("unexpected fallback sentiment: %+v", got)
	}
	if got.Bullish+got.Bearish != 100 {
		t.Fatalf("bullish+bearish must sum to 100: %+v", got)
	}
}

func TestVolatilityFor(t *testing.T) {
	t.Parallel()

	if volatilityFor("1s") != secondVolatility || volatilityFor("5s") != secondVolatility {
		t.Fatal("second intervals should use the tighter bound")
	}
	if volatilityFor("1m") != minuteVolatility || volatilityFor("1h") != minuteVolatility {
		t.Fatal("minute and hour intervals should use the wider bound")
	}
}
