package market

import (
	"math"

	"pulseboard/internal/domain"
)

// aggregateSentiment derives a market-wide sentiment snapshot from per-asset
// price points. Each asset is bullish when its 24h change is positive,
// bearish otherwise; the signed changes are volume-weighted into one scalar
// driving confidence.
func aggregateSentiment(points map[string]*domain.PricePoint, assetCount int) domain.Sentiment {
	if assetCount == 0 {
		return fallbackSentiment
	}

	bullishCount := 0
	totalVolume := 0.0
	weighted := 0.0

	for _, p := range points {
		if p.Change24hPct > 0 {
			bullishCount++
		}
		totalVolume += p.Volume24h
		weighted += p.Change24hPct * p.Volume24h
	}

	signal := 0.0
	if totalVolume > 0 {
		signal = weighted / totalVolume
	}

	bullishPct := float64(bullishCount) / float64(assetCount) * 100
	confidence := clamp(60, 95, 70+math.Abs(signal)*10)

	trend := domain.TrendNeutral
	if bullishPct > 60 {
		trend = domain.TrendBullish
	} else if bullishPct < 40 {
		trend = domain.TrendBearish
	}

	bullish := int(math.Round(bullishPct))
	return domain.Sentiment{
		Bullish:    bullish,
		Bearish:    100 - bullish,
		Confidence: int(math.Round(confidence)),
		Trend:      trend,
	}
}

func clamp(lo, hi, v float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
