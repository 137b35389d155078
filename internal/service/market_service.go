package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pulseboard/internal/domain"
	"pulseboard/internal/market"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	priceCacheTTL     = 90 * time.Second
	sentimentCacheTTL = 60 * time.Second
)

// MarketClient is the data-fetch-and-fallback contract consumed by the
// service. All methods are total; provenance travels in the Result.
type MarketClient interface {
	Candles(ctx context.Context, assetID string, spanDays float64) market.Result[[]domain.Candle]
	Indicators(ctx context.Context, assetID string, spanDays float64) market.Result[domain.IndicatorSet]
	Price(ctx context.Context, assetID string) market.Result[domain.PricePoint]
	Prices(ctx context.Context) market.Result[map[string]domain.PricePoint]
	Sentiment(ctx context.Context, assetIDs []string) market.Result[domain.Sentiment]
}

// RedisClient is the cache surface used by the service.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// cachedPrice wraps a snapshot with its provenance so cache reads keep the
// degraded flag visible.
type cachedPrice struct {
	Point    domain.PricePoint `json:"point"`
	Degraded bool              `json:"degraded"`
	Reason   string            `json:"reason,omitempty"`
}

type cachedSentiment struct {
	Sentiment domain.Sentiment `json:"sentiment"`
	Degraded  bool             `json:"degraded"`
	Reason    string           `json:"reason,omitempty"`
}

// MarketService fronts the market client with a Redis snapshot cache.
type MarketService struct {
	tracer trace.Tracer
	client MarketClient
	redis  RedisClient
}

func NewMarketService(tracer trace.Tracer, client MarketClient, redisClient RedisClient) *MarketService {
	return &MarketService{
		tracer: tracer,
		client: client,
		redis:  redisClient,
	}
}

// GetPrice returns the snapshot for one asset, serving from cache when the
// entry is fresh.
func (s *MarketService) GetPrice(ctx context.Context, assetID string) market.Result[domain.PricePoint] {
	ctx, span := s.tracer.Start(ctx, "market-service.get-price")
	defer span.End()

	if s.redis != nil {
		if cached := s.getPriceCache(ctx, assetID); cached != nil {
			if cached.Degraded {
				return market.Degraded(cached.Point, cached.Reason)
			}
			return market.Ok(cached.Point)
		}
	}

	res := s.client.Price(ctx, assetID)
	if !res.IsFailed() && s.redis != nil {
		s.setPriceCache(ctx, assetID, res)
	}
	return res
}

// GetPrices returns snapshots for all supported assets, assembled from the
// per-asset cache when every entry is fresh. A single miss falls through to
// one batched upstream fetch so the snapshot stays consistent.
func (s *MarketService) GetPrices(ctx context.Context) market.Result[map[string]domain.PricePoint] {
	ctx, span := s.tracer.Start(ctx, "market-service.get-prices")
	defer span.End()

	if s.redis != nil {
		if res, ok := s.pricesFromCache(ctx); ok {
			return res
		}
	}

	res := s.client.Prices(ctx)
	s.cachePrices(ctx, res)
	return res
}

func (s *MarketService) cachePrices(ctx context.Context, res market.Result[map[string]domain.PricePoint]) {
	if s.redis == nil {
		return
	}
	for id := range res.Data {
		point := market.Result[domain.PricePoint]{
			Status: res.Status,
			Data:   res.Data[id],
			Reason: res.Reason,
		}
		s.setPriceCache(ctx, id, point)
	}
}

// GetCandles passes through to the client; candle series are not cached
// because every widget polls at its own span.
func (s *MarketService) GetCandles(ctx context.Context, assetID string, spanDays float64) market.Result[[]domain.Candle] {
	return s.client.Candles(ctx, assetID, spanDays)
}

// GetIndicators passes through to the client, uncached for the same reason
// as candles.
func (s *MarketService) GetIndicators(ctx context.Context, assetID string, spanDays float64) market.Result[domain.IndicatorSet] {
	return s.client.Indicators(ctx, assetID, spanDays)
}

// GetSentiment returns the market-wide snapshot with a short cache.
func (s *MarketService) GetSentiment(ctx context.Context) market.Result[domain.Sentiment] {
	ctx, span := s.tracer.Start(ctx, "market-service.get-sentiment")
	defer span.End()

	if s.redis != nil {
		if cached := s.getSentimentCache(ctx); cached != nil {
			if cached.Degraded {
				return market.Degraded(cached.Sentiment, cached.Reason)
			}
			return market.Ok(cached.Sentiment)
		}
	}

	res := s.client.Sentiment(ctx, nil)
	if !res.IsFailed() && s.redis != nil {
		s.setSentimentCache(ctx, res)
	}
	return res
}

// GetLiveMarkets returns formatted sidebar rows built from the same
// snapshots GetPrices serves, so warm cache entries cover both.
func (s *MarketService) GetLiveMarkets(ctx context.Context) market.Result[[]domain.MarketRow] {
	ctx, span := s.tracer.Start(ctx, "market-service.get-live-markets")
	defer span.End()

	prices := s.GetPrices(ctx)
	rows := market.Rows(prices.Data)
	if prices.IsDegraded() {
		return market.Degraded(rows, prices.Reason)
	}
	return market.Ok(rows)
}

// pricesFromCache rebuilds the batched snapshot from per-asset cache
// entries. Returns false on any miss.
func (s *MarketService) pricesFromCache(ctx context.Context) (market.Result[map[string]domain.PricePoint], bool) {
	points := make(map[string]domain.PricePoint, len(domain.SupportedAssets))
	degraded := false
	reason := ""
	for _, asset := range domain.SupportedAssets {
		cached := s.getPriceCache(ctx, asset.ID)
		if cached == nil {
			return market.Result[map[string]domain.PricePoint]{}, false
		}
		points[asset.ID] = cached.Point
		if cached.Degraded {
			degraded = true
			reason = cached.Reason
		}
	}
	if degraded {
		return market.Degraded(points, reason), true
	}
	return market.Ok(points), true
}

// RefreshPrices re-fetches and re-caches all snapshots, skipping the cache
// read so the poller always lands fresh entries.
func (s *MarketService) RefreshPrices(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "market-service.refresh-prices")
	defer span.End()

	res := s.client.Prices(ctx)
	s.cachePrices(ctx, res)
	if res.IsDegraded() {
		log.Printf("price refresh degraded: %s", res.Reason)
	} else {
		log.Printf("Refreshed prices for %d assets", len(res.Data))
	}
	return nil
}

// RefreshSentiment re-computes and re-caches the sentiment snapshot.
func (s *MarketService) RefreshSentiment(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "market-service.refresh-sentiment")
	defer span.End()

	res := s.client.Sentiment(ctx, nil)
	if s.redis != nil {
		s.setSentimentCache(ctx, res)
	}
	if res.IsDegraded() {
		log.Printf("sentiment refresh degraded: %s", res.Reason)
	}
	return nil
}

func (s *MarketService) setPriceCache(ctx context.Context, assetID string, res market.Result[domain.PricePoint]) {
	data, err := json.Marshal(cachedPrice{
		Point:    res.Data,
		Degraded: res.IsDegraded(),
		Reason:   res.Reason,
	})
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, "price:"+assetID, data, priceCacheTTL).Err(); err != nil {
		log.Printf("redis cache write error for %s: %v", assetID, err)
	}
}

func (s *MarketService) getPriceCache(ctx context.Context, assetID string) *cachedPrice {
	data, err := s.redis.Get(ctx, "price:"+assetID).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		log.Printf("redis cache read error: %v", err)
		return nil
	}
	var cached cachedPrice
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	return &cached
}

func (s *MarketService) setSentimentCache(ctx context.Context, res market.Result[domain.Sentiment]) {
	data, err := json.Marshal(cachedSentiment{
		Sentiment: res.Data,
		Degraded:  res.IsDegraded(),
		Reason:    res.Reason,
	})
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, "sentiment", data, sentimentCacheTTL).Err(); err != nil {
		log.Printf("redis cache write error for sentiment: %v", err)
	}
}

func (s *MarketService) getSentimentCache(ctx context.Context) *cachedSentiment {
	data, err := s.redis.Get(ctx, "sentiment").Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		log.Printf("redis cache read error: %v", err)
		return nil
	}
	var cached cachedSentiment
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	return &cached
}
