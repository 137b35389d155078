package handler

import (
	"context"

	"pulseboard/internal/domain"
	"pulseboard/internal/market"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// MarketAPI is the service surface the handlers render.
type MarketAPI interface {
	GetPrice(ctx context.Context, assetID string) market.Result[domain.PricePoint]
	GetPrices(ctx context.Context) market.Result[map[string]domain.PricePoint]
	GetCandles(ctx context.Context, assetID string, spanDays float64) market.Result[[]domain.Candle]
	GetIndicators(ctx context.Context, assetID string, spanDays float64) market.Result[domain.IndicatorSet]
	GetSentiment(ctx context.Context) market.Result[domain.Sentiment]
	GetLiveMarkets(ctx context.Context) market.Result[[]domain.MarketRow]
}

// TickerBoard serves the last live tick per pair.
type TickerBoard interface {
	Snapshot() []domain.TickerUpdate
}

type Handler struct {
	tracer  trace.Tracer
	svc     MarketAPI
	tickers TickerBoard
}

func New(tracer trace.Tracer, svc MarketAPI, tickers TickerBoard) *Handler {
	return &Handler{tracer: tracer, svc: svc, tickers: tickers}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/prices", h.GetAllPrices)
	r.GET("/api/prices/:asset", h.GetPrice)
	r.GET("/api/candles/:asset", h.GetCandles)
	r.GET("/api/indicators/:asset", h.GetIndicators)
	r.GET("/api/sentiment", h.GetSentiment)
	r.GET("/api/markets", h.GetMarkets)
	if h.tickers != nil {
		r.GET("/api/ticker", h.GetTicker)
	}
}

// withProvenance annotates a response payload with the result status so the
// rendering surface can show a degraded-data indicator.
func withProvenance[T any](payload gin.H, res market.Result[T]) gin.H {
	payload["degraded"] = res.IsDegraded()
	if res.IsDegraded() {
		payload["reason"] = res.Reason
	}
	return payload
}
