package handler

import (
	"net/http"
	"strconv"

	"pulseboard/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultSpanDays = 7.0
	maxSpanDays     = 365.0
)

// GetPrice godoc
// @Summary      Get current price snapshot for an asset
// @Description  Returns current price, 24h change, 24h volume, and market cap
// @Tags         prices
// @Produce      json
// @Param        asset  path  string  true  "Asset id (e.g., bitcoin, solana)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/prices/{asset} [get]
func (h *Handler) GetPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price")
	defer span.End()

	asset := c.Param("asset")
	span.SetAttributes(attribute.String("asset", asset))

	if _, ok := domain.AssetByID[asset]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            "unsupported asset: " + asset,
			"supported_assets": domain.SupportedIDs(),
		})
		return
	}

	res := h.svc.GetPrice(ctx, asset)
	if res.IsFailed() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Reason})
		return
	}

	c.JSON(http.StatusOK, withProvenance(gin.H{
		"asset": asset,
		"price": res.Data,
	}, res))
}

// GetAllPrices godoc
// @Summary      Get current price snapshots for all supported assets
// @Description  Returns the latest snapshot for every tracked asset
// @Tags         prices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/prices [get]
func (h *Handler) GetAllPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-all-prices")
	defer span.End()

	res := h.svc.GetPrices(ctx)
	if res.IsFailed() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Reason})
		return
	}

	c.JSON(http.StatusOK, withProvenance(gin.H{"prices": res.Data}, res))
}

// GetCandles godoc
// @Summary      Get OHLC candles for an asset
// @Description  Returns candlestick history over a lookback span in fractional days. Spans under one day resolve to second/minute/hour granularity.
// @Tags         prices
// @Produce      json
// @Param        asset  path   string   true   "Asset id (e.g., bitcoin, solana)"
// @Param        span   query  number   false  "Lookback span in days (default 7, max 365)"  default(7)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/candles/{asset} [get]
func (h *Handler) GetCandles(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-candles")
	defer span.End()

	asset := c.Param("asset")
	span.SetAttributes(attribute.String("asset", asset))

	if _, ok := domain.AssetByID[asset]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            "unsupported asset: " + asset,
			"supported_assets": domain.SupportedIDs(),
		})
		return
	}

	spanDays := defaultSpanDays
	if s := c.Query("span"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || parsed <= 0 || parsed > maxSpanDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid span: " + s})
			return
		}
		spanDays = parsed
	}
	span.SetAttributes(attribute.Float64("span_days", spanDays))

	res := h.svc.GetCandles(ctx, asset, spanDays)
	if res.IsFailed() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Reason})
		return
	}

	c.JSON(http.StatusOK, withProvenance(gin.H{
		"asset":   asset,
		"span":    spanDays,
		"candles": res.Data,
	}, res))
}

// GetIndicators godoc
// @Summary      Get technical indicators for an asset
// @Description  Returns the latest RSI, MACD, EMA, and Bollinger band values computed over the same candle series as /api/candles
// @Tags         prices
// @Produce      json
// @Param        asset  path   string   true   "Asset id (e.g., bitcoin, solana)"
// @Param        span   query  number   false  "Lookback span in days (default 7, max 365)"  default(7)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/indicators/{asset} [get]
func (h *Handler) GetIndicators(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-indicators")
	defer span.End()

	asset := c.Param("asset")
	span.SetAttributes(attribute.String("asset", asset))

	if _, ok := domain.AssetByID[asset]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            "unsupported asset: " + asset,
			"supported_assets": domain.SupportedIDs(),
		})
		return
	}

	spanDays := defaultSpanDays
	if s := c.Query("span"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || parsed <= 0 || parsed > maxSpanDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid span: " + s})
			return
		}
		spanDays = parsed
	}

	res := h.svc.GetIndicators(ctx, asset, spanDays)
	if res.IsFailed() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Reason})
		return
	}

	c.JSON(http.StatusOK, withProvenance(gin.H{
		"asset":      asset,
		"span":       spanDays,
		"indicators": res.Data,
	}, res))
}
