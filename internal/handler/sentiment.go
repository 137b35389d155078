package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSentiment godoc
// @Summary      Get aggregate market sentiment
// @Description  Returns bullish/bearish percentages, confidence, and overall trend derived from 24h price action
// @Tags         sentiment
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/sentiment [get]
func (h *Handler) GetSentiment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()

	res := h.svc.GetSentiment(ctx)
	if res.IsFailed() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Reason})
		return
	}

	c.JSON(http.StatusOK, withProvenance(gin.H{"sentiment": res.Data}, res))
}

// GetMarkets godoc
// @Summary      Get formatted live market rows
// @Description  Returns display-ready market rows (pair, price, 24h change, trend) for every tracked asset
// @Tags         markets
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/markets [get]
func (h *Handler) GetMarkets(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-markets")
	defer span.End()

	res := h.svc.GetLiveMarkets(ctx)
	if res.IsFailed() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Reason})
		return
	}

	c.JSON(http.StatusOK, withProvenance(gin.H{"markets": res.Data}, res))
}

// GetTicker godoc
// @Summary      Get latest live ticker snapshot
// @Description  Returns the last websocket ticker update per tracked pair; pairs that have not ticked since startup are omitted
// @Tags         markets
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/ticker [get]
func (h *Handler) GetTicker(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-ticker")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{"tickers": h.tickers.Snapshot()})
}
