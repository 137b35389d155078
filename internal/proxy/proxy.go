package proxy

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	coingeckoBaseURL = "https://api.coingecko.com/api/v3"
	binanceBaseURL   = "https://api.binance.com/api/v3"
)

// Upstream describes one relayed provider.
type Upstream struct {
	Name    string
	BaseURL string
}

// Gateway is a stateless same-origin relay in front of the public market-data
// providers. It forwards GET requests verbatim, validates the upstream
// response, and either relays the JSON body or produces a structured error.
type Gateway struct {
	client    *http.Client
	tracer    trace.Tracer
	coingecko Upstream
	binance   Upstream
}

// New creates a gateway against the public CoinGecko and Binance APIs.
func New(tracer trace.Tracer) *Gateway {
	return &Gateway{
		client:    &http.Client{Timeout: 30 * time.Second},
		tracer:    tracer,
		coingecko: Upstream{Name: "CoinGecko", BaseURL: coingeckoBaseURL},
		binance:   Upstream{Name: "Binance", BaseURL: binanceBaseURL},
	}
}

// NewWithUpstreams creates a gateway with injected upstreams and client,
// used by tests and by deployments that front mirrors.
func NewWithUpstreams(tracer trace.Tracer, client *http.Client, coingecko, binance Upstream) *Gateway {
	return &Gateway{
		client:    client,
		tracer:    tracer,
		coingecko: coingecko,
		binance:   binance,
	}
}

// RegisterRoutes mounts the two relay route groups.
func (g *Gateway) RegisterRoutes(r *gin.Engine) {
	r.GET("/proxy/coingecko/*path", g.relay(g.coingecko))
	r.GET("/proxy/binance/*path", g.relay(g.binance))
}

// relay forwards the request path and query string to the upstream and
// applies the validation policy in order: network failure, non-2xx status,
// non-JSON content type, then verbatim JSON passthrough.
func (g *Gateway) relay(up Upstream) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := g.tracer.Start(c.Request.Context(), "proxy.relay")
		defer span.End()
		span.SetAttributes(attribute.String("upstream", up.Name))

		url := strings.TrimRight(up.BaseURL, "/") + c.Param("path")
		if raw := c.Request.URL.RawQuery; raw != "" {
			url += "?" + raw
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   up.Name + " proxy request error",
				"details": err.Error(),
			})
			return
		}
		req.Header.Set("Accept", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			log.Printf("%s proxy error: %v", up.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to fetch from " + up.Name,
				"details": err.Error(),
			})
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			log.Printf("%s proxy read error: %v", up.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to read " + up.Name + " response",
				"details": err.Error(),
			})
			return
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			status := resp.StatusCode
			if status == 0 {
				status = http.StatusInternalServerError
			}
			log.Printf("%s proxy upstream status %d: %s", up.Name, resp.StatusCode, string(body))
			c.JSON(status, gin.H{
				"error":   up.Name + " API error: " + resp.Status,
				"details": errorDetails(body),
			})
			return
		}

		if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
			log.Printf("%s proxy non-JSON content type %q", up.Name, ct)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   up.Name + " returned non-JSON content",
				"details": string(body),
			})
			return
		}

		var payload interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			log.Printf("%s proxy decode error: %v", up.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   up.Name + " returned non-JSON content",
				"details": string(body),
			})
			return
		}

		c.JSON(http.StatusOK, payload)
	}
}

// errorDetails best-effort decodes an upstream error body so structured
// provider errors stay structured in the relayed envelope.
func errorDetails(body []byte) interface{} {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err == nil {
		return decoded
	}
	return string(body)
}
