package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"pulseboard/internal/config"
	"pulseboard/internal/market"
	"pulseboard/internal/provider"
	"pulseboard/internal/service"
	"pulseboard/internal/stream"
	"pulseboard/internal/tui"
	"pulseboard/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	runProgramFunc = func(p *tea.Program) error {
		_, err := p.Run()
		return err
	}
)

// The dashboard talks to upstreams through the server's provider proxy, so
// one set of credentials and rate limits lives on the server.
func main() {
	gateway := flag.String("gateway", "", "base URL of the pulseboard server (default http://localhost:8080)")
	flag.Parse()

	loadEnvFunc()
	cfg := loadConfigFunc()

	base := *gateway
	if base == "" {
		base = os.Getenv("GATEWAY_URL")
	}
	if base == "" {
		base = "http://localhost:8080"
	}
	base = strings.TrimRight(base, "/")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	coarse := provider.NewCoinGeckoProviderWithBaseURL(tracer, base+"/proxy/coingecko")
	fine := provider.NewBinanceProviderWithBaseURL(tracer, base+"/proxy/binance")
	client := market.NewClient(tracer, coarse, fine)
	marketService := service.NewMarketService(tracer, client, nil)

	tickers := stream.NewWithBaseURL(cfg.BinanceWSBaseURL)
	defer tickers.Close()

	model := tui.NewModel(marketService, tickers)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if err := runProgramFunc(p); err != nil {
		log.Fatalf("dashboard exited with error: %v", err)
	}
}
