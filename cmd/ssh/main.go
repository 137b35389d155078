package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"pulseboard/internal/cache"
	"pulseboard/internal/config"
	"pulseboard/internal/market"
	"pulseboard/internal/provider"
	"pulseboard/internal/service"
	"pulseboard/internal/stream"
	"pulseboard/internal/tui"
	"pulseboard/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc     = godotenv.Load
	loadConfigFunc  = config.Load
	initRedisFunc   = cache.InitRedis
	initTracerFunc  = tracing.InitTracer
	newMarketClient = func(tracer trace.Tracer, cfg *config.Config) *market.Client {
		coarse := provider.NewCoinGeckoProviderWithBaseURL(tracer, cfg.CoinGeckoBaseURL)
		fine := provider.NewBinanceProviderWithBaseURL(tracer, cfg.BinanceBaseURL)
		return market.NewClient(tracer, coarse, fine)
	}
	newStreamManagerFunc = stream.NewWithBaseURL
	newWishServerFunc    = wish.NewServer
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

// Serves the terminal dashboard over SSH. Every session gets its own
// bubbletea model; they all share one market service and one ticker stream.
func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	client := newMarketClient(tracer, cfg)
	marketService := service.NewMarketService(tracer, client, cache.Client)

	tickers := newStreamManagerFunc(cfg.BinanceWSBaseURL)
	defer tickers.Close()

	addr := fmt.Sprintf("%s:%d", cfg.SSHBind, cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			if len(cfg.SSHAuthorizedKeys) == 0 {
				return true
			}
			fingerprint := gossh.FingerprintSHA256(key)
			for _, fp := range cfg.SSHAuthorizedKeys {
				if fp == fingerprint {
					log.Printf("SSH auth accepted: fingerprint=%s", fingerprint)
					return true
				}
			}
			log.Printf("SSH auth denied: fingerprint=%s", fingerprint)
			return false
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewModel(marketService, tickers)
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)
				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	log.Println("SSH server exited")
}
