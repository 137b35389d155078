package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulseboard/internal/bot"
	"pulseboard/internal/cache"
	"pulseboard/internal/config"
	"pulseboard/internal/handler"
	"pulseboard/internal/job"
	"pulseboard/internal/market"
	"pulseboard/internal/provider"
	"pulseboard/internal/proxy"
	"pulseboard/internal/service"
	"pulseboard/internal/stream"
	"pulseboard/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "pulseboard/docs"
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
	newMarketServiceFunc = service.NewMarketService
	newTickerBoardFunc   = func(cfg *config.Config) *service.TickerBoard {
		return service.NewTickerBoard(stream.NewWithBaseURL(cfg.BinanceWSBaseURL))
	}
	newSchedulerFunc       = job.NewScheduler
	startSchedulerFunc     = func(s *job.Scheduler, ctx context.Context) { go s.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newGatewayFunc         = proxy.New
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Pulseboard API
// @version         1.0
// @description     Crypto market dashboard backend: prices, candles, sentiment, and an upstream provider proxy.

// @host      localhost:8080
// @BasePath  /
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
	marketService := newMarketServiceFunc(tracer, client, cache.Client)

	// Background refresh keeps the cache warm so reads stay cheap.
	sched := newSchedulerFunc(tracer,
		job.Task{
			Key:      "refresh-prices",
			Interval: time.Duration(cfg.PricePollSecs) * time.Second,
			Run:      marketService.RefreshPrices,
		},
		job.Task{
			Key:      "refresh-sentiment",
			Interval: time.Duration(cfg.SentimentPollSecs) * time.Second,
			Run:      marketService.RefreshSentiment,
		},
	)
	startSchedulerFunc(sched, ctx)

	startTelegramBotFunc(cfg.TelegramBotToken, marketService)

	board := newTickerBoardFunc(cfg)
	defer board.Close()

	h := newHandlerFunc(tracer, marketService, board)
	gateway := newGatewayFunc(tracer)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("pulseboard"))
	r.Use(cors.Default())
	r.Use(handler.APIKeyAuth(cfg.APIKey))

	h.RegisterRoutes(r)
	gateway.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
