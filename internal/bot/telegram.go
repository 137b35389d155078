package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"pulseboard/internal/domain"
	"pulseboard/internal/service"

	tele "gopkg.in/telebot.v3"
)

func StartTelegramBot(token string, marketService *service.MarketService) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price BTC\nSupported: %s", strings.Join(domain.SupportedSymbols(), ", ")))
		}
		symbol := strings.ToUpper(args[0])
		asset, ok := domain.AssetBySymbol[symbol]
		if !ok {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols(), ", ")))
		}
		res := marketService.GetPrice(context.Background(), asset.ID)
		if res.IsFailed() {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %s", symbol, res.Reason))
		}
		p := res.Data
		msg := fmt.Sprintf(
			"%s\nPrice: $%.2f\n24h Change: %.2f%%\n24h Volume: $%.0f",
			symbol, p.CurrentPrice, p.Change24hPct, p.Volume24h,
		)
		if res.IsDegraded() {
			msg += "\n(estimated: live data unavailable)"
		}
		return c.Send(msg)
	})

	b.Handle("/sentiment", func(c tele.Context) error {
		res := marketService.GetSentiment(context.Background())
		if res.IsFailed() {
			return c.Send(fmt.Sprintf("Error fetching sentiment: %s", res.Reason))
		}
		s := res.Data
		msg := fmt.Sprintf(
			"Market Sentiment: %s\nBullish: %d%%\nBearish: %d%%\nConfidence: %d%%",
			s.Trend, s.Bullish, s.Bearish, s.Confidence,
		)
		if res.IsDegraded() {
			msg += "\n(estimated: live data unavailable)"
		}
		return c.Send(msg)
	})

	b.Handle("/markets", func(c tele.Context) error {
		res := marketService.GetLiveMarkets(context.Background())
		if res.IsFailed() {
			return c.Send(fmt.Sprintf("Error fetching markets: %s", res.Reason))
		}
		var sb strings.Builder
		for _, row := range res.Data {
			fmt.Fprintf(&sb, "%s  %s  %s\n", row.Symbol, row.Price, row.Change)
		}
		return c.Send(sb.String())
	})

	log.Println("Telegram bot started")
	go b.Start()
}
