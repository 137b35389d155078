package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             string
	RedisURL         string
	TelegramBotToken string
	APIKey           string

	CoinGeckoBaseURL string
	BinanceBaseURL   string
	BinanceWSBaseURL string

	PricePollSecs     int
	SentimentPollSecs int

	SSHBind           string
	SSHPort           int
	SSHHostKeyPath    string
	SSHAuthorizedKeys []string
}

func Load() *Config {
	cfg := &Config{
		Port:             os.Getenv("PORT"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIKey:           strings.TrimSpace(os.Getenv("API_KEY")),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	cfg.CoinGeckoBaseURL = strings.TrimSpace(os.Getenv("COINGECKO_BASE_URL"))
	if cfg.CoinGeckoBaseURL == "" {
		cfg.CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	}
	cfg.BinanceBaseURL = strings.TrimSpace(os.Getenv("BINANCE_BASE_URL"))
	if cfg.BinanceBaseURL == "" {
		cfg.BinanceBaseURL = "https://api.binance.com/api/v3"
	}
	cfg.BinanceWSBaseURL = strings.TrimSpace(os.Getenv("BINANCE_WS_BASE_URL"))
	if cfg.BinanceWSBaseURL == "" {
		cfg.BinanceWSBaseURL = "wss://stream.binance.com:9443/ws"
	}

	cfg.PricePollSecs = 60
	if v := os.Getenv("PRICE_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PricePollSecs = n
		}
	}

	cfg.SentimentPollSecs = 300
	if v := os.Getenv("SENTIMENT_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SentimentPollSecs = n
		}
	}

	cfg.SSHBind = strings.TrimSpace(os.Getenv("SSH_BIND"))
	if cfg.SSHBind == "" {
		cfg.SSHBind = "0.0.0.0"
	}

	cfg.SSHPort = 23234
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/pulseboard_ed25519"
	}

	// Comma-separated SHA256 fingerprints. Empty means open access.
	if v := strings.TrimSpace(os.Getenv("SSH_AUTHORIZED_FINGERPRINTS")); v != "" {
		for _, fp := range strings.Split(v, ",") {
			if fp = strings.TrimSpace(fp); fp != "" {
				cfg.SSHAuthorizedKeys = append(cfg.SSHAuthorizedKeys, fp)
			}
		}
	}

	return cfg
}
