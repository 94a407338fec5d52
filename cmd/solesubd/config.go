package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/devlongs/solesub/types"
)

// config is read from SOLESUB_* environment variables. A .env file in the
// working directory is loaded first when present.
type config struct {
	Addr     string
	Price    types.Money
	Duration time.Duration
	Admins   []string
	LogLevel slog.Level

	RedisAddr   string
	RedisPrefix string

	AMQPURL      string
	AMQPExchange string
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func loadConfig() (*config, error) {
	cfg := &config{
		Addr:         getenvDefault("SOLESUB_ADDR", ":8080"),
		RedisAddr:    getenvDefault("SOLESUB_REDIS_ADDR", ""),
		RedisPrefix:  getenvDefault("SOLESUB_REDIS_PREFIX", "solesub:"),
		AMQPURL:      getenvDefault("SOLESUB_AMQP_URL", ""),
		AMQPExchange: getenvDefault("SOLESUB_AMQP_EXCHANGE", "solesub.events"),
	}

	rawPrice := getenvDefault("SOLESUB_PRICE", "")
	if rawPrice == "" {
		return nil, fmt.Errorf("SOLESUB_PRICE is required")
	}
	amount, err := strconv.ParseInt(rawPrice, 10, 64)
	if err != nil || amount < 0 {
		return nil, fmt.Errorf("SOLESUB_PRICE: want a non-negative integer in minor units, got %q", rawPrice)
	}
	cfg.Price = types.New(amount, getenvDefault("SOLESUB_CURRENCY", "usd"))

	rawDuration := getenvDefault("SOLESUB_DURATION", "720h")
	cfg.Duration, err = time.ParseDuration(rawDuration)
	if err != nil || cfg.Duration <= 0 {
		return nil, fmt.Errorf("SOLESUB_DURATION: want a positive duration, got %q", rawDuration)
	}

	for _, a := range strings.Split(getenvDefault("SOLESUB_ADMINS", ""), ",") {
		if a = strings.TrimSpace(a); a != "" {
			cfg.Admins = append(cfg.Admins, a)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenvDefault("SOLESUB_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("SOLESUB_LOG_LEVEL: %w", err)
	}

	return cfg, nil
}
