// Command solesubd serves the membership ledger over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/devlongs/solesub"
	"github.com/devlongs/solesub/api"
	audithook "github.com/devlongs/solesub/audit_hook"
	"github.com/devlongs/solesub/eventbus"
	"github.com/devlongs/solesub/fee"
	gatemem "github.com/devlongs/solesub/gate/memory"
	"github.com/devlongs/solesub/gate/redisgate"
	"github.com/devlongs/solesub/store/memory"
)

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("solesubd exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config, logger *slog.Logger) error {
	ctx := context.Background()

	gate, err := buildGate(ctx, cfg)
	if err != nil {
		return err
	}

	opts := []solesub.Option{
		solesub.WithLogger(logger),
		solesub.WithFeeCollector(fee.NewVault()),
		solesub.WithGate(gate),
		solesub.WithPlan(cfg.Price, cfg.Duration),
		solesub.WithPlugin(audithook.New(audithook.RecorderFunc(logAudit(logger)), audithook.WithLogger(logger))),
	}

	if cfg.AMQPURL != "" {
		bus, err := eventbus.Dial(cfg.AMQPURL, cfg.AMQPExchange, eventbus.WithLogger(logger))
		if err != nil {
			return err
		}
		opts = append(opts, solesub.WithPlugin(bus))
		logger.Info("publishing membership events", "exchange", cfg.AMQPExchange)
	}

	ledger := solesub.New(memory.New(), opts...)
	if err := ledger.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := ledger.Stop(); err != nil {
			logger.Warn("ledger stop", "error", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(ledger, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildGate uses redis when SOLESUB_REDIS_ADDR is set so pause state and
// admins survive restarts and are shared between replicas.
func buildGate(ctx context.Context, cfg *config) (solesub.Gate, error) {
	if cfg.RedisAddr == "" {
		return gatemem.New(cfg.Admins...), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	g := redisgate.New(rdb, cfg.RedisPrefix)
	if err := g.Grant(ctx, cfg.Admins...); err != nil {
		return nil, err
	}
	return g, nil
}

func logAudit(logger *slog.Logger) func(context.Context, *audithook.AuditEvent) error {
	return func(_ context.Context, ev *audithook.AuditEvent) error {
		logger.Info("audit",
			"action", ev.Action,
			"resource", ev.Resource,
			"resource_id", ev.ResourceID,
			"outcome", ev.Outcome,
		)
		return nil
	}
}
