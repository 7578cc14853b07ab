package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jcmexdev/ecommerce-orders/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/adapters/events"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/adapters/remote"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/adapters/store/memory"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/adapters/store/postgres"
	sqlitestore "github.com/jcmexdev/ecommerce-orders/internal/order-service/adapters/store/sqlite"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/app"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/config"
	"github.com/jcmexdev/ecommerce-orders/internal/order-service/infra/httpx"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/auth"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/metrics"
	"github.com/jcmexdev/ecommerce-orders/internal/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("order service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		telemetry.InitLogger("info")
		return err
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("initialise tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewServerMetrics(reg, cfg.ServiceName)

	opts := []app.Option{
		app.WithMetrics(m),
		app.WithPricingConcurrency(cfg.PricingConcurrency),
		app.WithClaimTTL(4 * cfg.RemoteTimeout),
	}

	if cfg.RedisAddr != "" {
		opts = append(opts, app.WithIdempotency(cache.NewRedisCache(cfg.RedisAddr, cfg.ServiceName), cfg.IdempotencyTTL))
		slog.Info("idempotency keys stored in redis", "addr", cfg.RedisAddr)
	} else {
		opts = append(opts, app.WithIdempotency(cache.NewMemory(cfg.ServiceName), cfg.IdempotencyTTL))
	}

	if cfg.KafkaBrokers != "" {
		publisher := events.NewKafkaPublisher(events.ParseBrokers(cfg.KafkaBrokers), cfg.KafkaTopic)
		defer publisher.Close()
		opts = append(opts, app.WithEvents(publisher))
		slog.Info("publishing order events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		opts = append(opts, app.WithEvents(events.Noop{}))
	}

	if cfg.SagaLogPath != "" {
		if err := ensureDir(cfg.SagaLogPath); err != nil {
			return err
		}
		sagaLog, err := sqlite.Open(cfg.SagaLogPath)
		if err != nil {
			return fmt.Errorf("open saga log: %w", err)
		}
		defer sagaLog.Close()
		opts = append(opts, app.WithSagaLog(sagaLog))
	}

	httpClient := remote.NewHTTPClient(cfg.RemoteTimeout)
	svc := app.NewService(
		remote.NewCartClient(cfg.CartBaseURL, httpClient),
		remote.NewCatalogClient(cfg.CatalogBaseURL, httpClient),
		store,
		opts...,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpx.NewRouter(httpx.NewHandler(svc), auth.NewVerifier(cfg.JWTSecret), m),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("order service HTTP running", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down order service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (app.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, s.Close, nil
	case config.StoreSQLite:
		if err := ensureDir(cfg.SQLitePath); err != nil {
			return nil, nil, err
		}
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		slog.Warn("using in-memory order store, orders are lost on restart")
		return memory.NewStore(), func() {}, nil
	}
}

func ensureDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
