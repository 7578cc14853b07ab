package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	Port     string
	LogLevel string

	JWTSecret string

	CartBaseURL        string
	CatalogBaseURL     string
	RemoteTimeout      time.Duration
	PricingConcurrency int

	StoreDriver string
	SQLitePath  string
	DatabaseURL string
	SagaLogPath string

	RedisAddr      string
	IdempotencyTTL time.Duration

	KafkaBrokers string
	KafkaTopic   string

	ServiceName  string
	OTLPEndpoint string
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(lookup func(string) string) (Config, error) {
	getEnv := func(key, fallback string) string {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CartBaseURL:    strings.TrimRight(getEnv("CART_BASE_URL", "http://localhost:3002"), "/"),
		CatalogBaseURL: strings.TrimRight(getEnv("CATALOG_BASE_URL", "http://localhost:3001"), "/"),
		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/orders.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SagaLogPath:    getEnv("SAGA_LOG_PATH", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		KafkaBrokers:   getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "order-events"),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "order-service"),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	var err error
	if cfg.RemoteTimeout, err = time.ParseDuration(getEnv("REMOTE_TIMEOUT", "5s")); err != nil {
		return Config{}, fmt.Errorf("config: REMOTE_TIMEOUT: %w", err)
	}
	if cfg.IdempotencyTTL, err = time.ParseDuration(getEnv("IDEMPOTENCY_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("config: IDEMPOTENCY_TTL: %w", err)
	}
	if cfg.PricingConcurrency, err = strconv.Atoi(getEnv("PRICING_CONCURRENCY", "10")); err != nil {
		return Config{}, fmt.Errorf("config: PRICING_CONCURRENCY: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.RemoteTimeout <= 0 {
		return errors.New("config: REMOTE_TIMEOUT must be positive")
	}
	if c.PricingConcurrency < 1 {
		return errors.New("config: PRICING_CONCURRENCY must be at least 1")
	}
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}
