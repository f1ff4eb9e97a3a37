// Package main is the entry point for the Essentia API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"essentia/internal/core/types"
	"essentia/internal/domain/costing"
	"essentia/internal/domain/currency"
	"essentia/internal/domain/documents/bottling"
	v1 "essentia/internal/infrastructure/http/v1"
	"essentia/internal/infrastructure/numerator"
	"essentia/internal/infrastructure/storage/postgres"
	"essentia/internal/infrastructure/storage/postgres/catalog_repo"
	"essentia/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting essentia server")

	// --- Database connection ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Numerator Service ---
	// Runs directly against the pool, outside business transactions.
	numeratorService := numerator.New(pool.Pool)

	// --- Currency conversion ---
	converterOpts := []currency.CachedConverterOption{
		currency.WithTTL(getEnvDuration("RATE_CACHE_TTL", time.Hour)),
	}
	if rate := getEnv("FALLBACK_EXCHANGE_RATE", ""); rate != "" {
		fallback, err := types.NewMoneyFromString(rate)
		if err != nil {
			log.Fatalw("invalid FALLBACK_EXCHANGE_RATE", "value", rate, "error", err)
		}
		converterOpts = append(converterOpts, currency.WithFallbackRate(fallback))
	}
	converter := currency.NewCachedConverter(
		catalog_repo.NewCurrencyRateSource(txManager),
		converterOpts...,
	)

	// --- Costing ---
	costingCfg := costing.DefaultConfig()
	if rate := getEnv("LABOR_HOURLY_RATE", ""); rate != "" {
		costingCfg.HourlyRate, err = types.NewMoneyFromString(rate)
		if err != nil {
			log.Fatalw("invalid LABOR_HOURLY_RATE", "value", rate, "error", err)
		}
	}
	if rate := getEnv("OVERHEAD_RATE", ""); rate != "" {
		costingCfg.OverheadRate, err = types.NewMoneyFromString(rate)
		if err != nil {
			log.Fatalw("invalid OVERHEAD_RATE", "value", rate, "error", err)
		}
	}

	engineCfg := bottling.DefaultConfig()
	engineCfg.BaseCurrency = getEnv("BASE_CURRENCY", engineCfg.BaseCurrency)
	engineCfg.DisplayCurrency = getEnv("DISPLAY_CURRENCY", engineCfg.DisplayCurrency)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:          pool,
		TxManager:     txManager,
		Logger:        log,
		Numerator:     numeratorService,
		Converter:     converter,
		CostingConfig: costingCfg,
		EngineConfig:  engineCfg,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
