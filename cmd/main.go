/**
 * @description
 * This is the main entry point for the sync service. It wires together the
 * configuration, PostgreSQL document store, Redis pacer, RabbitMQ producer
 * and consumer, the aggregator and alert clients, the cron scheduler, and a
 * small HTTP server exposing health and metrics endpoints.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/prometheus/client_golang: Metrics endpoint.
 * - github.com/redis/go-redis/v9: Balance-call pacing.
 * - internal and pkg packages of the service.
 */

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/goldstone/sync-service/internal/app"
	"github.com/goldstone/sync-service/internal/config"
	"github.com/goldstone/sync-service/internal/metrics"
	"github.com/goldstone/sync-service/internal/store"
	"github.com/goldstone/sync-service/pkg/emailclient"
	"github.com/goldstone/sync-service/pkg/plaidclient"
	"github.com/goldstone/sync-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load a local .env when present; production relies on real env vars.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	docs := store.NewPostgresStore(dbpool)
	transactions := store.NewTransactionClient(docs)
	accounts := store.NewAccountClient(docs)
	credentials := store.NewCredentialClient(docs)
	tenants := store.NewTenantClient(docs)
	catalogs := store.NewCatalogClient(docs)

	var redisClient redis.UniversalClient
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, balance pacing disabled", "error", err)
		} else {
			redisClient = client
			defer client.Close()
		}
	}
	pacer := app.NewRedisPacer(redisClient, "sync:balance_pacer", cfg.BalanceCallSpacing)

	aggregator := plaidclient.NewClient(cfg.PlaidBaseURL, cfg.PlaidClientID, cfg.PlaidSecret)
	notifier := emailclient.NewClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.AlertFromAddress, cfg.AlertToAddress)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	syncer := app.NewSyncer(transactions, accounts, credentials, tenants, catalogs, aggregator, notifier, pacer, m, logger, cfg)

	producer, err := rabbitmq.NewProducer(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("failed to connect rabbitmq producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("failed to connect rabbitmq consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	err = consumer.ConsumeWithBindings(app.SyncExchange, app.SyncQueue, map[string]func([]byte) bool{
		app.TransactionSyncKey: syncer.HandleSyncMessage,
	})
	if err != nil {
		logger.Error("failed to start consuming", "error", err)
		os.Exit(1)
	}
	logger.Info("consuming sync work items", "queue", app.SyncQueue)

	scheduler := app.NewScheduler(syncer, producer, logger, cfg)
	scheduler.Start()
	logger.Info("scheduler started")

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbpool.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped gracefully")
}
