package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stacks-payment-gateway/config"
	httpHandler "stacks-payment-gateway/internal/adapter/http/handler"
	pgStorage "stacks-payment-gateway/internal/adapter/storage/postgres"
	redisStorage "stacks-payment-gateway/internal/adapter/storage/redis"
	"stacks-payment-gateway/internal/core/ports"
	"stacks-payment-gateway/internal/service"
	"stacks-payment-gateway/internal/worker"
	"stacks-payment-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Dur("poll_interval", cfg.Webhook.PollInterval).
		Int("max_attempts", cfg.Webhook.MaxAttempts).
		Msg("Starting webhook delivery worker")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Initialize repositories and queue
	eventRepo := pgStorage.NewEventRepo(pool)
	webhookRepo := pgStorage.NewWebhookRepo(pool)
	deliveryRepo := pgStorage.NewDeliveryRepo(pool)
	queue := redisStorage.NewDeliveryQueue(rdb)

	// Initialize services
	sigSvc := service.NewHMACSignatureService()
	executor := service.NewDeliveryService(
		deliveryRepo,
		webhookRepo,
		eventRepo,
		queue,
		sigSvc,
		service.StatusClassifier{},
		&http.Client{Timeout: cfg.Webhook.RequestTimeout},
		cfg.Webhook,
		log,
	)

	// Initialize and start the worker loop
	wrk := worker.New(queue, executor, cfg.Webhook.PollInterval, log)
	if err := wrk.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start worker")
	}
	defer wrk.Stop()

	// Operational HTTP surface: health + queue observability
	gin.SetMode(cfg.Server.Mode)
	router := httpHandler.SetupRouter(httpHandler.OpsDeps{
		Worker: wrk,
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
		},
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Ops server failed")
		}
	}()
	log.Info().Str("addr", cfg.Server.Addr()).Msg("Ops server listening")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Ops server shutdown error")
	}
}
