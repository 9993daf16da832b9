package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/aggregation"
	"github.com/fraghub/metrics-api/internal/cache"
	"github.com/fraghub/metrics-api/internal/config"
	"github.com/fraghub/metrics-api/internal/handlers"
	"github.com/fraghub/metrics-api/internal/metrics"
	"github.com/fraghub/metrics-api/internal/roles"
	"github.com/fraghub/metrics-api/internal/source"
	"github.com/fraghub/metrics-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ClickHouse
	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		sugar.Fatalw("Failed to parse ClickHouse DSN", "error", err)
	}
	ch, err := clickhouse.Open(chOpts)
	if err != nil {
		sugar.Fatalw("Failed to connect to ClickHouse", "error", err)
	}
	defer ch.Close()

	// Postgres
	pg, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("Failed to connect to Postgres", "error", err)
	}
	defer pg.Close()

	// Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalw("Failed to parse Redis URL", "error", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	calculator := metrics.NewCalculator(metrics.DefaultConfig(), logger)
	store := source.NewStore(ch, calculator, logger)
	peerStore := source.NewPeerStore(pg, logger)
	profileCache := cache.NewProfileCache(rdb, cfg.ProfileTTL, logger)

	aggCfg := aggregation.DefaultConfig()
	service := aggregation.NewService(
		aggregation.NewPlayerAggregator(aggCfg, roles.NewClassifier(roles.DefaultConfig())),
		aggregation.NewTeamAggregator(aggCfg),
		store,
		peerStore,
		profileCache,
		logger,
	)

	pool := worker.NewPool(worker.PoolConfig{
		Concurrency:  cfg.WorkerCount,
		QueueSize:    cfg.QueueSize,
		StallTimeout: cfg.StallTimeout,
		MaxStalled:   cfg.MaxStalled,
		Service:      service,
		Logger:       logger,
	})
	pool.Start(ctx)

	h := handlers.New(handlers.Config{
		Aggregation:    service,
		Jobs:           pool,
		Postgres:       pg,
		ClickHouse:     ch,
		Redis:          rdb,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("Metrics API listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Server shutdown failed", "error", err)
	}
	pool.Stop()
	sugar.Info("Shutdown complete")
}
