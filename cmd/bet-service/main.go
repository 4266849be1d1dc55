package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	bhttp "github.com/radieske/event-settlement-platform/internal/bet-service/http"
	"github.com/radieske/event-settlement-platform/internal/bet-service/lineprovider"
	kpub "github.com/radieske/event-settlement-platform/internal/bet-service/producer"
	"github.com/radieske/event-settlement-platform/internal/bet-service/repo"
	"github.com/radieske/event-settlement-platform/internal/bet-service/service"
	"github.com/radieske/event-settlement-platform/internal/bet-service/settlement"
	"github.com/radieske/event-settlement-platform/internal/shared/cache"
	"github.com/radieske/event-settlement-platform/internal/shared/config"
	"github.com/radieske/event-settlement-platform/internal/shared/db"
	skafka "github.com/radieske/event-settlement-platform/internal/shared/kafka"
	"github.com/radieske/event-settlement-platform/internal/shared/logger"
	"github.com/radieske/event-settlement-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "bet-service"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	store := repo.NewPostgres(pg, cfg.QueryTimeout)
	if err := store.EnsureSchema(context.Background()); err != nil {
		log.Fatal("failed to ensure schema", zap.Error(err))
	}

	// Redis: cache de eventos terminais
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_placed)
	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	writer.Async = true
	writer.Completion = func(msgs []kafka.Message, err error) {
		if err != nil {
			log.Warn("bet_placed publish failed", zap.Int("messages", len(msgs)), zap.Error(err))
		}
	}
	defer writer.Close()

	// deps
	client := lineprovider.New(log, cfg.LineProviderURL, lineprovider.Options{
		Timeout: cfg.LineProviderTimeout,
		Retries: cfg.LineProviderRetries,
		Backoff: cfg.LineProviderBackoff,
		Cache:   lineprovider.NewRedisCache(rdb, cfg.EventCacheTTL),
	})
	reconciler := settlement.New(log, client, 0)
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicBetPlaced)
	svc := service.New(log, store, client, reconciler, publ)

	// HTTP público
	api := bhttp.NewServer(log, svc)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	})
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("bet-service listening",
			zap.String("addr", apiSrv.Addr),
			zap.String("line_provider", cfg.LineProviderURL),
		)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("bet-service stopped")
}
