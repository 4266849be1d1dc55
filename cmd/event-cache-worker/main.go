package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/bet-service/lineprovider"
	"github.com/radieske/event-settlement-platform/internal/event-cache/consumer"
	sharedcache "github.com/radieske/event-settlement-platform/internal/shared/cache"
	"github.com/radieske/event-settlement-platform/internal/shared/config"
	"github.com/radieske/event-settlement-platform/internal/shared/kafka"
	"github.com/radieske/event-settlement-platform/internal/shared/logger"
	"github.com/radieske/event-settlement-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "event-cache-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Redis compartilhado com o bet-service
	redisClient, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	rcache := lineprovider.NewRedisCache(redisClient, cfg.EventCacheTTL)

	// Configura o consumer Kafka (consumer group event-cache-worker)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicEventChanges, "event-cache-worker")
	defer reader.Close()

	// Instancia o processor, conectando callbacks de métricas
	proc := &consumer.Processor{
		Log:           log,
		Reader:        reader,
		Cache:         rcache,
		OnConsumed:    func() { metrics.RecordCacheWorker("consumed") },
		OnInvalidated: func() { metrics.RecordCacheWorker("invalidated") },
		OnError:       func(stage string) { metrics.RecordCacheWorker("error_" + stage) },
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("event-cache-worker started", zap.String("topic", cfg.TopicEventChanges))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("event-cache-worker stopped")
}
