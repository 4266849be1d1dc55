package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	httpapi "github.com/radieske/event-settlement-platform/internal/event-service/http"
	"github.com/radieske/event-settlement-platform/internal/event-service/producer"
	"github.com/radieske/event-settlement-platform/internal/event-service/repo"
	"github.com/radieske/event-settlement-platform/internal/event-service/resolver"
	"github.com/radieske/event-settlement-platform/internal/event-service/service"
	"github.com/radieske/event-settlement-platform/internal/event-service/sweeper"
	"github.com/radieske/event-settlement-platform/internal/shared/config"
	"github.com/radieske/event-settlement-platform/internal/shared/db"
	skafka "github.com/radieske/event-settlement-platform/internal/shared/kafka"
	"github.com/radieske/event-settlement-platform/internal/shared/logger"
	"github.com/radieske/event-settlement-platform/internal/shared/metrics"
)

func main() {
	// carrega config
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "event-service"
	}

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	// conecta com db Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	log.Info("postgres connected")

	store := repo.NewPostgres(pg, cfg.QueryTimeout)
	if err := store.EnsureSchema(context.Background()); err != nil {
		log.Fatal("failed to ensure schema", zap.Error(err))
	}

	// writer Kafka assíncrono: publicar mudança nunca atrasa a resposta HTTP
	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicEventChanges)
	writer.Async = true
	writer.Completion = func(msgs []kafka.Message, err error) {
		if err != nil {
			log.Warn("event change publish failed", zap.Int("messages", len(msgs)), zap.Error(err))
		}
	}
	defer writer.Close()
	log.Info("kafka writer ready", zap.String("topic", cfg.TopicEventChanges))

	pub := producer.NewKafkaPublisher(writer, cfg.TopicEventChanges)
	res := resolver.New(log, store, resolver.RandomPicker{}, pub)
	svc := service.New(log, store, res, pub)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// varredura opcional de eventos vencidos
	var wg sync.WaitGroup
	sw := &sweeper.Sweeper{
		Log:      log,
		Resolver: svc,
		Interval: cfg.SweepInterval,
		Batch:    cfg.SweepBatch,
		Timeout:  cfg.QueryTimeout * 10,
	}
	sw.Start(ctx, &wg)

	// métricas e health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	}, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	})
	log.Info("metrics/health server starting", zap.String("addr", metricsSrv.Addr))

	api := &httpapi.API{Log: log, Events: svc}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("event-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	wg.Wait()
	log.Info("event-service stopped")
}
