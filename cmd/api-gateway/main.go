package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/event-settlement-platform/internal/shared/config"
	"github.com/radieske/event-settlement-platform/internal/shared/logger"
	"github.com/radieske/event-settlement-platform/internal/shared/metrics"
)

func rp(log *zap.Logger, to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, fmt.Errorf("parse upstream %q: %w", to, err)
	}
	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed", zap.String("upstream", to), zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, `{"error":"upstream unavailable"}`, http.StatusBadGateway)
	}
	return p, nil
}

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "api-gateway"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// targets
	events, err := rp(log, cfg.EventServiceURL)
	if err != nil {
		log.Fatal("event-service upstream", zap.Error(err))
	}
	bets, err := rp(log, cfg.BetServiceURL)
	if err != nil {
		log.Fatal("bet-service upstream", zap.Error(err))
	}

	mux := http.NewServeMux()

	// events (ex.: /api/events/v1/events -> event-service /v1/events)
	mux.Handle("/api/events/", http.StripPrefix("/api/events", events))

	// bets (ex.: /api/bets/bets -> bet-service /bets)
	mux.Handle("/api/bets/", http.StripPrefix("/api/bets", bets))

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, nil, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("api-gateway listening",
			zap.String("addr", srv.Addr),
			zap.String("events", cfg.EventServiceURL),
			zap.String("bets", cfg.BetServiceURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("gateway failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("api-gateway stopped")
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
