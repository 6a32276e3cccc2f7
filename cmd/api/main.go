package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hookd/internal/api"
	"hookd/internal/config"
	"hookd/internal/logger"
	"hookd/internal/metrics"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	metrics.RegisterDefault()

	srv := api.NewServer(cfg, logg)

	// Canceled on SIGINT/SIGTERM; background fan-outs stop at their next
	// suspension point.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	srv.BaseCtx = ctx

	mux := http.NewServeMux()

	// Webhooks
	mux.HandleFunc("/v1/webhooks", srv.WebhooksHandler)
	mux.HandleFunc("/v1/webhooks/", srv.WebhookByIDHandler) // includes /deliveries

	// Deliveries
	mux.HandleFunc("/v1/deliveries", srv.DeliveriesHandler)
	mux.HandleFunc("/v1/deliveries/", srv.DeliveryByIDHandler)

	// Events
	mux.HandleFunc("/v1/events/test", srv.EventsTestHandler)
	mux.HandleFunc("/v1/events/ws", srv.EventsWSHandler)

	// Health
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)

	// Ops
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debugz", srv.DebugHandler)

	// Docs
	mux.HandleFunc("/openapi.yaml", srv.OpenAPIHandler)
	mux.HandleFunc("/openapi.json", srv.OpenAPIJSONHandler)
	mux.HandleFunc("/docs", srv.DocsHandler)

	handler := api.Observe(api.RateLimit(mux, cfg.RateRPS, cfg.RateBurst), logg)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logg.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shCtx)
	}()

	logg.Info("api listening", zap.String("addr", cfg.Addr))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatal("server error", zap.Error(err))
	}
}
