// Command mimicgate runs the learning reverse proxy: it sits in front of a
// target service, learns each endpoint's request/response schema and
// behavior, and can answer from its own synthesized mocks once it has
// learned enough to do so convincingly.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mimicgate/mimicgate/internal/adminapi"
	"github.com/mimicgate/mimicgate/internal/behavior"
	"github.com/mimicgate/mimicgate/internal/broadcast"
	"github.com/mimicgate/mimicgate/internal/buffer"
	"github.com/mimicgate/mimicgate/internal/config"
	"github.com/mimicgate/mimicgate/internal/dispatch"
	"github.com/mimicgate/mimicgate/internal/domain"
	"github.com/mimicgate/mimicgate/internal/generate"
	"github.com/mimicgate/mimicgate/internal/health"
	"github.com/mimicgate/mimicgate/internal/storage"
	"github.com/mimicgate/mimicgate/internal/telemetry"
)

// shutdownGrace bounds how long the learning buffer gets to drain on exit.
const shutdownGrace = 5 * time.Second

// learningBufferCapacity is the Learning Buffer's capacity in transactions.
const learningBufferCapacity = 4096

func main() {
	// Exit codes follow the documented boot-failure contract: 1 for a
	// configuration error, 2 for a fatal storage error, both raised before
	// the HTTP listener ever starts.
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(telemetry.DefaultLogConfig())
	if err != nil {
		log.Printf("logging: %v", err)
		os.Exit(1)
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewPostgresStore(appCtx, cfg.DBPath)
	if err != nil {
		logger.Error("storage: failed to connect", zap.Error(err))
		os.Exit(2)
	}
	defer store.Close()

	behaviorStore := behavior.New()
	if err := rehydrate(appCtx, store, behaviorStore, logger); err != nil {
		logger.Warn("storage: failed to rehydrate behavior store", zap.Error(err))
	}

	healthMon := health.New(health.DefaultWindowSize)
	hub := broadcast.NewHub(logger)

	chaos := dispatch.NewChaosRegistry()
	mode := dispatch.NewModeRegistry(cfg.Mode)
	forwarder := dispatch.NewForwarder(cfg.TargetURL, metrics)
	generator := generate.New()

	queue := buffer.New(learningBufferCapacity)
	drift := &driftSink{store: store, health: healthMon, logger: logger}
	consolidator := buffer.NewConsolidator(queue, behaviorStore, behaviorStore, healthMon, drift, hub, logger)
	consolidator.Metrics = metrics
	consolidator.Persister = store
	consolidator.Start()

	core := &dispatch.Core{
		Store:           behaviorStore,
		Generator:       generator,
		Forwarder:       forwarder,
		Chaos:           chaos,
		Mode:            mode,
		Queue:           queue,
		Logger:          logger,
		Metrics:         metrics,
		FailoverEnabled: cfg.Failover,
	}

	admin := adminapi.NewServer(
		logger,
		adminapi.NewStreamHandler(hub, logger),
		adminapi.NewEndpointsHandler(behaviorStore),
		adminapi.NewModeHandler(mode),
		adminapi.NewChaosHandler(chaos),
		adminapi.NewDriftAlertsHandler(store),
		adminapi.NewHealthHandler(healthMon),
	)

	router := admin.Router()
	router.NotFound(core.ServeHTTP)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: dispatch.TracingMiddleware(router),
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(":9090", mux); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server exited", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("mimicgate started", zap.String("addr", cfg.ListenAddr), zap.String("mode", string(cfg.Mode)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("mimicgate stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	drained := make(chan struct{})
	go func() {
		consolidator.Stop()
		close(drained)
	}()

	select {
	case <-drained:
		logger.Info("learning buffer drained")
	case <-shutdownCtx.Done():
		logger.Warn("learning buffer drain timed out, exiting anyway")
	}

	logger.Info("mimicgate exited")
}

// rehydrate loads every persisted endpoint back into the in-memory behavior
// store so mock mode can answer from learned schemas immediately after a
// restart, rather than needing to relearn from scratch.
func rehydrate(ctx context.Context, store storage.Store, behaviorStore *behavior.Store, logger *zap.Logger) error {
	endpoints, err := store.ListEndpoints(ctx)
	if err != nil {
		return err
	}
	for _, e := range endpoints {
		behaviorStore.Restore(e)
	}
	logger.Info("rehydrated endpoints from storage", zap.Int("count", len(endpoints)))
	return nil
}

// driftSink persists newly detected drift alerts and marks the affected
// endpoint's health as drift-active until the alert is resolved through the
// admin API.
type driftSink struct {
	store  storage.Store
	health *health.Monitor
	logger *zap.Logger
}

func (d *driftSink) OnDrift(endpointKey string, alert domain.DriftAlert) {
	if err := d.store.SaveDriftAlert(context.Background(), &alert); err != nil {
		d.logger.Error("failed to persist drift alert", zap.String("endpoint", endpointKey), zap.Error(err))
	}
	d.health.SetDriftActive(endpointKey, true)
}
