package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/basicrules/pkg/config"
	"mercator-hq/basicrules/pkg/ruleset"
	"mercator-hq/basicrules/pkg/telemetry/health"
	"mercator-hq/basicrules/pkg/telemetry/metrics"
	"mercator-hq/basicrules/pkg/telemetry/tracing"
)

// observability bundles the metrics collector, tracer and health checker
// shared by the long-running commands.
type observability struct {
	collector *metrics.Collector
	tracer    *tracing.Tracer
	checker   *health.Checker
}

func newObservability(cfg *config.Config) (*observability, error) {
	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, err
	}
	return &observability{
		collector: metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry()),
		tracer:    tracer,
		checker:   health.New(0),
	}, nil
}

// engineOptions wires metrics and tracing into the engine.
func (o *observability) engineOptions() []ruleset.Option {
	return []ruleset.Option{
		ruleset.WithMetrics(o.collector),
		ruleset.WithTracer(o.tracer.Tracer()),
	}
}

func (o *observability) versionInfo() health.VersionInfo {
	return currentBuild().VersionInfo
}

func (o *observability) shutdown(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.tracer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down tracer", "error", err)
	}
}

// serveTelemetry serves metrics and health endpoints on the metrics
// address until ctx is done.
func (o *observability) serveTelemetry(ctx context.Context, cfg *config.MetricsConfig, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, o.collector.Handler())
	v := o.versionInfo()
	health.Mount(mux, o.checker, v)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting telemetry server", "address", cfg.Address, "metrics_path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("telemetry server failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// startWatcher reloads engine on rule file changes until ctx is done.
func startWatcher(ctx context.Context, cfg *config.Config, engine *ruleset.Engine, logger *slog.Logger) (*ruleset.FileWatcher, error) {
	watcher, err := ruleset.NewFileWatcher(ruleset.FileWatcherConfigFrom(cfg.Rules), logger)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := engine.Watch(ctx, watcher); err != nil {
			logger.Error("rule watcher stopped", "error", err)
		}
	}()
	return watcher, nil
}
