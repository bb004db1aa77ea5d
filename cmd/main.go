package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/cooldown"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/http/api"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/http/site"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/http/swagger"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/notify"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/repository"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/scheduler"
	app "github.com/Ruutuli/Tinglebot2.0-sub010/internal/app"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/config"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/logger"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Create and start the engine with configuration options
	opts := []app.Option{
		app.WithLogger(log),
		app.WithTurnWindow(time.Duration(cfg.TurnWindowSeconds) * time.Second),
		app.WithSweepInterval(time.Duration(cfg.SweepIntervalSeconds) * time.Second),
		app.WithActivityTTL(time.Duration(cfg.ActivityTTLMinutes) * time.Minute),
		app.WithPollInterval(time.Duration(cfg.SchedulerPollMS) * time.Millisecond),
		app.WithNoticeCapacity(cfg.NoticeQueueSize),
		app.WithNoticeWorkers(cfg.NoticeWorkers),
	}

	// Durable stores share one SQLite handle; the in-memory variants are
	// the Start defaults when no storage path is configured.
	if !cfg.InMemory() {
		store, err := repository.Open(cfg.StoragePath)
		if err != nil {
			os.Stderr.WriteString("failed to open storage: " + err.Error() + "\n")
			return
		}
		opts = append(opts,
			app.WithStore(store),
			app.WithJobStore(scheduler.NewSQLStore(store.DB())),
			app.WithCounter(cooldown.NewSQLCounter(store.DB())),
		)
	}
	if cfg.WebhookURL != "" {
		opts = append(opts, app.WithChannel(notify.NewWebhookChannel(cfg.WebhookURL)))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Landing page and API docs
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	// Register business API routes with the engine dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxListLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

// updateServiceMetrics updates service-level metrics. GetStats refreshes the
// raid and job gauges as a side effect; the notice queue gauge is pulled
// from the snapshot here.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["noticeQueue"].(int); ok {
		metrics.UpdateNoticeQueueSize(queueLen)
	}
}
