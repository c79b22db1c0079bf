package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ha-host-bridge/config"
	"ha-host-bridge/internal/bridge"
	"ha-host-bridge/internal/broker"
	"ha-host-bridge/internal/catalog"
	"ha-host-bridge/internal/executor"
	"ha-host-bridge/internal/logger"
	"ha-host-bridge/internal/metrics"
	"ha-host-bridge/internal/stats"
)

func main() {
	// Command line flags for config and catalog
	configPath := flag.String("config", "", "path to optional JSON config file")
	catalogOverride := flag.String("catalog", "", "override catalog file or directory (empty = use config)")

	// Optional override flags
	metricsAddrOverride := flag.String("metrics-addr", "", "override metrics server address (empty = use config)")
	reconnectDelayOverride := flag.Duration("reconnect-delay", 0, "override broker reconnect delay (0 = use config)")

	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Apply any command line overrides
	cfg.ApplyOverrides(*catalogOverride, *metricsAddrOverride, *reconnectDelayOverride)

	// Initialize logger
	logger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()

	statsCollector := stats.NewStatsCollector()

	// Setup metrics if enabled
	var metricsService *metrics.Metrics
	var metricsCollector *metrics.MetricsCollector
	var metricsServer *http.Server

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metricsService, err = metrics.NewMetrics(reg)
		if err != nil {
			logger.Fatal("failed to create metrics service", "error", err)
		}

		updateInterval, err := time.ParseDuration(cfg.Metrics.UpdateInterval)
		if err != nil {
			logger.Fatal("invalid metrics update interval", "error", err)
		}

		metricsCollector = metrics.NewMetricsCollector(metricsService, statsCollector, updateInterval)
		metricsCollector.Start()
		defer metricsCollector.Stop()

		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			Registry:          reg,
			EnableOpenMetrics: true,
		}))

		metricsServer = &http.Server{
			Addr:    cfg.Metrics.Address,
			Handler: mux,
		}

		go func() {
			logger.Info("starting metrics server",
				"address", cfg.Metrics.Address,
				"path", cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Load the entity catalog
	cat, err := catalog.NewLoader(logger).Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to load catalog", "error", err)
	}

	// Setup signal handlers
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	provider := broker.NewProvider(logger,
		broker.WithMetrics(metricsService),
		broker.WithStats(statsCollector))

	conn, err := provider.Acquire(cfg)
	if err != nil {
		logger.Fatal("failed to acquire broker connection", "error", err)
	}

	exec := executor.WithInstrumentation(executor.NewShellExecutor(logger), metricsService, statsCollector)

	if _, err := bridge.New(conn, cat, exec, logger); err != nil {
		provider.Close()
		logger.Fatal("failed to start bridge", "error", err)
	}

	logger.Info("ha-host-bridge started",
		"instance", conn.InstanceName(),
		"transport", cfg.Transport,
		"catalog", cfg.Catalog.Path,
		"metricsEnabled", cfg.Metrics.Enabled)

	// Handle signals
	for {
		sig := <-sigChan
		switch sig {
		case syscall.SIGHUP:
			logger.Info("received SIGHUP, flushing logs")
			logger.Sync()
		case syscall.SIGINT, syscall.SIGTERM:
			logger.Info("shutting down...", "signal", sig.String())

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if metricsServer != nil {
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					logger.Error("failed to shutdown metrics server", "error", err)
				}
			}

			provider.Close()

			if summary, err := statsCollector.GetStatsJSON(); err == nil {
				logger.Info("final stats", "stats", string(summary))
			}
			return
		}
	}
}
