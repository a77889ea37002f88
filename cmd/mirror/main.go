package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	ecccadapter "github.com/couchcryptid/climate-mirror/internal/adapter/eccc"
	httpadapter "github.com/couchcryptid/climate-mirror/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-mirror/internal/adapter/kafka"
	"github.com/couchcryptid/climate-mirror/internal/adapter/xzfile"
	"github.com/couchcryptid/climate-mirror/internal/config"
	"github.com/couchcryptid/climate-mirror/internal/inventory"
	"github.com/couchcryptid/climate-mirror/internal/mirror"
	"github.com/couchcryptid/climate-mirror/internal/observability"
	"github.com/couchcryptid/climate-mirror/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	force := flag.Bool("force", false, "refresh every unit regardless of age")
	inventoryPath := flag.String("inventory", "", "override the station inventory path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *force {
		cfg.Force = true
	}
	if *inventoryPath != "" {
		cfg.InventoryPath = *inventoryPath
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		logger.Error("failed to open staleness store", "path", cfg.StorePath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	sink := xzfile.NewWriter(cfg.DataDir)
	newFetcher := func() mirror.Fetcher {
		return ecccadapter.NewClient(cfg.BaseURL, cfg.RequestTimeout)
	}

	// Provenance announcements are feature-flagged via KAFKA_TOPIC.
	var announcer mirror.Announcer
	if cfg.AnnounceEnabled() {
		a := kafkaadapter.NewAnnouncer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer a.Close()
		announcer = a
		logger.Info("provenance announcements enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("provenance announcements disabled")
	}

	engine := mirror.New(newFetcher, sink, st, logger, metrics, mirror.Options{
		Workers:   cfg.Workers,
		Force:     cfg.Force,
		Announcer: announcer,
	})
	source := inventory.NewFile(cfg.InventoryPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule == "" {
		if code := runOnce(ctx, engine, source, logger); code != 0 {
			os.Exit(code)
		}
		return
	}
	serve(ctx, cfg, engine, source, logger)
}

// runOnce executes a single pass. Per-unit failures are operational noise,
// reported and retried on the next invocation; only a failure of the pass
// itself yields a non-zero exit.
func runOnce(ctx context.Context, engine *mirror.Mirror, source mirror.StationSource, logger *slog.Logger) int {
	report, err := engine.Run(ctx, source)
	if err != nil {
		logger.Error("mirror pass failed", "error", err)
		return 1
	}
	if report.Failed > 0 {
		logger.Warn("mirror pass finished with failures", "failed_units", report.FailedUnits)
	}
	return 0
}

func serve(ctx context.Context, cfg *config.Config, engine *mirror.Mirror, source mirror.StationSource, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := sched.AddFunc(cfg.Schedule, func() {
		if _, err := engine.Run(ctx, source); err != nil {
			logger.Error("scheduled mirror pass failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid schedule", "schedule", cfg.Schedule, "error", err)
		os.Exit(1)
	}

	// Initial pass before the scheduler starts, so readiness does not wait
	// for the first cron tick and a tick can never overlap it.
	if _, err := engine.Run(ctx, source); err != nil {
		logger.Error("initial mirror pass failed", "error", err)
	}

	sched.Start()
	logger.Info("mirror scheduled", "schedule", cfg.Schedule)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("in-flight pass did not finish before shutdown deadline")
	}

	logger.Info("shutdown complete")
}
