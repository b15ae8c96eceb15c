package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/FinTechTonic/creditnexus/internal/common"
	"github.com/FinTechTonic/creditnexus/internal/export"
	"github.com/FinTechTonic/creditnexus/internal/extract"
	"github.com/FinTechTonic/creditnexus/internal/interop"
	"github.com/FinTechTonic/creditnexus/internal/repository"
	"github.com/FinTechTonic/creditnexus/internal/review"
	"github.com/FinTechTonic/creditnexus/internal/server"
	"github.com/FinTechTonic/creditnexus/internal/workflow"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Staging store is optional: without it the workflow runs with no audit
	// trail and no export surface.
	var (
		reviewSvc *review.Service
		exportSvc *export.Service
	)
	db, closeDB, err := repository.Open(ctx, repository.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Warn("staging store unavailable, continuing without review audit", "error", err)
	} else {
		defer closeDB()
		stagingRepo := repository.NewStagingRepository(db, cfg.Database.Driver)
		if err := stagingRepo.Migrate(ctx); err != nil {
			logger.Error("staging store migration failed", "error", err)
			os.Exit(1)
		}
		reviewSvc = review.NewService(stagingRepo, logger)
		exportSvc = export.NewService(stagingRepo, logger)
	}

	// A bus client is only present when the host wires one in; the loopback
	// mode keeps the real code path exercisable in a single process.
	var bus interop.BusClient
	if cfg.Interop.Mode == "loopback" {
		bus = interop.NewLoopbackBus()
	}
	adapter := interop.NewAdapter(bus, interop.Config{
		AppID:          cfg.Interop.AppID,
		PublishTimeout: cfg.Interop.PublishTimeout,
	}, logger)
	defer adapter.Close()

	// Session-scoped inbound listener: released by adapter.Close on every
	// exit path.
	if _, err := adapter.Subscribe(ctx, interop.ContextTypeLoan, func(payload json.RawMessage) {
		logger.Info("interop.context.received", "context_type", interop.ContextTypeLoan, "bytes", len(payload))
	}); err != nil {
		logger.Error("subscribing to loan contexts failed", "error", err)
		os.Exit(1)
	}

	extractor := extract.NewClient(extract.Config{
		BaseURL:        cfg.Extraction.BaseURL,
		Timeout:        cfg.Extraction.Timeout,
		ForceMapReduce: cfg.Extraction.ForceMapReduce,
	}, logger)

	var recorder workflow.Recorder
	if reviewSvc != nil {
		recorder = reviewSvc
	}
	controller := workflow.NewController(extractor, adapter, recorder, logger)

	svc := server.NewService(controller, reviewSvc, exportSvc, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: svc.Routes(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown interrupted", "error", err)
	}
	logger.Info("stopped")
}
