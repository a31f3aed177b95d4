package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pelotero/internal/cli"
	"pelotero/internal/log"
	"pelotero/internal/metrics"
	gsheet "pelotero/internal/sheets/google"
	"pelotero/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting pelotero-worker")

	if !cfg.SheetsEnabled() {
		logger.Error("Sheets mirror disabled - set GOOGLE_SPREADSHEET_ID to run the worker")
		os.Exit(1)
	}

	backend := cli.InitBackend(context.Background(), logger, cfg)
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	}()

	mirror, err := gsheet.NewFromConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	mw := worker.NewMirrorWorker(backend.Backend, mirror)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up on anything missed while the worker was down.
	logger.Info("Performing startup resync...")
	if err := mw.Resync(ctx); err != nil {
		logger.Error("Startup resync failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if backend.AMQP != nil {
		g.Go(func() error {
			err := backend.AMQP.ConsumeChanges(gctx, mw.HandleChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Warn("AMQP disabled - relying on periodic resync only")
	}

	g.Go(func() error {
		mw.RunPeriodicResync(gctx, cfg.SyncInterval)
		return nil
	})

	if cfg.WorkerMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		backend.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
