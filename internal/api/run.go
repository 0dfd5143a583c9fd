package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/quotesheet/internal/config"
	"github.com/dgallion1/quotesheet/internal/parser"
	"github.com/dgallion1/quotesheet/internal/pipeline"
)

// Run starts the batch pipeline and serves HTTP on cfg.Port until ctx is
// cancelled, then shuts both down.
func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	stats := pipeline.NewExtractStats(time.Hour)
	proc := pipeline.NewProcessor(parser.Options{FallbackPdftotext: cfg.PDFFallbackPdftotext}, cfg.MaxFilesPerBatch, stats, log)

	orch := pipeline.NewOrchestrator(cfg, proc, log)
	orch.Start(ctx)

	srv := NewServer(orch, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting quotesheet", "port", cfg.Port, "workers", cfg.WorkerCount, "auth", cfg.APIKey != "")
		errCh <- httpServer.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err = httpServer.Shutdown(shutdownCtx)
	}
	orch.Stop()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
