package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/quotesheet/internal/api"
	"github.com/dgallion1/quotesheet/internal/config"
)

func serveCMD(cfg config.Config) *cobra.Command {
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the upload form and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return api.Run(ctx, cfg, log)
		},
	}
	serve.Flags().StringVar(&cfg.Port, "port", cfg.Port, "listen port")
	serve.Flags().IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "batch workers")

	return serve
}
