package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gsarmaonline/swapmart/storage"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if !skipMigrate {
			if err := a.server.Migrate(); err != nil {
				return err
			}
		}

		// Local uploads are served by the API itself
		backend := cfg.Storage.Backend
		if (backend == storage.BackendLocal || backend == "") && strings.HasPrefix(cfg.Storage.BaseURL, "/") {
			a.server.Static(cfg.Storage.BaseURL, cfg.Storage.LocalRoot)
		}

		logger.Info("starting swapmart",
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("storage_backend", backend),
		)
		return a.server.Run()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on startup")
}
