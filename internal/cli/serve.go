package cli

import (
	"os/signal"
	"syscall"

	"github.com/SergeiKhy/shorturls/internal/app"
	"github.com/SergeiKhy/shorturls/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Starts the HTTP API, the click event workers and the periodic
cleanup of expired links. Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			log, err := logger.New(cfg.App.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.App.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				log.Error("Failed to initialize service", zap.Error(err))
				return err
			}

			if err := a.Run(ctx); err != nil {
				log.Error("Service stopped with error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}
