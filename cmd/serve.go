package cmd

import (
	"ecommerce/infrastructure/observability"
	"ecommerce/pkg/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		builder := NewBuilder(cfg)
		if cfg.Metrics.Enabled {
			builder.WithMetrics(observability.NewDefaultMetrics())
		}
		app, err := builder.Build(ctx)
		if err != nil {
			return err
		}
		return app.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
