package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ecommerce/infrastructure/messaging/kafka"
	"ecommerce/infrastructure/observability"
	"ecommerce/infrastructure/outbox"
	"ecommerce/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerMetricsAddr string

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Relay outbox events to the message broker",
	Long: `worker polls the outbox table and publishes pending events to Kafka
(worker.publisher=kafka) or to the log (worker.publisher=log).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Database.Type != "mysql" {
			return fmt.Errorf("worker needs database.type=mysql, got %q", cfg.Database.Type)
		}

		infra, err := NewBuilder(cfg).Infra()
		if err != nil {
			return err
		}

		var publisher outbox.Publisher
		switch cfg.Worker.Publisher {
		case "kafka":
			kp, err := kafka.NewPublisher(cfg.Kafka)
			if err != nil {
				return fmt.Errorf("failed to create kafka publisher: %w", err)
			}
			defer kp.Close()
			publisher = kp
		case "log", "":
			publisher = &outbox.LoggingPublisher{}
		default:
			return fmt.Errorf("unsupported worker.publisher: %q", cfg.Worker.Publisher)
		}

		worker, err := outbox.NewWorker(
			infra.Outbox,
			publisher,
			cfg.Worker.PollInterval,
			cfg.Worker.BatchSize,
			cfg.Worker.MaxRetries,
		)
		if err != nil {
			return fmt.Errorf("failed to create outbox worker: %w", err)
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		if cfg.Metrics.Enabled {
			metrics := observability.NewDefaultMetrics()
			worker.WithMetrics(metrics)
			go serveMetrics(ctx, workerMetricsAddr, cfg.Metrics.Path, metrics.Handler())
		}

		logger.Info("Outbox worker started",
			zap.String("publisher", cfg.Worker.Publisher),
			zap.Duration("poll_interval", cfg.Worker.PollInterval),
			zap.Int("batch_size", cfg.Worker.BatchSize),
			zap.Int("max_retries", cfg.Worker.MaxRetries),
		)

		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox worker exited with error: %w", err)
		}

		logger.Info("Outbox worker stopped")
		return nil
	},
}

func init() {
	workerCmd.Flags().StringVar(&workerMetricsAddr, "metrics-addr", ":9091", "listen address for the worker's metrics endpoint")
	rootCmd.AddCommand(workerCmd)
}

func serveMetrics(ctx context.Context, addr, path string, handler http.Handler) {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("Metrics endpoint stopped", zap.String("addr", addr), zap.Error(err))
	}
}
