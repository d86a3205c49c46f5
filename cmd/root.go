package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ecommerce/config"
	"ecommerce/pkg/logger"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ecommerce",
	Short: "Order lifecycle and inventory ledger service",
	Long: `ecommerce runs the order workflow HTTP API (checkout, VNPay callbacks,
cancellations, returns) on top of an append-only stock ledger.

Every setting can be overridden with ECOMMERCE_<SECTION>_<KEY> environment
variables, e.g. ECOMMERCE_DATABASE_TYPE=mysql.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads the config and initialises the global logger.
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(&cfg.Log, cfg.App); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
