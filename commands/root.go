// Package commands holds the command line interface.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vexere-pipeline/config"
	"vexere-pipeline/storage"
	"vexere-pipeline/utils"
)

var (
	cfg    *config.Config
	logger *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:          "vexere-pipeline",
	Short:        "Crawls vexere.com bus fares, stores them and clusters trips by price and quality.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cmd.Context())
		if err != nil {
			return err
		}
		l, err := utils.NewLoggerWithLevel(c.Log.Level)
		if err != nil {
			return fmt.Errorf("config: LOG_LEVEL: %w", err)
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (*storage.TripStore, error) {
	return storage.NewTripStore(ctx, cfg.Store.Driver, cfg.DSN(), logger)
}
