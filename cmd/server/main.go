package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/quickestimate/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "quickestimate",
	Short: "Instant project estimates and lead capture",
	Long:  "Serves the public estimate API, stores leads with their estimate snapshot, and exposes an admin API for pricing settings and lead export.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		for _, w := range cfg.Warnings() {
			zap.L().Warn(w)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
