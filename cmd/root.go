package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/equinoxe-ovh/regafind/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "regafind",
	Short: "Screen the French financial-firm register for investment-service prospects",
	Long:  "Fetches firm pages from the REGAFI register, decodes their authorization grids, and ranks firms by the weight of the investment services they are allowed to provide.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
