package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cardiorisk/cardiorisk/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cardiorisk",
	Short: "Cardiovascular risk assessment service",
	Long:  "Scores a patient profile with statistical and rule-based estimators, asks a language model to explain the result, and stores the reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlagOverrides(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		zap.L().Debug("config loaded",
			zap.String("file", path),
			zap.String("models_dir", cfg.Models.Dir),
			zap.String("store_driver", cfg.Store.Driver),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// applyFlagOverrides lets explicitly set flags win over file and environment.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("models-dir") {
		c.Models.Dir, _ = flags.GetString("models-dir")
	}
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a config file (default ./config.yaml if present)")
	rootCmd.PersistentFlags().String("models-dir", "", "directory holding the statistical model artifacts")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
