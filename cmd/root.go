package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complyeu/aiact-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "aiact-cli",
	Short: "EU AI Act compliance interview and risk classification",
	Long:  "Screens AI system descriptions against Article 5 prohibited practices, runs an adaptive compliance interview grounded in the AI Act text, and synthesizes a risk-classification report.",
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
