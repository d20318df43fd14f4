package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/recon-cli/internal/config"
	"github.com/sells-group/recon-cli/internal/resolve"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "recon-cli",
	Short: "AI-subscription expense reconciliation",
	Long:  "Matches subscription-export names against the team roster, updates expensed flags, and writes audit artifacts.",
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

// Exit code 2 marks configuration errors (bad override tables, out-of-range
// thresholds) so wrappers can tell them apart from runtime failures.
func main() {
	if err := rootCmd.Execute(); err != nil {
		if resolve.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
