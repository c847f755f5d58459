package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// configPath is the global --config flag value.
var configPath string

var rootCmd = &cobra.Command{
	Use:           "pedagoplay",
	Short:         "Children's activity planner",
	Long:          "pedagoplay suggests age-appropriate activities for children, using an OpenRouter model with a local fallback.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (defaults to configs/config.yaml)")
}

// Execute runs the root command; an interrupt cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
