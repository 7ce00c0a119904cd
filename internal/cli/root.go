package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/torb/internal/cli/backtest"
	"github.com/rustyeddy/torb/internal/cli/config"
	"github.com/rustyeddy/torb/internal/cli/data"
	"github.com/rustyeddy/torb/internal/cli/journal"
	"github.com/rustyeddy/torb/internal/cli/replay"
	"github.com/rustyeddy/torb/internal/cli/serve"
)

const version = "0.3.0"

func NewRootCmd() *cobra.Command {
	rc := &config.RootConfig{}

	cmd := &cobra.Command{
		Use:   "torb",
		Short: "Tokyo opening range breakout engine, backtester and signal server",
		Long: `torb measures the opening range of each trading session, signals
breakouts with range-derived targets and stops, and replays history to
measure the strategy with risk-based position sizing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file, YAML or JSON (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "", "SQLite journal database (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&rc.LogJSON, "log-json", false, "Log as JSON")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rc.Load()
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if rc.Log != nil {
			_ = rc.Log.Sync()
		}
	}

	// Subcommands
	cmd.AddCommand(
		backtest.New(rc),
		data.New(rc),
		journal.New(rc),
		replay.New(rc),
		serve.New(rc),
		newConfigCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "torb %s\n", version)
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
