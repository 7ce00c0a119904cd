package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	tconfig "github.com/rustyeddy/torb/config"
	"github.com/rustyeddy/torb/internal/cli/config"
)

func newConfigCmd(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage configuration files.

Examples:
  torb config init -o torb.yaml
  torb config validate -f torb.yaml`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tconfig.Default().SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(out, "\nEdit the file and run with:")
			fmt.Fprintf(out, "  torb --config %s backtest USD_JPY=candles.csv\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "torb.yaml", "output config file path")

	var path string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = rc.ConfigPath
			}
			if path == "" {
				return fmt.Errorf("no config file: use -f or --config")
			}
			cfg, err := tconfig.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(out, "  Account: %.0f %s, %dx leverage, %.1f%% risk\n",
				cfg.Account.Balance, cfg.Account.Currency, cfg.Account.Leverage, cfg.Account.RiskPerTradePct)
			fmt.Fprintf(out, "  Session: %s %s-%s until %s\n",
				cfg.Session.Timezone, cfg.Session.RangeStart, cfg.Session.RangeEnd, cfg.Session.TradingEnd)
			fmt.Fprintf(out, "  Symbols: %v\n", cfg.Symbols)
			fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&path, "file", "f", "", "path to config file")

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
