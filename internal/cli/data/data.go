package data

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/torb/internal/cli/config"
)

func New(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Market data tools",
	}
	cmd.AddCommand(newOandaCmd(rc))
	return cmd
}

func newOandaCmd(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oanda",
		Short: "OANDA dataset tools",
	}
	cmd.AddCommand(newOandaCandlesCmd(rc))
	return cmd
}
