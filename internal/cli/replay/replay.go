package replay

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	clibacktest "github.com/rustyeddy/torb/internal/cli/backtest"
	"github.com/rustyeddy/torb/internal/cli/config"
	"github.com/rustyeddy/torb/internal/replay"
	"github.com/rustyeddy/torb/internal/server"
	"github.com/rustyeddy/torb/journal"
	"github.com/rustyeddy/torb/torb"
)

func New(rc *config.RootConfig) *cobra.Command {
	var (
		symbol    string
		speed     float64
		jsonOut   bool
		noJournal bool
	)

	cmd := &cobra.Command{
		Use:   "replay [SYMBOL=]candles.csv ...",
		Short: "Stream candle CSVs through the live signal monitor",
		Long: `Replay pushes historical candles through the same monitor the server
uses and prints every signal event as it happens. Use it to check what the
live path would have done over a dataset.

Examples:
  torb replay USD_JPY=usdjpy_m15.csv
  torb replay --speed 3600 --json USD_JPY=a.csv GBP_JPY=b.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series, err := clibacktest.LoadSeries(args, symbol, rc.Log)
			if err != nil {
				return err
			}

			var j journal.Journal
			if !noJournal {
				if j, err = rc.OpenJournal(); err != nil {
					return err
				}
				defer j.Close()
			}

			eng := rc.Config.Engine()
			mon := server.NewMonitor(eng, j, nil, rc.Log.Named("monitor"))

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			sum, err := replay.Candles(cmd.Context(), mon, series, replay.Options{Speed: speed}, func(m server.Message) {
				if jsonOut {
					_ = enc.Encode(m)
					return
				}
				printMessage(out, m)
			})
			if err != nil {
				return err
			}

			rc.Log.Info("replay complete",
				zap.Int("candles", sum.Candles),
				zap.Int("opened", sum.Events[torb.EventOpened]),
				zap.Int("closed", sum.Events[torb.EventClosed]),
				zap.Int("skipped", sum.Events[torb.EventSkipped]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&symbol, "symbol", "s", "USD_JPY", "symbol for arguments without SYMBOL=")
	cmd.Flags().Float64Var(&speed, "speed", 0, "market seconds per wall second (0 = as fast as possible)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print events as JSON lines")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not journal closed trades")
	return cmd
}

func printMessage(w io.Writer, m server.Message) {
	ts := m.Time.Format("2006-01-02 15:04")
	switch m.Kind {
	case torb.EventOpened:
		fmt.Fprintf(w, "%s %-14s %s\n", ts, m.Kind, m.Signal)
	case torb.EventClosed:
		if m.Trade != nil {
			fmt.Fprintf(w, "%s %-14s %s %s %s exit=%.5f pips=%.1f pnl=%.2f\n",
				ts, m.Kind, m.Symbol, m.Trade.Direction, m.Reason, m.Trade.ExitPrice, m.Trade.Pips, m.Trade.PnL)
			return
		}
		fmt.Fprintf(w, "%s %-14s %s %s\n", ts, m.Kind, m.Symbol, m.Reason)
	case torb.EventRejected:
		fmt.Fprintf(w, "%s %-14s %s %s width=%.1f\n", ts, m.Kind, m.Symbol, m.Reason, m.Range.WidthPips)
	default:
		fmt.Fprintf(w, "%s %-14s %s %s\n", ts, m.Kind, m.Symbol, m.Reason)
	}
}
