package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/internal/cli/config"
	"github.com/rustyeddy/torb/journal"
	"github.com/rustyeddy/torb/market"
)

func New(rc *config.RootConfig) *cobra.Command {
	var (
		symbol    string
		dataset   string
		orgDir    string
		jsonOut   bool
		noRecord  bool
		intrabar  bool
		noRSI     bool
		noMomo    bool
		maxTrades int
		flatten   bool
		keepOpen  bool
	)

	cmd := &cobra.Command{
		Use:   "backtest [SYMBOL=]candles.csv ...",
		Short: "Replay candle CSVs through the opening range breakout engine",
		Long: `Backtest replays one CSV of closed candles per instrument, simulates
every signal with risk-based sizing and prints the statistics.

Each argument is SYMBOL=path. A bare path uses --symbol.

Examples:
  torb backtest USD_JPY=data/usdjpy_m15.csv
  torb backtest --symbol EUR_USD eurusd.csv
  torb backtest USD_JPY=a.csv GBP_JPY=b.csv --org ./reports`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rc.Config
			log := rc.Log

			series, err := LoadSeries(args, symbol, log)
			if err != nil {
				return err
			}

			opts := cfg.Backtest
			flags := cmd.Flags()
			if flags.Changed("intrabar") {
				opts.IntrabarExits = intrabar
			}
			if noRSI {
				opts.UseRSIFilter = false
			}
			if noMomo {
				opts.UseMomentumFilter = false
			}
			if flags.Changed("max-trades") {
				opts.MaxTradesPerSession = maxTrades
			}
			if flags.Changed("flatten") {
				opts.FlattenAtTradingEnd = flatten
			}
			if keepOpen {
				opts.CloseAtEnd = false
			}

			eng := cfg.Engine()
			eng.Options = opts
			eng.Log = log.Named("backtest")

			combined, err := backtest.RunAll(cmd.Context(), eng, series)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(combined); err != nil {
					return err
				}
			} else {
				for _, sym := range combined.Symbols() {
					backtest.PrintReport(out, combined.Results[sym])
					fmt.Fprintln(out)
				}
				if len(combined.Results) > 1 {
					backtest.PrintCombined(out, combined)
				}
			}

			if dataset == "" {
				dataset = strings.Join(args, ",")
			}
			var runs []journal.BacktestRun
			for _, sym := range combined.Symbols() {
				run := journal.NewBacktestRun(combined.Results[sym], eng.Account, opts, dataset)
				if orgDir != "" {
					run.OrgPath = filepath.Join(orgDir, fmt.Sprintf("backtest-%s-%s.org", sym, run.RunID))
				}
				runs = append(runs, run)
			}

			if !noRecord {
				if err := record(rc, runs, combined); err != nil {
					return err
				}
			}

			if orgDir != "" {
				if err := os.MkdirAll(orgDir, 0o755); err != nil {
					return err
				}
				for _, run := range runs {
					if err := run.WriteOrgFile(); err != nil {
						return fmt.Errorf("write org: %w", err)
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", run.OrgPath)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&symbol, "symbol", "s", "USD_JPY", "symbol for arguments without SYMBOL=")
	f.StringVar(&dataset, "dataset", "", "dataset label stored with the run (default: the arguments)")
	f.StringVar(&orgDir, "org", "", "write an Org-mode report per instrument into this directory")
	f.BoolVar(&jsonOut, "json", false, "print the full result as JSON")
	f.BoolVar(&noRecord, "no-journal", false, "do not record the run in the journal")
	f.BoolVar(&intrabar, "intrabar", false, "exit on candle high/low instead of close")
	f.BoolVar(&noRSI, "no-rsi", false, "disable the RSI filter")
	f.BoolVar(&noMomo, "no-momentum", false, "disable the momentum filter")
	f.IntVar(&maxTrades, "max-trades", 0, "max trades per session per instrument (0 = unlimited)")
	f.BoolVar(&flatten, "flatten", false, "close open signals at the session trading end")
	f.BoolVar(&keepOpen, "keep-open", false, "leave a signal still open at end of data out of the results")

	return cmd
}

// LoadSeries reads SYMBOL=path arguments into per-symbol candle series.
// A bare path belongs to fallback. Several files for one symbol are joined.
func LoadSeries(args []string, fallback string, log *zap.Logger) (map[string][]market.Candle, error) {
	series := make(map[string][]market.Candle, len(args))
	for _, arg := range args {
		sym, path, err := splitArg(arg, fallback)
		if err != nil {
			return nil, err
		}
		candles, rep, err := market.LoadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		log.Info("loaded candles",
			zap.String("symbol", sym),
			zap.String("path", path),
			zap.Int("kept", rep.Kept),
			zap.Int("input", rep.Input))
		series[sym] = append(series[sym], candles...)
	}
	return series, nil
}

func splitArg(arg, fallback string) (string, string, error) {
	sym, path, ok := strings.Cut(arg, "=")
	if !ok {
		sym, path = fallback, arg
	}
	inst, err := market.Lookup(sym)
	if err != nil {
		return "", "", err
	}
	if path == "" {
		return "", "", fmt.Errorf("missing csv path in %q", arg)
	}
	return inst.Symbol, path, nil
}

func record(rc *config.RootConfig, runs []journal.BacktestRun, c *backtest.Combined) error {
	j, err := rc.OpenJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	for i, sym := range c.Symbols() {
		trades := c.Results[sym].Trades
		if db, ok := j.(*journal.SQLite); ok {
			err = db.RecordBacktest(runs[i], trades)
		} else {
			err = journal.RecordResult(j, runs[i], trades)
		}
		if err != nil {
			return fmt.Errorf("journal %s: %w", sym, err)
		}
		rc.Log.Info("recorded run",
			zap.String("run_id", runs[i].RunID),
			zap.String("symbol", sym),
			zap.Int("trades", len(trades)))
	}
	return nil
}
