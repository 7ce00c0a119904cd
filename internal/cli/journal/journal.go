package journal

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/torb/internal/cli/config"
	jrnl "github.com/rustyeddy/torb/journal"
)

func New(rc *config.RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query trade journal data",
		Long: `Query and display trade journal records from the SQLite database.

Examples:
  torb journal trade <trade-id>
  torb journal today
  torb journal day 2024-01-15
  torb journal session 2024-01-15
  torb journal runs --limit 5
  torb journal export <run-id> --out run.org`,
	}

	cmd.AddCommand(
		newTradeCmd(rc),
		newTodayCmd(rc),
		newDayCmd(rc),
		newSessionCmd(rc),
		newRunsCmd(rc),
		newExportCmd(rc),
	)
	return cmd
}

func newTradeCmd(rc *config.RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "trade <trade-id>",
		Short: "Get details of a specific trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := rc.OpenSQLite()
			if err != nil {
				return err
			}
			defer j.Close()

			rec, err := j.GetTrade(args[0])
			if err != nil {
				return fmt.Errorf("get trade: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), jrnl.FormatTradeOrg(rec))
			return nil
		},
	}
}

func newTodayCmd(rc *config.RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List trades closed today in the session timezone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := rc.Config.Session.Location()
			if err != nil {
				return err
			}
			return listClosed(cmd, rc, time.Now().In(loc).Format("2006-01-02"))
		},
	}
}

func newDayCmd(rc *config.RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "List trades closed on a specific day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listClosed(cmd, rc, args[0])
		},
	}
}

func listClosed(cmd *cobra.Command, rc *config.RootConfig, day string) error {
	loc, err := rc.Config.Session.Location()
	if err != nil {
		return err
	}
	start, end, err := dayBounds(loc, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := rc.OpenSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), jrnl.FormatTradesOrg(recs))
	return nil
}

func newSessionCmd(rc *config.RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "session <YYYY-MM-DD>",
		Short: "List trades entered in a given trading session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := time.Parse("2006-01-02", args[0]); err != nil {
				return fmt.Errorf("date: %w", err)
			}
			j, err := rc.OpenSQLite()
			if err != nil {
				return err
			}
			defer j.Close()

			recs, err := j.ListTradesBySession(args[0])
			if err != nil {
				return fmt.Errorf("query trades: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), jrnl.FormatTradesOrg(recs))
			return nil
		},
	}
}

func newRunsCmd(rc *config.RootConfig) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent backtest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := rc.OpenSQLite()
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.ListBacktestRuns(limit)
			if err != nil {
				return fmt.Errorf("query runs: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCREATED\tSYMBOL\tTRADES\tWIN%\tPIPS\tPF\tNET P/L")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f\t%.1f\t%.2f\t%.2f\n",
					r.RunID, r.Created.Format("2006-01-02 15:04"), r.Symbol,
					r.Trades, r.WinRate*100, r.TotalPips, r.ProfitFactor, r.NetPL)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func newExportCmd(rc *config.RootConfig) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a backtest run and its trades as Org-mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := rc.OpenSQLite()
			if err != nil {
				return err
			}
			defer j.Close()

			org, err := j.ExportBacktestOrg(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), org)
				return nil
			}
			return os.WriteFile(out, []byte(org), 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
