package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// PrintReport writes a plain-text summary of a single-instrument run.
func PrintReport(w io.Writer, r *Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, " TORB Backtest: %s\n", r.Symbol)
	fmt.Fprintln(w, "==================================================")

	s := r.Settings
	fmt.Fprintf(w, "Session:       %s %s-%s, trade until %s\n", s.Timezone, s.RangeStart, s.RangeEnd, s.TradingEnd)
	fmt.Fprintf(w, "Range Filter:  %.1f - %.1f pips\n", s.MinRangeWidthPips, s.MaxRangeWidthPips)
	fmt.Fprintf(w, "Target/Buffer: x%.2f / %.1f pips\n", s.ProfitMultiplier, s.StopLossBufferPips)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Candles:       %d\n", r.Candles)

	printStats(w, r.Stats)

	if len(r.Skipped) > 0 || len(r.RangeRejections) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Filtered")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, k := range sortedKeys(r.RangeRejections) {
			fmt.Fprintf(w, "Range %-9s %d\n", k+":", r.RangeRejections[k])
		}
		for _, k := range sortedKeys(r.Skipped) {
			fmt.Fprintf(w, "Skipped %-20s %d\n", k+":", r.Skipped[k])
		}
	}
	fmt.Fprintln(w)
}

// PrintCombined writes a summary of a multi-instrument run followed by
// one line per instrument.
func PrintCombined(w io.Writer, c *Combined) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " TORB Backtest: all instruments")
	fmt.Fprintln(w, "==================================================")
	for _, sym := range c.Symbols() {
		st := c.Results[sym].Stats
		fmt.Fprintf(w, "%-8s trades %4d  win %5.1f%%  pips %8.1f  pnl %12.2f\n",
			sym, st.TotalTrades, st.WinRate*100, st.TotalPips, st.TotalPnL)
	}
	printStats(w, c.Stats)
	fmt.Fprintln(w)
}

func printStats(w io.Writer, st Stats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", st.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", st.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", st.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", st.WinRate*100)
	fmt.Fprintf(w, "Total Pips:    %.1f\n", st.TotalPips)
	fmt.Fprintf(w, "Profit Factor: %.2f\n", st.ProfitFactor)
	fmt.Fprintf(w, "Max Drawdown:  %.1f pips\n", st.MaxDrawdownPips)
	fmt.Fprintf(w, "Max Streak:    %d wins / %d losses\n", st.MaxConsecutiveWins, st.MaxConsecutiveLosses)
	fmt.Fprintf(w, "Avg Duration:  %.0f min\n", st.AvgDurationMinutes)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", st.TotalPnL)

	if len(st.ByExitReason) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Exits")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, k := range sortedKeys(st.ByExitReason) {
			fmt.Fprintf(w, "%-14s %d\n", k+":", st.ByExitReason[k])
		}
	}

	if len(st.Monthly) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Monthly")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, m := range st.Monthly {
			fmt.Fprintf(w, "%s  trades %3d  win %5.1f%%  pips %7.1f  best %s (%.1f)  worst %s (%.1f)\n",
				m.Month, m.Trades, m.WinRate*100, m.NetPips, m.BestDay, m.BestDayPips, m.WorstDay, m.WorstDayPips)
		}
	}
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
