// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/torb/backtest"
)

var tradeHeader = []string{
	"trade_id", "symbol", "direction", "session", "entry_price", "exit_price", "target_price",
	"stop_price", "entry_time", "exit_time", "exit_reason", "pips", "duration_minutes", "pnl",
	"position_size", "spread_cost", "is_win", "range_width_pips",
}

var runHeader = []string{
	"run_id", "created", "symbol", "dataset", "start", "end", "candles", "trades", "wins",
	"losses", "win_rate", "total_pips", "profit_factor", "max_dd_pips", "start_balance", "net_pl",
}

// CSVJournal appends trades and runs to two CSV files.
type CSVJournal struct {
	trades *csv.Writer
	runs   *csv.Writer
	tf, rf *os.File
}

func NewCSV(tradesPath, runsPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	rf, err := os.Create(runsPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	rw := csv.NewWriter(rf)

	if err := tw.Write(tradeHeader); err != nil {
		return nil, err
	}
	if err := rw.Write(runHeader); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	rw.Flush()
	if err := rw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, rw, tf, rf}, nil
}

func (j *CSVJournal) RecordTrade(t backtest.TradeRecord) error {
	err := j.trades.Write([]string{
		t.ID,
		t.Symbol,
		string(t.Direction),
		t.Session,
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.TargetPrice),
		f(t.StopPrice),
		t.EntryTime.UTC().Format(time.RFC3339),
		t.ExitTime.UTC().Format(time.RFC3339),
		string(t.ExitReason),
		f1(t.Pips),
		f1(t.DurationMinutes),
		money(t.PnL),
		f1(t.PositionSize),
		money(t.SpreadCost),
		strconv.FormatBool(t.IsWin),
		f1(t.RangeWidthPips),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordRun(r BacktestRun) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Symbol,
		r.Dataset,
		r.Start.UTC().Format(time.RFC3339),
		r.End.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Candles),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		strconv.FormatFloat(r.WinRate, 'f', 4, 64),
		f1(r.TotalPips),
		strconv.FormatFloat(r.ProfitFactor, 'f', 2, 64),
		f1(r.MaxDrawdownPips),
		money(r.StartBalance),
		money(r.NetPL),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.rf.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func f1(x float64) string {
	return strconv.FormatFloat(x, 'f', 1, 64)
}
