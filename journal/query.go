package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/torb"
)

var ErrNotFound = errors.New("not found")

const tradeColumns = `trade_id, symbol, direction, session, entry_price, exit_price, target_price,
	stop_price, entry_time, exit_time, exit_reason, pips, duration_minutes, pnl, position_size,
	spread_cost, is_win, range_width_pips`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (backtest.TradeRecord, error) {
	var (
		rec               backtest.TradeRecord
		dir, reason       string
		pnl, spread       decimal.Decimal
		entryTime, exitTm time.Time
	)
	err := row.Scan(
		&rec.ID,
		&rec.Symbol,
		&dir,
		&rec.Session,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.TargetPrice,
		&rec.StopPrice,
		&entryTime,
		&exitTm,
		&reason,
		&rec.Pips,
		&rec.DurationMinutes,
		&pnl,
		&rec.PositionSize,
		&spread,
		&rec.IsWin,
		&rec.RangeWidthPips,
	)
	if err != nil {
		return rec, err
	}
	rec.Direction = torb.Direction(dir)
	rec.ExitReason = torb.ExitReason(reason)
	rec.EntryTime, rec.ExitTime = entryTime, exitTm
	rec.PnL = pnl.InexactFloat64()
	rec.SpreadCost = spread.InexactFloat64()
	return rec, nil
}

func (j *SQLite) queryTrades(where string, args ...any) ([]backtest.TradeRecord, error) {
	rows, err := j.db.Query(`SELECT `+tradeColumns+` FROM trades WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (backtest.TradeRecord, error) {
	row := j.db.QueryRow(`SELECT `+tradeColumns+` FROM trades WHERE trade_id = ?`, tradeID)
	rec, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return backtest.TradeRecord{}, fmt.Errorf("trade %q %w", tradeID, ErrNotFound)
		}
		return backtest.TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose exit_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]backtest.TradeRecord, error) {
	return j.queryTrades(`exit_time >= ? AND exit_time < ? ORDER BY exit_time ASC`, start.UTC(), end.UTC())
}

// ListTradesBySession returns trades entered in the session dated
// YYYY-MM-DD.
func (j *SQLite) ListTradesBySession(date string) ([]backtest.TradeRecord, error) {
	return j.queryTrades(`session = ? ORDER BY entry_time ASC`, date)
}

// ListTradesByRunID returns the trades recorded with a backtest run.
func (j *SQLite) ListTradesByRunID(runID string) ([]backtest.TradeRecord, error) {
	return j.queryTrades(`run_id = ? ORDER BY entry_time ASC`, runID)
}

const runColumns = `run_id, created, symbol, dataset, start_time, end_time, candles, trades, wins,
	losses, win_rate, total_pips, profit_factor, max_dd_pips, start_balance, net_pl, config`

func scanRun(row rowScanner) (BacktestRun, error) {
	var (
		r          BacktestRun
		bal, netPL decimal.Decimal
		config     string
	)
	err := row.Scan(
		&r.RunID, &r.Created, &r.Symbol, &r.Dataset, &r.Start, &r.End, &r.Candles,
		&r.Trades, &r.Wins, &r.Losses, &r.WinRate, &r.TotalPips, &r.ProfitFactor,
		&r.MaxDrawdownPips, &bal, &netPL, &config,
	)
	if err != nil {
		return r, err
	}
	r.StartBalance = bal.InexactFloat64()
	r.NetPL = netPL.InexactFloat64()
	r.Config = []byte(config)
	return r, nil
}

// GetBacktestRun loads a run summary by ID.
func (j *SQLite) GetBacktestRun(runID string) (BacktestRun, error) {
	r, err := scanRun(j.db.QueryRow(`SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("backtest run %q %w", runID, ErrNotFound)
	}
	return r, err
}

// ListBacktestRuns returns the most recent runs first.
func (j *SQLite) ListBacktestRuns(limit int) ([]BacktestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(`SELECT `+runColumns+` FROM backtest_runs ORDER BY created DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ExportBacktestOrg loads a run with its trades and returns the Org block.
func (j *SQLite) ExportBacktestOrg(runID string) (string, error) {
	r, err := j.GetBacktestRun(runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(runID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := r.WriteOrg(&b); err != nil {
		return "", err
	}
	if len(trades) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatTradesOrg(trades))
	}
	return b.String(), nil
}
