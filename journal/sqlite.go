package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/torb/backtest"
)

// SQLite stores trades and backtest runs in a single database file.
// Money columns are stored as fixed 2-decimal text.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

const insertTrade = `
	INSERT OR REPLACE INTO trades
	(trade_id, run_id, symbol, direction, session, entry_price, exit_price, target_price, stop_price,
	 entry_time, exit_time, exit_reason, pips, duration_minutes, pnl, position_size, spread_cost,
	 is_win, range_width_pips)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func tradeArgs(runID string, t backtest.TradeRecord) []any {
	return []any{
		t.ID, runID, t.Symbol, string(t.Direction), t.Session,
		t.EntryPrice, t.ExitPrice, t.TargetPrice, t.StopPrice,
		t.EntryTime.UTC(), t.ExitTime.UTC(), string(t.ExitReason),
		t.Pips, t.DurationMinutes, money(t.PnL), t.PositionSize, money(t.SpreadCost),
		t.IsWin, t.RangeWidthPips,
	}
}

// RecordTrade stores a trade that does not belong to a backtest run.
func (j *SQLite) RecordTrade(t backtest.TradeRecord) error {
	_, err := j.db.Exec(insertTrade, tradeArgs("", t)...)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// RecordRun stores the run summary.
func (j *SQLite) RecordRun(r BacktestRun) error {
	return recordRun(j.db, r)
}

func recordRun(ex execer, r BacktestRun) error {
	_, err := ex.Exec(`
		INSERT OR REPLACE INTO backtest_runs
		(run_id, created, symbol, dataset, start_time, end_time, candles, trades, wins, losses,
		 win_rate, total_pips, profit_factor, max_dd_pips, start_balance, net_pl, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Symbol, r.Dataset, r.Start.UTC(), r.End.UTC(), r.Candles,
		r.Trades, r.Wins, r.Losses, r.WinRate, r.TotalPips, r.ProfitFactor, r.MaxDrawdownPips,
		money(r.StartBalance), money(r.NetPL), string(r.Config),
	)
	return err
}

// RecordBacktest stores a run and its trades in one transaction.
func (j *SQLite) RecordBacktest(r BacktestRun, trades []backtest.TradeRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := recordRun(tx, r); err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertTrade)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.Exec(tradeArgs(r.RunID, t)...); err != nil {
			return fmt.Errorf("trade %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
