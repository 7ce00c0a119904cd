// journal/journal.go
package journal

import (
	"github.com/rustyeddy/torb/backtest"
)

// Journal is a sink for closed trades and backtest run summaries.
type Journal interface {
	RecordTrade(backtest.TradeRecord) error
	RecordRun(BacktestRun) error
	Close() error
}

// RecordResult writes a run and all of its trades.
func RecordResult(j Journal, run BacktestRun, trades []backtest.TradeRecord) error {
	if err := j.RecordRun(run); err != nil {
		return err
	}
	for _, t := range trades {
		if err := j.RecordTrade(t); err != nil {
			return err
		}
	}
	return nil
}
