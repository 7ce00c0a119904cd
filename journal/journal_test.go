package journal

import (
	"time"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/torb"
)

var (
	_ Journal = (*SQLite)(nil)
	_ Journal = (*CSVJournal)(nil)
)

func sampleTrade(id string, entry time.Time, pips float64) backtest.TradeRecord {
	return backtest.TradeRecord{
		ID:              id,
		Symbol:          "USD_JPY",
		Direction:       torb.Buy,
		Session:         entry.Format("2006-01-02"),
		EntryPrice:      150.40,
		ExitPrice:       150.40 + pips/100,
		TargetPrice:     150.625,
		StopPrice:       149.97,
		EntryTime:       entry,
		ExitTime:        entry.Add(30 * time.Minute),
		ExitReason:      torb.ExitTarget,
		Pips:            pips,
		DurationMinutes: 30,
		PnL:             pips*230 - 46,
		PositionSize:    2.3,
		SpreadCost:      46,
		IsWin:           pips > 0,
		RangeWidthPips:  25,
	}
}
