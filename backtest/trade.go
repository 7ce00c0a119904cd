package backtest

import (
	"time"

	"github.com/rustyeddy/torb/risk"
	"github.com/rustyeddy/torb/torb"
)

// TradeRecord is one closed signal. Immutable once produced.
type TradeRecord struct {
	ID              string          `json:"id"`
	Symbol          string          `json:"symbol"`
	Direction       torb.Direction  `json:"direction"`
	Session         string          `json:"session"` // entry session date, YYYY-MM-DD
	EntryPrice      float64         `json:"entry_price"`
	ExitPrice       float64         `json:"exit_price"`
	TargetPrice     float64         `json:"target_price"`
	StopPrice       float64         `json:"stop_price"`
	EntryTime       time.Time       `json:"entry_time"`
	ExitTime        time.Time       `json:"exit_time"`
	ExitReason      torb.ExitReason `json:"exit_reason"`
	Pips            float64         `json:"pips"`
	DurationMinutes float64         `json:"duration_minutes"`
	PnL             float64         `json:"pnl"`
	PositionSize    float64         `json:"position_size"`
	SpreadCost      float64         `json:"spread_cost"`
	IsWin           bool            `json:"is_win"`
	RangeWidthPips  float64         `json:"range_width_pips"`
}

// NewTradeRecord turns a terminal tracker and its simulation into a record.
// Pips are rounded to 0.1 to keep float noise out of the statistics.
func NewTradeRecord(tr *torb.Tracker, sim risk.TradeResult, pipSize float64) TradeRecord {
	sig := tr.Signal
	pips := roundTenth(tr.Pips(tr.ExitPrice, pipSize))
	return TradeRecord{
		ID:              sig.ID,
		Symbol:          sig.Symbol,
		Direction:       sig.Direction,
		Session:         sig.Session,
		EntryPrice:      sig.EntryPrice,
		ExitPrice:       tr.ExitPrice,
		TargetPrice:     sig.TargetPrice,
		StopPrice:       sig.StopPrice,
		EntryTime:       sig.CreatedAt,
		ExitTime:        tr.ExitTime,
		ExitReason:      tr.State.Reason(),
		Pips:            pips,
		DurationMinutes: tr.ExitTime.Sub(sig.CreatedAt).Minutes(),
		PnL:             sim.PnL,
		PositionSize:    sim.PositionSize,
		SpreadCost:      sim.SpreadCost,
		IsWin:           pips > 0,
		RangeWidthPips:  sig.RangeWidth,
	}
}
