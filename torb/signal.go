package torb

import (
	"fmt"
	"time"
)

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Sign is +1 for BUY and -1 for SELL.
func (d Direction) Sign() float64 {
	if d == Sell {
		return -1
	}
	return 1
}

// Signal is a breakout entry with its exit levels. RangeHigh and RangeLow
// are copied from the range that produced it and never change afterwards.
type Signal struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Direction   Direction `json:"direction"`
	EntryPrice  float64   `json:"entry_price"`
	TargetPrice float64   `json:"target_price"`
	StopPrice   float64   `json:"stop_price"`
	RangeHigh   float64   `json:"range_high"`
	RangeLow    float64   `json:"range_low"`
	RangeWidth  float64   `json:"range_width_pips"`
	Session     string    `json:"session"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s Signal) String() string {
	return fmt.Sprintf("%s %s @ %.5f tp=%.5f sl=%.5f", s.Symbol, s.Direction, s.EntryPrice, s.TargetPrice, s.StopPrice)
}

// State of a tracked signal. Everything but Active is terminal.
type State string

const (
	Active   State = "ACTIVE"
	Profit   State = "PROFIT"
	Loss     State = "LOSS"
	TimeExit State = "TIME_EXIT"
)

func (s State) Terminal() bool { return s != Active && s != "" }

type ExitReason string

const (
	ExitTarget   ExitReason = "TARGET"
	ExitStopLoss ExitReason = "STOP_LOSS"
	ExitTime     ExitReason = "TIME_EXIT"
)

// Reason maps a terminal state to its exit reason.
func (s State) Reason() ExitReason {
	switch s {
	case Profit:
		return ExitTarget
	case Loss:
		return ExitStopLoss
	case TimeExit:
		return ExitTime
	default:
		return ""
	}
}
