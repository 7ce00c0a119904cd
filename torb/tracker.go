package torb

import (
	"time"

	"github.com/rustyeddy/torb/market"
)

// Tracker follows one signal from ACTIVE to a terminal state.
// Once terminal it ignores further prices.
type Tracker struct {
	Signal    Signal    `json:"signal"`
	State     State     `json:"state"`
	ExitPrice float64   `json:"exit_price,omitempty"`
	ExitTime  time.Time `json:"exit_time,omitempty"`
}

func NewTracker(sig Signal) *Tracker {
	return &Tracker{Signal: sig, State: Active}
}

// Transition is the pure state rule: the state a signal moves to at price.
// Target is checked before stop, so a tie resolves to PROFIT.
func Transition(sig Signal, price float64) State {
	switch sig.Direction {
	case Buy:
		if price >= sig.TargetPrice {
			return Profit
		}
		if price <= sig.StopPrice {
			return Loss
		}
	case Sell:
		if price <= sig.TargetPrice {
			return Profit
		}
		if price >= sig.StopPrice {
			return Loss
		}
	}
	return Active
}

// Evaluate applies price at time t and returns the resulting state.
func (tr *Tracker) Evaluate(price float64, t time.Time) State {
	if tr.State.Terminal() {
		return tr.State
	}
	if st := Transition(tr.Signal, price); st != Active {
		tr.close(st, price, t)
	}
	return tr.State
}

// EvaluateCandle checks the bar's extremes instead of a single price and
// fills at the target or stop level. Target is checked first, as in
// Transition.
func (tr *Tracker) EvaluateCandle(c market.Candle) State {
	if tr.State.Terminal() {
		return tr.State
	}
	sig := tr.Signal
	favourable, adverse := c.High, c.Low
	if sig.Direction == Sell {
		favourable, adverse = c.Low, c.High
	}
	switch {
	case Transition(sig, favourable) == Profit:
		tr.close(Profit, sig.TargetPrice, c.Time)
	case Transition(sig, adverse) == Loss:
		tr.close(Loss, sig.StopPrice, c.Time)
	}
	return tr.State
}

// ForceClose flattens an active signal at price with TIME_EXIT.
func (tr *Tracker) ForceClose(price float64, t time.Time) State {
	if !tr.State.Terminal() {
		tr.close(TimeExit, price, t)
	}
	return tr.State
}

// Elapsed is the holding time at t.
func (tr *Tracker) Elapsed(t time.Time) time.Duration {
	return t.Sub(tr.Signal.CreatedAt)
}

// Pips is the direction-aware distance from entry to exit (or to price
// while active) in pips.
func (tr *Tracker) Pips(price, pipSize float64) float64 {
	if tr.State.Terminal() {
		price = tr.ExitPrice
	}
	return market.ToPips(tr.Signal.Direction.Sign()*(price-tr.Signal.EntryPrice), pipSize)
}

func (tr *Tracker) close(st State, price float64, t time.Time) {
	tr.State = st
	tr.ExitPrice = price
	tr.ExitTime = t
}
