package risk

import (
	"math"

	"github.com/rustyeddy/torb/market"
	"github.com/rustyeddy/torb/torb"
)

// TradeParams describes the trade to simulate.
type TradeParams struct {
	Symbol         string         `json:"symbol"`
	Direction      torb.Direction `json:"direction"`
	EntryPrice     float64        `json:"entry_price"`
	StopLoss       float64        `json:"stop_loss"`
	TakeProfit     float64        `json:"take_profit"`
	RangeWidthPips float64        `json:"range_width_pips"`
}

// ParamsFromSignal builds TradeParams for a detected signal.
func ParamsFromSignal(sig torb.Signal) TradeParams {
	return TradeParams{
		Symbol:         sig.Symbol,
		Direction:      sig.Direction,
		EntryPrice:     sig.EntryPrice,
		StopLoss:       sig.StopPrice,
		TakeProfit:     sig.TargetPrice,
		RangeWidthPips: sig.RangeWidth,
	}
}

// TradeResult is the simulated outcome of one trade. When Valid is false
// only Code and Reason (and whatever was computed before the rejection)
// are meaningful.
type TradeResult struct {
	Valid  bool   `json:"valid"`
	Code   Code   `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`

	Symbol       string         `json:"symbol"`
	Direction    torb.Direction `json:"direction"`
	EntryPrice   float64        `json:"entry_price"`
	ExitPrice    float64        `json:"exit_price"`
	PositionSize float64        `json:"position_size"` // lots
	RiskAmount   float64        `json:"risk_amount"`
	StopPips     float64        `json:"stop_pips"`

	RequiredMargin float64 `json:"required_margin"`
	MarginUsage    float64 `json:"margin_usage"`

	SpreadCost float64 `json:"spread_cost"`
	Commission float64 `json:"commission"`
	Pips       float64 `json:"pips"`
	PnL        float64 `json:"pnl"`
	RR         float64 `json:"rr"`
}

// Preflight sizes the trade and checks its margin without an exit price.
// The backtester uses it to decide whether a signal is tradable at all.
func Preflight(p TradeParams, acct AccountConfig, inst market.InstrumentConfig) TradeResult {
	res := TradeResult{
		Symbol:     p.Symbol,
		Direction:  p.Direction,
		EntryPrice: p.EntryPrice,
		RR:         RR(p.EntryPrice, p.StopLoss, p.TakeProfit),
	}
	reject := func(v *Violation) TradeResult {
		res.Code, res.Reason = v.Code, v.Msg
		return res
	}

	if inst.Symbol == "" || inst.PipValue <= 0 {
		return reject(violation(CodeUnknownSymbol, "no instrument config for %q", p.Symbol))
	}
	if acct.Balance <= 0 || math.IsNaN(acct.Balance) {
		return reject(violation(CodeInvalidAccount, "balance must be > 0"))
	}
	if !validPrice(p.EntryPrice) || !validPrice(p.StopLoss) {
		return reject(violation(CodeInvalidPrice, "entry and stop must be positive prices"))
	}
	if p.Direction != torb.Buy && p.Direction != torb.Sell {
		return reject(violation(CodeInvalidStop, "unknown direction %q", p.Direction))
	}

	sz, v := SizePosition(acct, p.EntryPrice, p.StopLoss, inst.PipValue, inst.MinLotSize, inst.MaxLotSize)
	res.StopPips = sz.StopPips
	res.RiskAmount = Round(sz.RiskAmount)
	if v != nil {
		return reject(v)
	}
	res.PositionSize = sz.Lots

	mc := CheckMargin(sz.Lots, p.EntryPrice, inst.MarginRatePct, acct)
	res.RequiredMargin = mc.Required
	res.MarginUsage = mc.Usage
	if !mc.OK {
		return reject(violation(CodeInsufficientMargin, "required margin %.2f is %.1f%% of balance %.2f",
			mc.Required, 100*mc.Usage, acct.Balance))
	}

	res.SpreadCost = Round(sz.Lots * inst.SpreadPips * inst.PipValue)
	res.Commission = Round(sz.Lots * inst.Commission)
	res.Valid = true
	return res
}

// SimulateTrade sizes, margin-checks and prices one trade exited at
// exitPrice. It is a pure function of its arguments. Pips here are price
// differences times PriceToPips, unlike TradeRecord pips which use the
// instrument pip size.
func SimulateTrade(p TradeParams, acct AccountConfig, inst market.InstrumentConfig, exitPrice float64) TradeResult {
	res := Preflight(p, acct, inst)
	if !res.Valid {
		return res
	}
	if !validPrice(exitPrice) {
		res.Valid = false
		res.Code, res.Reason = CodeInvalidPrice, "exit price must be a positive price"
		return res
	}

	res.ExitPrice = exitPrice
	res.Pips = p.Direction.Sign() * (exitPrice - p.EntryPrice) * PriceToPips
	res.PnL = Round(res.Pips*inst.PipValue*res.PositionSize - res.SpreadCost - res.Commission)
	return res
}

// SimulateSymbol is SimulateTrade with the instrument looked up by symbol.
func SimulateSymbol(p TradeParams, acct AccountConfig, exitPrice float64) TradeResult {
	inst, err := market.Lookup(p.Symbol)
	if err != nil {
		return TradeResult{Symbol: p.Symbol, Direction: p.Direction, Code: CodeUnknownSymbol, Reason: err.Error()}
	}
	return SimulateTrade(p, acct, inst, exitPrice)
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
