package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// LotUnits is the number of base-currency units in one lot.
const LotUnits = 10_000

// PriceToPips scales a price difference into the pips the simulator sizes
// and prices trades in. It is the same for every instrument.
const PriceToPips = 10_000

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// RR is |target-entry| / |entry-stop|, 0 when the stop sits on entry.
func RR(entry, stop, takeProfit float64) float64 {
	risk := abs(entry - stop)
	reward := abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// Sizing is the fixed-fractional position size for one trade.
type Sizing struct {
	RiskAmount float64 `json:"risk_amount"`
	StopPips   float64 `json:"stop_pips"`
	RawLots    float64 `json:"raw_lots"`
	Lots       float64 `json:"lots"`
}

// SizePosition risks RiskPerTradePct of the balance over the stop
// distance, clamps to [minLot, maxLot] and rounds down to 0.1 lot.
func SizePosition(acct AccountConfig, entry, stop, pipValue, minLot, maxLot float64) (Sizing, *Violation) {
	stopPips := abs(entry-stop) * PriceToPips
	if stopPips <= 0 || math.IsNaN(stopPips) || math.IsInf(stopPips, 0) {
		return Sizing{}, violation(CodeInvalidStop, "stop distance must be > 0 (entry %.5f stop %.5f)", entry, stop)
	}
	if pipValue <= 0 {
		return Sizing{}, violation(CodeUnknownSymbol, "pip value must be > 0")
	}

	s := Sizing{
		RiskAmount: acct.Balance * acct.RiskPerTradePct / 100,
		StopPips:   stopPips,
	}
	s.RawLots = s.RiskAmount / (stopPips * pipValue)

	lots := s.RawLots
	if minLot > 0 && lots < minLot {
		lots = minLot
	}
	if maxLot > 0 && lots > maxLot {
		lots = maxLot
	}
	s.Lots = floorStep(lots)
	if s.Lots <= 0 {
		return s, violation(CodePositionTooSmall, "position %.3f lots rounds to zero", lots)
	}
	return s, nil
}

// floorStep rounds down to 0.1 lot, tolerating float error just below a step.
func floorStep(lots float64) float64 {
	return math.Floor(lots*10+1e-9) / 10
}

// Round rounds a currency amount to 2 decimals, half away from zero.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
