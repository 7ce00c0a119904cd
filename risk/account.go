package risk

import (
	"errors"
	"fmt"
)

// AccountConfig is the account a simulation sizes trades against.
// Balance and all resulting currency amounts are in Currency.
type AccountConfig struct {
	Balance              float64 `json:"balance" yaml:"balance"`
	Leverage             int     `json:"leverage" yaml:"leverage"` // 1, 10 or 25
	MarginRequirementPct float64 `json:"margin_requirement_pct" yaml:"margin_requirement_pct"`
	RiskPerTradePct      float64 `json:"risk_per_trade_pct" yaml:"risk_per_trade_pct"`
	Currency             string  `json:"currency" yaml:"currency"`
}

// DefaultAccount is a 1,000,000 JPY account at 25x risking 1% per trade.
func DefaultAccount() AccountConfig {
	return AccountConfig{
		Balance:              1_000_000,
		Leverage:             25,
		MarginRequirementPct: 4,
		RiskPerTradePct:      1,
		Currency:             "JPY",
	}
}

var allowedLeverage = map[int]bool{1: true, 10: true, 25: true}

func (a AccountConfig) Validate() error {
	var errs []error
	if a.Balance <= 0 {
		errs = append(errs, fmt.Errorf("balance must be > 0"))
	}
	if !allowedLeverage[a.Leverage] {
		errs = append(errs, fmt.Errorf("leverage must be 1, 10 or 25 (got %d)", a.Leverage))
	}
	if a.RiskPerTradePct <= 0 || a.RiskPerTradePct > 100 {
		errs = append(errs, fmt.Errorf("risk_per_trade_pct must be in (0,100]"))
	}
	if a.MarginRequirementPct < 0 {
		errs = append(errs, fmt.Errorf("margin_requirement_pct must be >= 0"))
	}
	if a.Currency == "" {
		errs = append(errs, fmt.Errorf("currency is required"))
	}
	return errors.Join(errs...)
}
