package risk

import "fmt"

// Code identifies why a trade was not simulated.
type Code string

const (
	CodeOK                 Code = ""
	CodeInvalidStop        Code = "INVALID_STOP"
	CodeUnknownSymbol      Code = "UNKNOWN_SYMBOL"
	CodeInvalidAccount     Code = "INVALID_ACCOUNT"
	CodeInvalidPrice       Code = "INVALID_PRICE"
	CodePositionTooSmall   Code = "POSITION_TOO_SMALL"
	CodeInsufficientMargin Code = "INSUFFICIENT_MARGIN"
)

// MaxMarginUsage is the share of balance a single position may tie up.
const MaxMarginUsage = 0.95

// Violation is a business-rule rejection. It implements error so callers
// that only need a yes/no can treat it as one.
type Violation struct {
	Code Code
	Msg  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Msg)
}

func violation(code Code, format string, args ...any) *Violation {
	return &Violation{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// MarginCheck is the outcome of CheckMargin.
type MarginCheck struct {
	Required float64 `json:"required"`
	Usage    float64 `json:"usage"` // Required / balance
	OK       bool    `json:"ok"`
}

// CheckMargin computes the margin a position of size lots needs at entry
// and whether it stays within MaxMarginUsage of the balance. A zero
// marginRatePct falls back to the account's MarginRequirementPct.
func CheckMargin(size, entry, marginRatePct float64, acct AccountConfig) MarginCheck {
	if marginRatePct <= 0 {
		marginRatePct = acct.MarginRequirementPct
	}
	lev := acct.Leverage
	if lev <= 0 {
		lev = 1
	}
	req := size * LotUnits * entry * marginRatePct / (100 * float64(lev))
	mc := MarginCheck{Required: Round(req)}
	if acct.Balance > 0 {
		mc.Usage = req / acct.Balance
		mc.OK = mc.Usage <= MaxMarginUsage
	}
	return mc
}
