// market/instruments.go
package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var ErrUnknownInstrument = errors.New("unknown instrument")

// SessionTimes is the opening session an instrument's range is taken from,
// in the instrument's local session timezone.
type SessionTimes struct {
	Timezone   string    `json:"timezone" yaml:"timezone"`
	RangeStart ClockTime `json:"range_start" yaml:"range_start"`
	RangeEnd   ClockTime `json:"range_end" yaml:"range_end"`
	TradingEnd ClockTime `json:"trading_end" yaml:"trading_end"`
}

// InstrumentConfig is the static trading metadata for one symbol.
// A lot is 10,000 units of the base currency.
type InstrumentConfig struct {
	Symbol        string  `json:"symbol"`
	BaseCurrency  string  `json:"base_currency"`
	QuoteCurrency string  `json:"quote_currency"`
	PipLocation   int     `json:"pip_location"`
	SpreadPips    float64 `json:"spread_pips"`
	Commission    float64 `json:"commission"`
	PipValue      float64 `json:"pip_value"` // per lot, in minor units of the account currency
	MinLotSize    float64 `json:"min_lot_size"`
	MaxLotSize    float64 `json:"max_lot_size"`
	MarginRatePct float64 `json:"margin_rate_pct"`

	Session SessionTimes `json:"session"`
}

// PipSize is the size of 1 pip in price units, e.g. EURUSD: 0.0001, USDJPY: 0.01
func (i InstrumentConfig) PipSize() float64 {
	return PipSize(i.PipLocation)
}

var tokyo = SessionTimes{
	Timezone:   "Asia/Tokyo",
	RangeStart: ClockTime{Hour: 9},
	RangeEnd:   ClockTime{Hour: 9, Minute: 45},
	TradingEnd: ClockTime{Hour: 15},
}

var london = SessionTimes{
	Timezone:   "Europe/London",
	RangeStart: ClockTime{Hour: 8},
	RangeEnd:   ClockTime{Hour: 8, Minute: 45},
	TradingEnd: ClockTime{Hour: 12},
}

var Instruments = map[string]InstrumentConfig{
	"USD_JPY": {
		Symbol:        "USD_JPY",
		BaseCurrency:  "USD",
		QuoteCurrency: "JPY",
		PipLocation:   -2,
		SpreadPips:    0.2,
		PipValue:      100,
		MinLotSize:    0.1,
		MaxLotSize:    100,
		MarginRatePct: 4,
		Session:       tokyo,
	},
	"EUR_USD": {
		Symbol:        "EUR_USD",
		BaseCurrency:  "EUR",
		QuoteCurrency: "USD",
		PipLocation:   -4,
		SpreadPips:    0.3,
		PipValue:      100,
		MinLotSize:    0.1,
		MaxLotSize:    100,
		MarginRatePct: 4,
		Session:       london,
	},
	"GBP_JPY": {
		Symbol:        "GBP_JPY",
		BaseCurrency:  "GBP",
		QuoteCurrency: "JPY",
		PipLocation:   -2,
		SpreadPips:    1.0,
		PipValue:      100,
		MinLotSize:    0.1,
		MaxLotSize:    100,
		MarginRatePct: 4,
		Session:       tokyo,
	},
	"AUD_JPY": {
		Symbol:        "AUD_JPY",
		BaseCurrency:  "AUD",
		QuoteCurrency: "JPY",
		PipLocation:   -2,
		SpreadPips:    0.5,
		PipValue:      100,
		MinLotSize:    0.1,
		MaxLotSize:    100,
		MarginRatePct: 4,
		Session:       tokyo,
	},
}

// NormalizeSymbol maps "USD/JPY", "usdjpy" and "USD_JPY" to "USD_JPY".
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("/", "_", "-", "_").Replace(s)
	if len(s) == 6 && !strings.Contains(s, "_") {
		s = s[:3] + "_" + s[3:]
	}
	return s
}

// Lookup returns the instrument config for any accepted spelling of symbol.
func Lookup(symbol string) (InstrumentConfig, error) {
	inst, ok := Instruments[NormalizeSymbol(symbol)]
	if !ok {
		return InstrumentConfig{}, fmt.Errorf("%w: %s", ErrUnknownInstrument, symbol)
	}
	return inst, nil
}

// Symbols returns the configured symbols in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(Instruments))
	for s := range Instruments {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// PipSize converts a pip location (negative for FX) into price units.
func PipSize(loc int) float64 {
	return math.Pow10(loc)
}

// PipSizeFor guesses the pip size from the symbol alone: JPY-quoted pairs
// use 0.01, everything else 0.0001.
func PipSizeFor(symbol string) float64 {
	if inst, err := Lookup(symbol); err == nil {
		return inst.PipSize()
	}
	if strings.HasSuffix(NormalizeSymbol(symbol), "JPY") {
		return 0.01
	}
	return 0.0001
}

// ToPips converts a price distance into pips.
func ToPips(delta, pipSize float64) float64 {
	return delta / pipSize
}
