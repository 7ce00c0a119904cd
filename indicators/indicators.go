// Package indicators provides streaming technical indicators used as
// optional breakout filters.
package indicators

import "github.com/rustyeddy/torb/market"

// Indicator is fed one closed candle at a time. Value is 0 until Ready.
type Indicator interface {
	Name() string
	Warmup() int // updates needed before Ready
	Reset()
	Update(c market.Candle)
	Ready() bool
	Value() float64
}

var _ Indicator = (*RSI)(nil)
