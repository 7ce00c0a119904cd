package market

import (
	"math"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) candlestick data
// for one bar. Time is the bar open, second resolution.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume,omitempty"`
}

// Valid reports whether the candle has finite, positive prices and a
// consistent high/low envelope.
func (c Candle) Valid() bool {
	if c.Time.IsZero() {
		return false
	}
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	return c.High >= c.Low
}
