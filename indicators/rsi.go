package indicators

import (
	"fmt"

	"github.com/rustyeddy/torb/market"
)

// RSI is Wilder's Relative Strength Index over candle closes.
// The first average gain/loss is the simple mean of the first period
// changes, later values use Wilder smoothing.
type RSI struct {
	period int

	prev    float64
	hasPrev bool
	changes int

	avgGain float64
	avgLoss float64
	value   float64
}

func NewRSI(period int) *RSI {
	if period <= 0 {
		period = 14
	}
	return &RSI{period: period}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }

// Warmup counts candles: period changes need period+1 closes.
func (r *RSI) Warmup() int { return r.period + 1 }

func (r *RSI) Reset() {
	*r = RSI{period: r.period}
}

func (r *RSI) Update(c market.Candle) {
	if !r.hasPrev {
		r.prev = c.Close
		r.hasPrev = true
		return
	}

	change := c.Close - r.prev
	r.prev = c.Close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	r.changes++
	n := float64(r.period)
	if r.changes <= r.period {
		r.avgGain += gain / n
		r.avgLoss += loss / n
	} else {
		r.avgGain = (r.avgGain*(n-1) + gain) / n
		r.avgLoss = (r.avgLoss*(n-1) + loss) / n
	}

	if r.changes >= r.period {
		r.value = rsiFrom(r.avgGain, r.avgLoss)
	}
}

func (r *RSI) Ready() bool { return r.changes >= r.period }

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	return r.value
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// RSIFunc computes the RSI of the closing prices in candles.
func RSIFunc(candles []market.Candle, period int) (float64, error) {
	r := NewRSI(period)
	if len(candles) < r.Warmup() {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", r.Warmup(), len(candles))
	}
	for _, c := range candles {
		r.Update(c)
	}
	return r.Value(), nil
}
