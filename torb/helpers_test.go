package torb

import (
	"testing"
	"time"

	"github.com/rustyeddy/torb/market"
	"github.com/stretchr/testify/require"
)

const jpyPip = 0.01

func tokyo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	return loc
}

func jst(t *testing.T, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(2024, time.January, day, hour, min, 0, 0, tokyo(t))
}

func candleAt(ts time.Time, o, h, l, c float64) market.Candle {
	return market.Candle{Time: ts, Open: o, High: h, Low: l, Close: c}
}

func ptr(v float64) *float64 { return &v }

// flatSeries builds 15-minute candles at 150.10 +/- 0.02 from
// 2024-01-<fromDay> 00:00 JST through <toDay> 23:45 JST, then applies
// overrides keyed by "day hh:mm".
func flatSeries(t *testing.T, fromDay, toDay int, overrides map[string]market.Candle) []market.Candle {
	t.Helper()
	start := jst(t, fromDay, 0, 0)
	end := jst(t, toDay+1, 0, 0)

	var out []market.Candle
	for ts := start; ts.Before(end); ts = ts.Add(15 * time.Minute) {
		c := candleAt(ts, 150.10, 150.12, 150.08, 150.10)
		if o, ok := overrides[ts.Format("02 15:04")]; ok {
			o.Time = ts
			c = o
		}
		out = append(out, c)
	}
	return out
}

func bo(o, h, l, c float64) market.Candle {
	return market.Candle{Open: o, High: h, Low: l, Close: c}
}
