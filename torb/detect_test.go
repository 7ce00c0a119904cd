package torb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRange() *Range {
	return &Range{Session: "2024-01-09", High: 150.25, Low: 150.00, WidthPips: 25}
}

func detectAt(t *testing.T, price float64, ts time.Time) DetectInput {
	return DetectInput{Symbol: "USD_JPY", Price: price, Time: ts, Range: testRange()}
}

func TestDetectBuy(t *testing.T) {
	s := DefaultSettings()
	sig := Detect(detectAt(t, 150.35, jst(t, 9, 10, 0)), s, jpyPip)
	require.NotNil(t, sig)

	assert.Equal(t, Buy, sig.Direction)
	assert.Equal(t, 150.35, sig.EntryPrice)
	// breakout distance 0.10 * 1.5
	assert.InDelta(t, 150.50, sig.TargetPrice, 1e-9)
	// low - 3 pips
	assert.InDelta(t, 149.97, sig.StopPrice, 1e-9)
	assert.Equal(t, 150.25, sig.RangeHigh)
	assert.Equal(t, 150.00, sig.RangeLow)
	assert.Equal(t, "2024-01-09", sig.Session)
	assert.Equal(t, "USD_JPY", sig.Symbol)
}

func TestDetectSell(t *testing.T) {
	s := DefaultSettings()
	sig := Detect(detectAt(t, 149.90, jst(t, 9, 10, 0)), s, jpyPip)
	require.NotNil(t, sig)

	assert.Equal(t, Sell, sig.Direction)
	assert.InDelta(t, 149.75, sig.TargetPrice, 1e-9)
	assert.InDelta(t, 150.28, sig.StopPrice, 1e-9)
}

func TestDetectLargerGapLargerTarget(t *testing.T) {
	s := DefaultSettings()
	near := Detect(detectAt(t, 150.30, jst(t, 9, 10, 0)), s, jpyPip)
	far := Detect(detectAt(t, 150.60, jst(t, 9, 10, 0)), s, jpyPip)
	require.NotNil(t, near)
	require.NotNil(t, far)
	assert.Greater(t, far.TargetPrice-far.EntryPrice, near.TargetPrice-near.EntryPrice)
}

func TestDetectTradingWindow(t *testing.T) {
	s := DefaultSettings()

	tests := []struct {
		name string
		ts   time.Time
		ok   bool
	}{
		{"during range window", jst(t, 9, 9, 30), false},
		{"at range end", jst(t, 9, 9, 45), true},
		{"mid session", jst(t, 9, 12, 0), true},
		{"just before trading end", jst(t, 9, 14, 59), true},
		{"at trading end", jst(t, 9, 15, 0), false},
		{"evening", jst(t, 9, 20, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, why := DetectWithReason(detectAt(t, 150.35, tt.ts), s, jpyPip)
			if tt.ok {
				assert.NotNil(t, sig)
				assert.Equal(t, RejectNone, why)
			} else {
				assert.Nil(t, sig)
				assert.Equal(t, RejectOutsideWindow, why)
			}
		})
	}
}

func TestDetectRejections(t *testing.T) {
	s := DefaultSettings()
	at := jst(t, 9, 10, 0)

	in := detectAt(t, 150.10, at)
	sig, why := DetectWithReason(in, s, jpyPip)
	assert.Nil(t, sig)
	assert.Equal(t, RejectInsideRange, why)

	in = detectAt(t, 150.35, at)
	in.Range = nil
	_, why = DetectWithReason(in, s, jpyPip)
	assert.Equal(t, RejectNoRange, why)

	in = detectAt(t, 150.35, jst(t, 10, 10, 0))
	_, why = DetectWithReason(in, s, jpyPip)
	assert.Equal(t, RejectStaleRange, why)

	in = detectAt(t, 0, at)
	_, why = DetectWithReason(in, s, jpyPip)
	assert.Equal(t, RejectBadPrice, why)
}

func TestDetectSingleSignalInvariant(t *testing.T) {
	s := DefaultSettings()
	for _, price := range []float64{150.35, 149.90, 151.00, 148.00} {
		in := detectAt(t, price, jst(t, 9, 10, 0))
		require.NotNil(t, Detect(in, s, jpyPip))

		in.Active = true
		sig, why := DetectWithReason(in, s, jpyPip)
		assert.Nil(t, sig)
		assert.Equal(t, RejectActive, why)
	}
}

func TestDetectRSIFilter(t *testing.T) {
	s := DefaultSettings()
	at := jst(t, 9, 10, 0)

	tests := []struct {
		name  string
		price float64
		rsi   *float64
		ok    bool
	}{
		{"buy without rsi", 150.35, nil, true},
		{"buy rsi 55 rejected", 150.35, ptr(55), false},
		{"buy rsi 55.1", 150.35, ptr(55.1), true},
		{"sell without rsi", 149.90, nil, true},
		{"sell rsi 45 rejected", 149.90, ptr(45), false},
		{"sell rsi 44.9", 149.90, ptr(44.9), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := detectAt(t, tt.price, at)
			in.RSI = tt.rsi
			sig, why := DetectWithReason(in, s, jpyPip)
			if tt.ok {
				assert.NotNil(t, sig)
			} else {
				assert.Nil(t, sig)
				assert.Equal(t, RejectRSI, why)
			}
		})
	}
}

func TestDetectMomentumFilter(t *testing.T) {
	s := DefaultSettings()
	at := jst(t, 9, 10, 0)

	tests := []struct {
		name  string
		price float64
		prev  *float64
		ok    bool
	}{
		{"buy no prev", 150.35, nil, true},
		{"buy clears prev", 150.35, ptr(150.30), true},
		{"buy below prev band", 150.35, ptr(150.60), false},
		{"sell clears prev", 149.90, ptr(149.95), true},
		{"sell above prev band", 149.90, ptr(149.70), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := detectAt(t, tt.price, at)
			in.PrevClose = tt.prev
			sig, why := DetectWithReason(in, s, jpyPip)
			if tt.ok {
				assert.NotNil(t, sig)
			} else {
				assert.Nil(t, sig)
				assert.Equal(t, RejectMomentum, why)
			}
		})
	}
}

func TestDetectDirectionConsistency(t *testing.T) {
	s := DefaultSettings()
	at := jst(t, 9, 11, 0)
	for p := 148.0; p <= 152.0; p += 0.07 {
		sig := Detect(detectAt(t, p, at), s, jpyPip)
		if sig == nil {
			continue
		}
		switch sig.Direction {
		case Buy:
			assert.Greater(t, sig.TargetPrice, sig.EntryPrice, "price %v", p)
			assert.Greater(t, sig.EntryPrice, sig.StopPrice, "price %v", p)
		case Sell:
			assert.Greater(t, sig.StopPrice, sig.EntryPrice, "price %v", p)
			assert.Greater(t, sig.EntryPrice, sig.TargetPrice, "price %v", p)
		}
	}
}
