package torb

import (
	"math"
	"time"
)

const (
	rsiBuyMin  = 55.0
	rsiSellMax = 45.0

	// momentum tolerance around the previous close
	momentumBand = 0.001
)

// DetectInput is everything the breakout decision looks at. PrevClose and
// RSI are optional filters: nil disables the filter, it never blocks.
type DetectInput struct {
	Symbol    string
	Price     float64
	Time      time.Time
	Range     *Range
	PrevClose *float64
	RSI       *float64

	// Active is true when the instrument already has a signal in flight.
	Active bool
}

// Rejection explains why Detect returned nil.
type Rejection string

const (
	RejectNone          Rejection = ""
	RejectActive        Rejection = "signal already active"
	RejectNoRange       Rejection = "no tradable range"
	RejectStaleRange    Rejection = "range belongs to another session"
	RejectOutsideWindow Rejection = "outside trading window"
	RejectInsideRange   Rejection = "price inside range"
	RejectRSI           Rejection = "rsi filter"
	RejectMomentum      Rejection = "momentum filter"
	RejectBadPrice      Rejection = "invalid price"
)

// Detect returns a new signal when price has broken out of the range
// during the trading window, or nil.
func Detect(in DetectInput, s SessionSettings, pipSize float64) *Signal {
	sig, _ := DetectWithReason(in, s, pipSize)
	return sig
}

// DetectWithReason is Detect plus the reason a candidate was rejected.
func DetectWithReason(in DetectInput, s SessionSettings, pipSize float64) (*Signal, Rejection) {
	if in.Active {
		return nil, RejectActive
	}
	if in.Range == nil {
		return nil, RejectNoRange
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price <= 0 {
		return nil, RejectBadPrice
	}

	w := s.Window(in.Time)
	if in.Range.Session != "" && in.Range.Session != w.Date {
		return nil, RejectStaleRange
	}
	if !w.InTradingWindow(in.Time) {
		return nil, RejectOutsideWindow
	}

	r := in.Range
	var (
		dir      Direction
		edge     float64
		opposite float64
	)

	switch {
	case in.Price > r.High:
		if in.RSI != nil && *in.RSI <= rsiBuyMin {
			return nil, RejectRSI
		}
		if in.PrevClose != nil && in.Price <= *in.PrevClose*(1-momentumBand) {
			return nil, RejectMomentum
		}
		dir, edge, opposite = Buy, r.High, r.Low

	case in.Price < r.Low:
		if in.RSI != nil && *in.RSI >= rsiSellMax {
			return nil, RejectRSI
		}
		if in.PrevClose != nil && in.Price >= *in.PrevClose*(1+momentumBand) {
			return nil, RejectMomentum
		}
		dir, edge, opposite = Sell, r.Low, r.High

	default:
		return nil, RejectInsideRange
	}

	sign := dir.Sign()
	distance := math.Abs(in.Price - edge)
	buffer := s.StopLossBufferPips * pipSize

	return &Signal{
		Symbol:      in.Symbol,
		Direction:   dir,
		EntryPrice:  in.Price,
		TargetPrice: in.Price + sign*distance*s.ProfitMultiplier,
		StopPrice:   opposite - sign*buffer,
		RangeHigh:   r.High,
		RangeLow:    r.Low,
		RangeWidth:  r.WidthPips,
		Session:     w.Date,
		CreatedAt:   in.Time,
	}, RejectNone
}
