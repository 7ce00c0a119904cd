package torb

import (
	"math"
	"time"

	"github.com/rustyeddy/torb/market"
)

// Range is the high/low band of one session's observation window.
type Range struct {
	Session   string    `json:"session"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	WidthPips float64   `json:"width_pips"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Candles   int       `json:"candles"`
}

type RangeStatus string

const (
	RangeOK        RangeStatus = "OK"
	RangeNoCandles RangeStatus = "NO_CANDLES"
	RangeTooNarrow RangeStatus = "TOO_NARROW"
	RangeTooWide   RangeStatus = "TOO_WIDE"
)

// RangeCheck is InspectRange's result. Range is nil unless Status is RangeOK;
// the measured band is kept in High/Low/WidthPips for rejected ranges.
type RangeCheck struct {
	Status    RangeStatus `json:"status"`
	Range     *Range      `json:"range,omitempty"`
	High      float64     `json:"high,omitempty"`
	Low       float64     `json:"low,omitempty"`
	WidthPips float64     `json:"width_pips,omitempty"`
}

// CalculateRange derives the session range for the session containing ref.
// It returns nil when no candle falls in [RangeStart, RangeEnd) or the
// width is outside [MinRangeWidthPips, MaxRangeWidthPips].
func CalculateRange(candles []market.Candle, ref time.Time, s SessionSettings, pipSize float64) *Range {
	return InspectRange(candles, ref, s, pipSize).Range
}

// InspectRange is CalculateRange with the rejection reason.
func InspectRange(candles []market.Candle, ref time.Time, s SessionSettings, pipSize float64) RangeCheck {
	w := s.Window(ref)

	high, low := math.Inf(-1), math.Inf(1)
	n := 0
	for _, c := range candles {
		if !w.InRangeWindow(c.Time) {
			continue
		}
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
		n++
	}
	if n == 0 {
		return RangeCheck{Status: RangeNoCandles}
	}

	width := roundPips(market.ToPips(high-low, pipSize))
	chk := RangeCheck{High: high, Low: low, WidthPips: width}

	switch {
	case width < s.MinRangeWidthPips:
		chk.Status = RangeTooNarrow
	case width > s.MaxRangeWidthPips:
		chk.Status = RangeTooWide
	default:
		chk.Status = RangeOK
		chk.Range = &Range{
			Session:   w.Date,
			High:      high,
			Low:       low,
			WidthPips: width,
			StartTime: w.RangeStart,
			EndTime:   w.RangeEnd,
			Candles:   n,
		}
	}
	return chk
}

// roundPips rounds to 0.1 pip so float noise in (high-low)/pip does not
// push a boundary width out of an inclusive filter.
func roundPips(p float64) float64 {
	return math.Round(p*10) / 10
}
