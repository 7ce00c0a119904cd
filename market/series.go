package market

import (
	"errors"
	"sort"
	"time"
)

var ErrEmptySeries = errors.New("empty candle series")

// NormalizeReport counts what Normalize dropped.
type NormalizeReport struct {
	Input      int
	Kept       int
	Duplicates int
	Invalid    int
	Reordered  bool
}

// Normalize returns a copy of candles sorted by time, truncated to the
// second, with duplicates removed (keep-first policy) and invalid bars
// (NaN, non-positive prices, high < low) dropped.
func Normalize(candles []Candle) ([]Candle, NormalizeReport) {
	rep := NormalizeReport{Input: len(candles)}

	out := make([]Candle, 0, len(candles))
	for _, c := range candles {
		if !c.Valid() {
			rep.Invalid++
			continue
		}
		c.Time = c.Time.Truncate(time.Second)
		out = append(out, c)
	}

	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) }) {
		rep.Reordered = true
		sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	}

	n := 0
	for i, c := range out {
		if i > 0 && c.Time.Equal(out[n-1].Time) {
			rep.Duplicates++
			continue
		}
		out[n] = c
		n++
	}
	out = out[:n]
	rep.Kept = n
	return out, rep
}

// Between returns the sub-slice of a normalized series with times in [from, to).
// A zero bound is open.
func Between(candles []Candle, from, to time.Time) []Candle {
	lo := 0
	if !from.IsZero() {
		lo = sort.Search(len(candles), func(i int) bool { return !candles[i].Time.Before(from) })
	}
	hi := len(candles)
	if !to.IsZero() {
		hi = sort.Search(len(candles), func(i int) bool { return !candles[i].Time.Before(to) })
	}
	if hi < lo {
		return nil
	}
	return candles[lo:hi]
}
