package replay

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rustyeddy/torb/internal/server"
	"github.com/rustyeddy/torb/market"
	"github.com/rustyeddy/torb/torb"
)

// Options controls how replay behaves.
type Options struct {
	// Speed scales candle time to wall time: 60 plays one market hour per
	// minute. Zero replays as fast as possible.
	Speed float64
}

// Pusher consumes closed candles, e.g. *server.Monitor.
type Pusher interface {
	Push(symbol string, c market.Candle) ([]server.Message, error)
}

// Summary counts what a replay produced.
type Summary struct {
	Candles int
	Events  map[torb.EventKind]int
}

type tick struct {
	symbol string
	candle market.Candle
}

// merge interleaves the series into one stream ordered by time, then symbol.
func merge(series map[string][]market.Candle) []tick {
	var out []tick
	for sym, cs := range series {
		cs, _ = market.Normalize(cs)
		for _, c := range cs {
			out = append(out, tick{symbol: market.NormalizeSymbol(sym), candle: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].candle.Time, out[j].candle.Time
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].symbol < out[j].symbol
	})
	return out
}

// Candles feeds every series through p as if the candles were closing live,
// calling fn for each resulting message. Candles p already saw are skipped.
func Candles(ctx context.Context, p Pusher, series map[string][]market.Candle, opts Options, fn func(server.Message)) (Summary, error) {
	sum := Summary{Events: map[torb.EventKind]int{}}

	var prev time.Time
	for _, t := range merge(series) {
		if opts.Speed > 0 && !prev.IsZero() {
			if err := sleep(ctx, time.Duration(float64(t.candle.Time.Sub(prev))/opts.Speed)); err != nil {
				return sum, err
			}
		} else if err := ctx.Err(); err != nil {
			return sum, err
		}
		prev = t.candle.Time

		msgs, err := p.Push(t.symbol, t.candle)
		if errors.Is(err, server.ErrStaleCandle) {
			continue
		}
		if err != nil {
			return sum, err
		}
		sum.Candles++
		for _, m := range msgs {
			sum.Events[m.Kind]++
			if fn != nil {
				fn(m)
			}
		}
	}
	return sum, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
