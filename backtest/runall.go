package backtest

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/torb/market"
)

// Combined is the result of replaying several instruments.
type Combined struct {
	Results map[string]*Result `json:"results"`
	Trades  []TradeRecord      `json:"trades"` // all instruments, entry order
	Stats   Stats              `json:"stats"`
}

// Symbols returns the replayed symbols in sorted order.
func (c *Combined) Symbols() []string {
	out := make([]string, 0, len(c.Results))
	for s := range c.Results {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// RunAll replays each series in parallel with its own session settings and
// merges the trade lists. The first failing instrument cancels the rest.
func RunAll(ctx context.Context, e *Engine, series map[string][]market.Candle) (*Combined, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	var mu sync.Mutex
	out := &Combined{Results: make(map[string]*Result, len(series))}

	for symbol, candles := range series {
		symbol, candles := symbol, candles
		g.Go(func() error {
			res, err := e.Run(ctx, symbol, candles)
			if err != nil {
				return err
			}
			mu.Lock()
			out.Results[res.Symbol] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range out.Symbols() {
		out.Trades = append(out.Trades, out.Results[s].Trades...)
	}
	out.Trades = sortedByEntry(out.Trades)
	out.Stats = ComputeStats(out.Trades)
	return out, nil
}
