package server

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/torb/internal/oanda"
	"github.com/rustyeddy/torb/market"
)

// CandleSource returns the most recent complete candles, e.g. *oanda.Client.
type CandleSource interface {
	Candles(ctx context.Context, opts oanda.CandlesOptions) ([]market.Candle, error)
}

// Poller pulls closed candles on an interval and pushes new ones into a
// Monitor.
type Poller struct {
	Source      CandleSource
	Monitor     *Monitor
	Symbols     []string
	Granularity string
	Interval    time.Duration
	Log         *zap.Logger
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	t := time.NewTicker(p.Interval)
	defer t.Stop()
	for {
		p.Poll(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Poll fetches the last few candles of every symbol once. A failing symbol
// is logged and does not stop the others.
func (p *Poller) Poll(ctx context.Context) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	for _, sym := range p.Symbols {
		cs, err := p.Source.Candles(ctx, oanda.CandlesOptions{
			Instrument:  sym,
			Granularity: p.Granularity,
			Count:       5,
		})
		if err != nil {
			log.Warn("poll candles", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		for _, c := range cs {
			if _, err := p.Monitor.Push(sym, c); err != nil && !errors.Is(err, ErrStaleCandle) {
				log.Warn("push candle", zap.String("symbol", sym), zap.Error(err))
			}
		}
	}
}
