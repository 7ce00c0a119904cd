package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/torb/market"
	"github.com/rustyeddy/torb/risk"
	"github.com/rustyeddy/torb/torb"
)

// Engine replays candle series through the TORB pipeline. An Engine holds
// configuration only, so one value may run several instruments at once.
type Engine struct {
	Account  risk.AccountConfig
	Settings torb.SessionSettings
	Options  Options

	// Sessions overrides the built-in session hours per symbol.
	Sessions map[string]market.SessionTimes

	Log *zap.Logger
}

func NewEngine(acct risk.AccountConfig, s torb.SessionSettings, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Account: acct, Settings: s, Options: opts, Log: log}
}

// Result is the outcome of replaying one instrument.
type Result struct {
	Symbol   string               `json:"symbol"`
	Settings torb.SessionSettings `json:"settings"`
	Start    time.Time            `json:"start"`
	End      time.Time            `json:"end"`
	Candles  int                  `json:"candles"`

	Trades []TradeRecord `json:"trades"`
	Stats  Stats         `json:"stats"`

	// Skipped counts signals that failed sizing or margin, by reason code.
	Skipped map[risk.Code]int `json:"skipped,omitempty"`
	// RangeRejections counts sessions whose range was filtered out.
	RangeRejections map[torb.RangeStatus]int `json:"range_rejections,omitempty"`
	Normalize       market.NormalizeReport   `json:"normalize"`
}

// SessionFor is the session settings used when replaying symbol.
func (e *Engine) SessionFor(symbol string) torb.SessionSettings {
	s := e.Settings
	if inst, err := market.Lookup(symbol); err == nil {
		s = s.ForInstrument(inst)
	}
	if st, ok := e.Sessions[market.NormalizeSymbol(symbol)]; ok {
		s = s.WithSession(st)
	}
	return s
}

// Run replays candles for one symbol. Malformed or out-of-order candles are
// dropped up front. Signals that fail the trade simulation are skipped and
// the run continues.
func (e *Engine) Run(ctx context.Context, symbol string, candles []market.Candle) (*Result, error) {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	inst, err := market.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("backtest %s: %w", symbol, err)
	}
	s := e.SessionFor(symbol)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("backtest %s: %w", symbol, err)
	}

	cs, rep := market.Normalize(candles)
	if len(cs) == 0 {
		return nil, fmt.Errorf("backtest %s: %w", symbol, market.ErrEmptySeries)
	}
	if rep.Kept != rep.Input {
		log.Warn("candles dropped",
			zap.String("symbol", inst.Symbol),
			zap.Int("duplicates", rep.Duplicates),
			zap.Int("invalid", rep.Invalid))
	}

	res := &Result{
		Symbol:          inst.Symbol,
		Settings:        s,
		Start:           cs[0].Time,
		End:             cs[len(cs)-1].Time,
		Candles:         len(cs),
		Skipped:         map[risk.Code]int{},
		RangeRejections: map[torb.RangeStatus]int{},
		Normalize:       rep,
	}

	var lastSkip *risk.Violation
	gate := func(sig torb.Signal) error {
		pre := risk.Preflight(risk.ParamsFromSignal(sig), e.Account, inst)
		if pre.Valid {
			return nil
		}
		lastSkip = &risk.Violation{Code: pre.Code, Msg: pre.Reason}
		return lastSkip
	}

	cfg := e.Options.RunnerConfig(inst.Symbol, s)
	r := torb.NewRunner(cfg, gate)

	handle := func(ev torb.Event) {
		switch ev.Kind {
		case torb.EventOpened:
			log.Debug("signal opened",
				zap.String("symbol", ev.Symbol),
				zap.String("direction", string(ev.Signal.Direction)),
				zap.Float64("entry", ev.Signal.EntryPrice),
				zap.Time("time", ev.Time))

		case torb.EventClosed:
			tr := ev.Tracker
			sim := risk.SimulateTrade(risk.ParamsFromSignal(tr.Signal), e.Account, inst, tr.ExitPrice)
			rec := NewTradeRecord(tr, sim, cfg.PipSize)
			res.Trades = append(res.Trades, rec)
			log.Debug("signal closed",
				zap.String("symbol", ev.Symbol),
				zap.String("reason", ev.Reason),
				zap.Float64("pips", rec.Pips),
				zap.Float64("pnl", rec.PnL))

		case torb.EventSkipped:
			code := risk.Code(ev.Reason)
			if lastSkip != nil {
				code = lastSkip.Code
			}
			res.Skipped[code]++
			log.Debug("signal skipped", zap.String("symbol", ev.Symbol), zap.String("reason", ev.Reason))

		case torb.EventRejected:
			res.RangeRejections[ev.Range.Status]++
			log.Debug("range rejected",
				zap.String("symbol", ev.Symbol),
				zap.String("status", ev.Reason),
				zap.Float64("width_pips", ev.Range.WidthPips))
		}
	}

	for i, c := range cs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for _, ev := range r.OnCandle(c) {
			handle(ev)
		}
	}

	if e.Options.CloseAtEnd {
		if px, ts, ok := r.LastClose(); ok {
			if ev := r.Flatten(px, ts); ev != nil {
				handle(*ev)
			}
		}
	}

	res.Stats = ComputeStats(res.Trades)
	log.Info("backtest complete",
		zap.String("symbol", res.Symbol),
		zap.Int("candles", res.Candles),
		zap.Int("trades", res.Stats.TotalTrades),
		zap.Float64("win_rate", res.Stats.WinRate),
		zap.Float64("pips", res.Stats.TotalPips))
	return res, nil
}
