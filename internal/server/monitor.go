package server

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/journal"
	"github.com/rustyeddy/torb/market"
	"github.com/rustyeddy/torb/risk"
	"github.com/rustyeddy/torb/torb"
)

var (
	ErrStaleCandle   = errors.New("candle is not newer than the last one")
	ErrInvalidCandle = errors.New("invalid candle")
)

// Message is a runner event as published to clients. Closed signals carry
// the simulated trade.
type Message struct {
	torb.Event
	Trade *backtest.TradeRecord `json:"trade,omitempty"`
}

// Monitor runs live candles through one torb.Runner per instrument using
// the same options and risk gate as a backtest. Safe for concurrent use.
type Monitor struct {
	engine  *backtest.Engine
	journal journal.Journal
	publish func(Message)
	log     *zap.Logger

	mu      sync.Mutex
	runners map[string]*torb.Runner
	last    map[string]time.Time
}

// NewMonitor builds a monitor. j and publish may be nil.
func NewMonitor(e *backtest.Engine, j journal.Journal, publish func(Message), log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		engine:  e,
		journal: j,
		publish: publish,
		log:     log,
		runners: make(map[string]*torb.Runner),
		last:    make(map[string]time.Time),
	}
}

func (m *Monitor) runner(inst market.InstrumentConfig) *torb.Runner {
	if r, ok := m.runners[inst.Symbol]; ok {
		return r
	}
	cfg := m.engine.Options.RunnerConfig(inst.Symbol, m.engine.SessionFor(inst.Symbol))
	// nothing stays open past the session in live mode
	cfg.FlattenAtTradingEnd = true
	gate := func(sig torb.Signal) error {
		pre := risk.Preflight(risk.ParamsFromSignal(sig), m.engine.Account, inst)
		if pre.Valid {
			return nil
		}
		return &risk.Violation{Code: pre.Code, Msg: pre.Reason}
	}
	r := torb.NewRunner(cfg, gate)
	m.runners[inst.Symbol] = r
	return r
}

// Push feeds one closed candle for symbol. Candles must arrive in strictly
// increasing time order per symbol.
func (m *Monitor) Push(symbol string, c market.Candle) ([]Message, error) {
	inst, err := market.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, ErrInvalidCandle
	}

	m.mu.Lock()
	if last, ok := m.last[inst.Symbol]; ok && !c.Time.After(last) {
		m.mu.Unlock()
		return nil, fmt.Errorf("%s %s: %w", inst.Symbol, c.Time.Format(time.RFC3339), ErrStaleCandle)
	}
	m.last[inst.Symbol] = c.Time
	r := m.runner(inst)
	events := r.OnCandle(c)
	m.mu.Unlock()

	msgs := make([]Message, 0, len(events))
	for _, ev := range events {
		msg := Message{Event: ev}
		if ev.Kind == torb.EventClosed {
			tr := ev.Tracker
			sim := risk.SimulateTrade(risk.ParamsFromSignal(tr.Signal), m.engine.Account, inst, tr.ExitPrice)
			rec := backtest.NewTradeRecord(tr, sim, inst.PipSize())
			msg.Trade = &rec
			if m.journal != nil {
				if err := m.journal.RecordTrade(rec); err != nil {
					m.log.Error("journal trade", zap.String("id", rec.ID), zap.Error(err))
				}
			}
		}
		m.log.Info("signal event",
			zap.String("symbol", ev.Symbol),
			zap.String("kind", string(ev.Kind)),
			zap.String("reason", ev.Reason),
			zap.Time("time", ev.Time))
		if m.publish != nil {
			m.publish(msg)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Last is the time of the newest candle accepted for symbol.
func (m *Monitor) Last(symbol string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.last[market.NormalizeSymbol(symbol)]
	return t, ok
}

// Active returns a snapshot of every signal in flight, ordered by symbol.
func (m *Monitor) Active() []torb.Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []torb.Tracker{}
	for _, r := range m.runners {
		if tr := r.Active(); tr != nil {
			out = append(out, *tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signal.Symbol < out[j].Signal.Symbol })
	return out
}
