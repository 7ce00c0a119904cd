package torb

import (
	"time"

	"github.com/rustyeddy/torb/indicators"
	"github.com/rustyeddy/torb/market"
	"github.com/rustyeddy/torb/pkg/id"
)

// RunnerConfig controls how a Runner replays candles for one instrument.
type RunnerConfig struct {
	Symbol   string
	Settings SessionSettings
	PipSize  float64

	Warmup        int           // candles that must precede the first detection
	RangeLookback int           // trailing candles handed to CalculateRange
	MaxHold       time.Duration // hard TIME_EXIT, 0 disables

	RSIPeriod         int
	UseRSIFilter      bool
	UseMomentumFilter bool

	IntrabarExits       bool // exits on candle high/low instead of close
	FlattenAtTradingEnd bool
	MaxTradesPerSession int // 0 = unlimited
}

// DefaultRunnerConfig returns the replay defaults for symbol with the
// instrument's own session hours substituted into s.
func DefaultRunnerConfig(symbol string, s SessionSettings) RunnerConfig {
	cfg := RunnerConfig{
		Symbol:            market.NormalizeSymbol(symbol),
		Settings:          s,
		PipSize:           market.PipSizeFor(symbol),
		Warmup:            20,
		RangeLookback:     50,
		MaxHold:           240 * time.Minute,
		RSIPeriod:         14,
		UseRSIFilter:      true,
		UseMomentumFilter: true,
	}
	if inst, err := market.Lookup(symbol); err == nil {
		cfg.Settings = s.ForInstrument(inst)
	}
	return cfg
}

type EventKind string

const (
	EventOpened   EventKind = "SIGNAL_OPENED"
	EventClosed   EventKind = "SIGNAL_CLOSED"
	EventSkipped  EventKind = "SIGNAL_SKIPPED"
	EventRejected EventKind = "RANGE_REJECTED"
)

// Event is what a Runner reports back for one candle.
type Event struct {
	Kind    EventKind   `json:"kind"`
	Symbol  string      `json:"symbol"`
	Time    time.Time   `json:"time"`
	Signal  *Signal     `json:"signal,omitempty"`
	Tracker *Tracker    `json:"tracker,omitempty"`
	Range   *RangeCheck `json:"range,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// Gate can veto a fresh signal before it becomes active, e.g. when the
// trade would fail a margin check. A non-nil error skips the signal.
type Gate func(Signal) error

// Runner is the per-instrument streaming driver: it feeds closed candles
// through range calculation, breakout detection and the tracker while
// holding at most one active signal. It is not safe for concurrent use.
type Runner struct {
	cfg  RunnerConfig
	gate Gate

	history []market.Candle
	rsi     indicators.Indicator
	seen    int

	active       *Tracker
	session      string
	sessionCount int
	lastRejected string
}

func NewRunner(cfg RunnerConfig, gate Gate) *Runner {
	if cfg.PipSize <= 0 {
		cfg.PipSize = market.PipSizeFor(cfg.Symbol)
	}
	if cfg.RangeLookback <= 0 {
		cfg.RangeLookback = 50
	}
	return &Runner{
		cfg:  cfg,
		gate: gate,
		rsi:  indicators.NewRSI(cfg.RSIPeriod),
	}
}

func (r *Runner) Config() RunnerConfig { return r.cfg }

// Active returns the signal in flight, or nil.
func (r *Runner) Active() *Tracker { return r.active }

// OnCandle consumes the next closed candle. Weekend candles (Saturday and
// Sunday in the session timezone) are ignored entirely.
func (r *Runner) OnCandle(c market.Candle) []Event {
	s := r.cfg.Settings
	if wd := s.Weekday(c.Time); wd == time.Saturday || wd == time.Sunday {
		return nil
	}
	if !c.Valid() {
		return nil
	}

	var prevClose *float64
	if n := len(r.history); n > 0 {
		pc := r.history[n-1].Close
		prevClose = &pc
	}
	r.push(c)
	r.rsi.Update(c)
	r.seen++

	if date := s.SessionDate(c.Time); date != r.session {
		r.session = date
		r.sessionCount = 0
	}

	if r.active != nil {
		if ev, closed := r.checkExit(c); closed {
			return []Event{ev}
		}
		return nil
	}

	if r.seen <= r.cfg.Warmup {
		return nil
	}
	if r.cfg.MaxTradesPerSession > 0 && r.sessionCount >= r.cfg.MaxTradesPerSession {
		return nil
	}

	chk := InspectRange(r.history, c.Time, s, r.cfg.PipSize)

	var events []Event
	if chk.Range == nil {
		if chk.Status != RangeNoCandles && r.lastRejected != r.session && s.Window(c.Time).InTradingWindow(c.Time) {
			r.lastRejected = r.session
			events = append(events, Event{Kind: EventRejected, Symbol: r.cfg.Symbol, Time: c.Time, Range: &chk, Reason: string(chk.Status)})
		}
		return events
	}

	in := DetectInput{
		Symbol: r.cfg.Symbol,
		Price:  c.Close,
		Time:   c.Time,
		Range:  chk.Range,
	}
	if r.cfg.UseMomentumFilter {
		in.PrevClose = prevClose
	}
	if r.cfg.UseRSIFilter && r.rsi.Ready() {
		v := r.rsi.Value()
		in.RSI = &v
	}

	sig := Detect(in, s, r.cfg.PipSize)
	if sig == nil {
		return nil
	}
	sig.ID = id.At(c.Time)

	if r.gate != nil {
		if err := r.gate(*sig); err != nil {
			return []Event{{Kind: EventSkipped, Symbol: r.cfg.Symbol, Time: c.Time, Signal: sig, Reason: err.Error()}}
		}
	}

	r.active = NewTracker(*sig)
	r.sessionCount++
	return []Event{{Kind: EventOpened, Symbol: r.cfg.Symbol, Time: c.Time, Signal: sig}}
}

// Flatten force-closes any active signal at price, e.g. at end of data.
func (r *Runner) Flatten(price float64, t time.Time) *Event {
	if r.active == nil {
		return nil
	}
	tr := r.active
	tr.ForceClose(price, t)
	r.active = nil
	return &Event{Kind: EventClosed, Symbol: r.cfg.Symbol, Time: t, Signal: &tr.Signal, Tracker: tr, Reason: string(tr.State.Reason())}
}

// LastClose is the close of the most recent accepted candle.
func (r *Runner) LastClose() (float64, time.Time, bool) {
	if len(r.history) == 0 {
		return 0, time.Time{}, false
	}
	c := r.history[len(r.history)-1]
	return c.Close, c.Time, true
}

func (r *Runner) checkExit(c market.Candle) (Event, bool) {
	tr := r.active
	if r.cfg.IntrabarExits {
		tr.EvaluateCandle(c)
	} else {
		tr.Evaluate(c.Close, c.Time)
	}

	if !tr.State.Terminal() {
		switch {
		case r.cfg.MaxHold > 0 && tr.Elapsed(c.Time) >= r.cfg.MaxHold:
			tr.ForceClose(c.Close, c.Time)
		case r.cfg.FlattenAtTradingEnd && !c.Time.Before(r.cfg.Settings.Window(tr.Signal.CreatedAt).TradingEnd):
			tr.ForceClose(c.Close, c.Time)
		}
	}
	if !tr.State.Terminal() {
		return Event{}, false
	}

	r.active = nil
	return Event{Kind: EventClosed, Symbol: r.cfg.Symbol, Time: c.Time, Signal: &tr.Signal, Tracker: tr, Reason: string(tr.State.Reason())}, true
}

func (r *Runner) push(c market.Candle) {
	r.history = append(r.history, c)
	if over := len(r.history) - r.cfg.RangeLookback; over > 0 {
		copy(r.history, r.history[over:])
		r.history = r.history[:r.cfg.RangeLookback]
	}
}
