package torb

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/rustyeddy/torb/market"
)

// SessionSettings configures one instrument's opening-range session.
// It is a value: change settings by building a new one.
type SessionSettings struct {
	Timezone   string           `json:"timezone" yaml:"timezone"`
	RangeStart market.ClockTime `json:"range_start" yaml:"range_start"`
	RangeEnd   market.ClockTime `json:"range_end" yaml:"range_end"`
	TradingEnd market.ClockTime `json:"trading_end" yaml:"trading_end"`

	MinRangeWidthPips  float64 `json:"min_range_width_pips" yaml:"min_range_width_pips"`
	MaxRangeWidthPips  float64 `json:"max_range_width_pips" yaml:"max_range_width_pips"`
	ProfitMultiplier   float64 `json:"profit_multiplier" yaml:"profit_multiplier"`
	StopLossBufferPips float64 `json:"stop_loss_buffer_pips" yaml:"stop_loss_buffer_pips"`
}

// DefaultSettings is the Tokyo 09:00-09:45 range, trading until 15:00 JST.
func DefaultSettings() SessionSettings {
	return SessionSettings{
		Timezone:           "Asia/Tokyo",
		RangeStart:         market.ClockTime{Hour: 9},
		RangeEnd:           market.ClockTime{Hour: 9, Minute: 45},
		TradingEnd:         market.ClockTime{Hour: 15},
		MinRangeWidthPips:  5,
		MaxRangeWidthPips:  60,
		ProfitMultiplier:   1.5,
		StopLossBufferPips: 3,
	}
}

// WithSession returns a copy using the session hours and timezone of st.
func (s SessionSettings) WithSession(st market.SessionTimes) SessionSettings {
	if st.Timezone == "" {
		return s
	}
	s.Timezone = st.Timezone
	s.RangeStart = st.RangeStart
	s.RangeEnd = st.RangeEnd
	s.TradingEnd = st.TradingEnd
	return s
}

func (s SessionSettings) SessionTimes() market.SessionTimes {
	return market.SessionTimes{
		Timezone:   s.Timezone,
		RangeStart: s.RangeStart,
		RangeEnd:   s.RangeEnd,
		TradingEnd: s.TradingEnd,
	}
}

// ForInstrument substitutes the instrument's own session hours.
func (s SessionSettings) ForInstrument(inst market.InstrumentConfig) SessionSettings {
	return s.WithSession(inst.Session)
}

func (s SessionSettings) Validate() error {
	if _, err := s.Location(); err != nil {
		return err
	}
	for name, ct := range map[string]market.ClockTime{
		"range_start": s.RangeStart,
		"range_end":   s.RangeEnd,
		"trading_end": s.TradingEnd,
	} {
		if !ct.Valid() {
			return fmt.Errorf("session.%s out of range: %s", name, ct)
		}
	}
	if s.RangeStart.Minutes() >= s.RangeEnd.Minutes() {
		return fmt.Errorf("session.range_start %s must be before range_end %s", s.RangeStart, s.RangeEnd)
	}
	if s.RangeEnd.Minutes() >= s.TradingEnd.Minutes() {
		return fmt.Errorf("session.range_end %s must be before trading_end %s", s.RangeEnd, s.TradingEnd)
	}
	if s.MinRangeWidthPips < 0 {
		return fmt.Errorf("session.min_range_width_pips must not be negative")
	}
	if s.MaxRangeWidthPips < s.MinRangeWidthPips {
		return fmt.Errorf("session.max_range_width_pips must be >= min_range_width_pips")
	}
	if s.ProfitMultiplier <= 0 {
		return fmt.Errorf("session.profit_multiplier must be positive")
	}
	if s.StopLossBufferPips < 0 {
		return fmt.Errorf("session.stop_loss_buffer_pips must not be negative")
	}
	return nil
}

var locations sync.Map // name -> *time.Location

// Location resolves the session timezone. All session-hour arithmetic goes
// through it; nothing else in the module applies a fixed UTC offset.
func (s SessionSettings) Location() (*time.Location, error) {
	name := s.Timezone
	if name == "" {
		name = "UTC"
	}
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("session timezone %q: %w", name, err)
	}
	locations.Store(name, loc)
	return loc, nil
}

func (s SessionSettings) location() *time.Location {
	loc, err := s.Location()
	if err != nil {
		return time.UTC
	}
	return loc
}

// SessionWindow is one calendar session's boundaries as instants.
type SessionWindow struct {
	Date       string // 2006-01-02 in the session timezone
	RangeStart time.Time
	RangeEnd   time.Time
	TradingEnd time.Time
}

// Window returns the session containing t.
func (s SessionSettings) Window(t time.Time) SessionWindow {
	local := t.In(s.location())
	y, m, d := local.Date()
	at := func(ct market.ClockTime) time.Time {
		return time.Date(y, m, d, ct.Hour, ct.Minute, 0, 0, local.Location())
	}
	return SessionWindow{
		Date:       local.Format("2006-01-02"),
		RangeStart: at(s.RangeStart),
		RangeEnd:   at(s.RangeEnd),
		TradingEnd: at(s.TradingEnd),
	}
}

// SessionDate is the calendar date of t in the session timezone.
func (s SessionSettings) SessionDate(t time.Time) string {
	return t.In(s.location()).Format("2006-01-02")
}

// Weekday of t in the session timezone.
func (s SessionSettings) Weekday(t time.Time) time.Weekday {
	return t.In(s.location()).Weekday()
}

// InRangeWindow reports whether t is inside [RangeStart, RangeEnd).
func (w SessionWindow) InRangeWindow(t time.Time) bool {
	return !t.Before(w.RangeStart) && t.Before(w.RangeEnd)
}

// InTradingWindow reports whether t is inside [RangeEnd, TradingEnd).
func (w SessionWindow) InTradingWindow(t time.Time) bool {
	return !t.Before(w.RangeEnd) && t.Before(w.TradingEnd)
}
