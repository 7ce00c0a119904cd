package backtest

import (
	"time"

	"github.com/rustyeddy/torb/torb"
)

// Options tune a replay. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	Warmup              int  `json:"warmup" yaml:"warmup"`
	RangeLookback       int  `json:"range_lookback" yaml:"range_lookback"`
	MaxHoldMinutes      int  `json:"max_hold_minutes" yaml:"max_hold_minutes"`
	RSIPeriod           int  `json:"rsi_period" yaml:"rsi_period"`
	UseRSIFilter        bool `json:"use_rsi_filter" yaml:"use_rsi_filter"`
	UseMomentumFilter   bool `json:"use_momentum_filter" yaml:"use_momentum_filter"`
	IntrabarExits       bool `json:"intrabar_exits" yaml:"intrabar_exits"`
	FlattenAtTradingEnd bool `json:"flatten_at_trading_end" yaml:"flatten_at_trading_end"`
	MaxTradesPerSession int  `json:"max_trades_per_session" yaml:"max_trades_per_session"`
	CloseAtEnd          bool `json:"close_at_end" yaml:"close_at_end"`
}

func DefaultOptions() Options {
	return Options{
		Warmup:            20,
		RangeLookback:     50,
		MaxHoldMinutes:    240,
		RSIPeriod:         14,
		UseRSIFilter:      true,
		UseMomentumFilter: true,
		CloseAtEnd:        true,
	}
}

// RunnerConfig applies o on top of the runner defaults for symbol. s is
// used as given: it must already be resolved for symbol, e.g. by
// Engine.SessionFor.
func (o Options) RunnerConfig(symbol string, s torb.SessionSettings) torb.RunnerConfig {
	cfg := torb.DefaultRunnerConfig(symbol, s)
	cfg.Settings = s
	cfg.Warmup = o.Warmup
	if o.RangeLookback > 0 {
		cfg.RangeLookback = o.RangeLookback
	}
	cfg.MaxHold = time.Duration(o.MaxHoldMinutes) * time.Minute
	if o.RSIPeriod > 0 {
		cfg.RSIPeriod = o.RSIPeriod
	}
	cfg.UseRSIFilter = o.UseRSIFilter
	cfg.UseMomentumFilter = o.UseMomentumFilter
	cfg.IntrabarExits = o.IntrabarExits
	cfg.FlattenAtTradingEnd = o.FlattenAtTradingEnd
	cfg.MaxTradesPerSession = o.MaxTradesPerSession
	return cfg
}
