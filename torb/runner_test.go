package torb

import (
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/torb/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunnerConfig() RunnerConfig {
	cfg := DefaultRunnerConfig("USD_JPY", DefaultSettings())
	cfg.UseRSIFilter = false
	return cfg
}

// breakoutOverrides leaves 2024-01-09 flat and gives 2024-01-10 a 25 pip range
// followed by an upside breakout at 10:00 JST.
func breakoutOverrides(after map[string]market.Candle) map[string]market.Candle {
	o := map[string]market.Candle{
		"10 09:00": bo(150.10, 150.25, 150.08, 150.12),
		"10 09:15": bo(150.12, 150.12, 150.00, 150.10),
		"10 09:45": bo(150.10, 150.22, 150.08, 150.20),
		"10 10:00": bo(150.20, 150.42, 150.18, 150.40),
	}
	for k, v := range after {
		o[k] = v
	}
	return o
}

func runAll(r *Runner, cs []market.Candle) []Event {
	var out []Event
	for _, c := range cs {
		out = append(out, r.OnCandle(c)...)
	}
	return out
}

func kinds(evs []Event, k EventKind) []Event {
	var out []Event
	for _, e := range evs {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

func TestRunnerBreakoutToTarget(t *testing.T) {
	cs := flatSeries(t, 9, 10, breakoutOverrides(map[string]market.Candle{
		"10 10:15": bo(150.40, 150.52, 150.38, 150.50),
		"10 10:30": bo(150.50, 150.72, 150.48, 150.70),
	}))

	r := NewRunner(testRunnerConfig(), nil)
	evs := runAll(r, cs)

	opened := kinds(evs, EventOpened)
	require.Len(t, opened, 1)
	sig := opened[0].Signal
	assert.Equal(t, Buy, sig.Direction)
	assert.Equal(t, 150.40, sig.EntryPrice)
	assert.InDelta(t, 150.625, sig.TargetPrice, 1e-9)
	assert.InDelta(t, 149.97, sig.StopPrice, 1e-9)
	assert.NotEmpty(t, sig.ID)
	assert.True(t, sig.CreatedAt.Equal(jst(t, 10, 10, 0)))

	closed := kinds(evs, EventClosed)
	require.Len(t, closed, 1)
	tr := closed[0].Tracker
	assert.Equal(t, Profit, tr.State)
	assert.Equal(t, 150.70, tr.ExitPrice)
	assert.True(t, tr.ExitTime.Equal(jst(t, 10, 10, 30)))
	assert.InDelta(t, 30.0, tr.Pips(0, jpyPip), 1e-9)
	assert.Nil(t, r.Active())

	// day one is 4 pips wide: rejected once during its trading window
	rejected := kinds(evs, EventRejected)
	require.NotEmpty(t, rejected)
	assert.Equal(t, string(RangeTooNarrow), rejected[0].Reason)
}

func TestRunnerIntrabarExit(t *testing.T) {
	cs := flatSeries(t, 9, 10, breakoutOverrides(map[string]market.Candle{
		"10 10:15": bo(150.40, 150.70, 150.38, 150.45),
	}))

	cfg := testRunnerConfig()
	cfg.IntrabarExits = true
	evs := runAll(NewRunner(cfg, nil), cs)

	closed := kinds(evs, EventClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, Profit, closed[0].Tracker.State)
	assert.InDelta(t, 150.625, closed[0].Tracker.ExitPrice, 1e-9)
}

func TestRunnerTimeExit(t *testing.T) {
	hold := map[string]market.Candle{}
	for ts := jst(t, 10, 10, 15); ts.Before(jst(t, 11, 0, 0)); ts = ts.Add(15 * time.Minute) {
		hold[ts.Format("02 15:04")] = bo(150.45, 150.47, 150.43, 150.45)
	}
	cs := flatSeries(t, 9, 10, breakoutOverrides(hold))

	cfg := testRunnerConfig()
	cfg.MaxTradesPerSession = 1
	evs := runAll(NewRunner(cfg, nil), cs)
	closed := kinds(evs, EventClosed)
	require.Len(t, closed, 1)

	tr := closed[0].Tracker
	assert.Equal(t, TimeExit, tr.State)
	assert.Equal(t, string(ExitTime), closed[0].Reason)
	assert.True(t, tr.ExitTime.Equal(jst(t, 10, 14, 0)))
	assert.Equal(t, 150.45, tr.ExitPrice)
}

func TestRunnerFlattenAtTradingEnd(t *testing.T) {
	hold := map[string]market.Candle{}
	for ts := jst(t, 10, 12, 0); ts.Before(jst(t, 11, 0, 0)); ts = ts.Add(15 * time.Minute) {
		hold[ts.Format("02 15:04")] = bo(150.45, 150.47, 150.43, 150.45)
	}
	// break out late so the trading end arrives before max hold
	hold["10 10:00"] = bo(150.10, 150.12, 150.08, 150.10)
	hold["10 12:00"] = bo(150.20, 150.42, 150.18, 150.40)
	hold["10 12:15"] = bo(150.40, 150.47, 150.38, 150.45)

	o := breakoutOverrides(nil)
	delete(o, "10 10:00")
	for k, v := range hold {
		o[k] = v
	}
	cs := flatSeries(t, 9, 10, o)

	cfg := testRunnerConfig()
	cfg.RangeLookback = 100
	cfg.FlattenAtTradingEnd = true
	evs := runAll(NewRunner(cfg, nil), cs)

	closed := kinds(evs, EventClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, TimeExit, closed[0].Tracker.State)
	assert.True(t, closed[0].Tracker.ExitTime.Equal(jst(t, 10, 15, 0)))
}

func TestRunnerGateSkips(t *testing.T) {
	cs := flatSeries(t, 9, 10, breakoutOverrides(nil))

	calls := 0
	gate := func(Signal) error {
		calls++
		return errors.New("INSUFFICIENT_MARGIN")
	}
	r := NewRunner(testRunnerConfig(), gate)
	evs := runAll(r, cs)

	assert.Empty(t, kinds(evs, EventOpened))
	skipped := kinds(evs, EventSkipped)
	require.Len(t, skipped, calls)
	assert.Equal(t, "INSUFFICIENT_MARGIN", skipped[0].Reason)
	assert.Nil(t, r.Active())
}

func TestRunnerWarmup(t *testing.T) {
	// only day two, starting at 08:00: fewer than 20 candles before the breakout
	cs := market.Between(flatSeries(t, 9, 10, breakoutOverrides(nil)), jst(t, 10, 8, 0), time.Time{})

	evs := runAll(NewRunner(testRunnerConfig(), nil), cs)
	assert.Empty(t, kinds(evs, EventOpened))

	// the 10:00 breakout is preceded by eight candles
	cfg := testRunnerConfig()
	cfg.Warmup = 8
	evs = runAll(NewRunner(cfg, nil), cs)
	assert.Len(t, kinds(evs, EventOpened), 1)

	cfg.Warmup = 9
	evs = runAll(NewRunner(cfg, nil), cs)
	assert.Empty(t, kinds(evs, EventOpened))
}

func TestRunnerSkipsWeekends(t *testing.T) {
	// 2024-01-13 and 14 are Saturday and Sunday
	o := map[string]market.Candle{
		"13 09:00": bo(150.10, 150.25, 150.08, 150.12),
		"13 09:15": bo(150.12, 150.12, 150.00, 150.10),
		"13 10:00": bo(150.20, 150.42, 150.18, 150.40),
	}
	cs := flatSeries(t, 13, 14, o)

	cfg := testRunnerConfig()
	cfg.Warmup = 1
	r := NewRunner(cfg, nil)
	assert.Empty(t, runAll(r, cs))
	_, _, ok := r.LastClose()
	assert.False(t, ok)
}

func TestRunnerMaxTradesPerSession(t *testing.T) {
	cs := flatSeries(t, 9, 10, breakoutOverrides(map[string]market.Candle{
		"10 10:15": bo(150.40, 150.72, 150.38, 150.70), // target, no re-entry on this bar
		"10 10:30": bo(150.70, 150.72, 150.18, 150.20), // back inside
		"10 10:45": bo(150.20, 150.47, 150.18, 150.45), // breakout again
	}))

	unlimited := runAll(NewRunner(testRunnerConfig(), nil), cs)
	assert.Len(t, kinds(unlimited, EventOpened), 2)

	cfg := testRunnerConfig()
	cfg.MaxTradesPerSession = 1
	limited := runAll(NewRunner(cfg, nil), cs)
	assert.Len(t, kinds(limited, EventOpened), 1)
}

func TestRunnerFlatten(t *testing.T) {
	cs := market.Between(flatSeries(t, 9, 10, breakoutOverrides(nil)), time.Time{}, jst(t, 10, 10, 15))

	r := NewRunner(testRunnerConfig(), nil)
	evs := runAll(r, cs)
	require.Len(t, kinds(evs, EventOpened), 1)
	require.NotNil(t, r.Active())

	px, ts, ok := r.LastClose()
	require.True(t, ok)
	ev := r.Flatten(px, ts)
	require.NotNil(t, ev)
	assert.Equal(t, TimeExit, ev.Tracker.State)
	assert.Nil(t, r.Active())
	assert.Nil(t, r.Flatten(px, ts))
}

func TestRunnerRSIFilterBlocksFlatMarket(t *testing.T) {
	cs := flatSeries(t, 9, 10, breakoutOverrides(nil))

	cfg := DefaultRunnerConfig("USD_JPY", DefaultSettings())
	require.True(t, cfg.UseRSIFilter)
	evs := runAll(NewRunner(cfg, nil), cs)

	// the run-up into the breakout pushes RSI well above the buy floor
	assert.Len(t, kinds(evs, EventOpened), 1)
}
