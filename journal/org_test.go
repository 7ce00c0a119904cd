package journal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/risk"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	jst := time.FixedZone("JST", 9*3600)
	trade := sampleTrade("01HM5XK2ZQ0000000000000000", time.Date(2024, 3, 15, 10, 30, 0, 0, jst), 30)

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Trade: USD_JPY BUY (01HM5XK2)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HM5XK2ZQ0000000000000000")
	assert.Contains(t, result, ":SESSION: 2024-03-15")
	assert.Contains(t, result, ":LOTS: 2.3")
	assert.Contains(t, result, ":ENTRY_PRICE: 150.40000")
	assert.Contains(t, result, ":ENTRY_TIME: 2024-03-15T01:30:00Z")
	assert.Contains(t, result, ":EXIT_TIME: 2024-03-15T02:00:00Z")
	assert.Contains(t, result, ":EXIT_REASON: TARGET")
	assert.Contains(t, result, ":PIPS: 30.0")
	assert.Contains(t, result, ":PNL: 6854.00")
	assert.Contains(t, result, ":END:")

	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Execution")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgShortID(t *testing.T) {
	t.Parallel()

	trade := sampleTrade("short", time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC), 5)
	assert.Contains(t, FormatTradeOrg(trade), "(short)")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	out := FormatTradesOrg([]backtest.TradeRecord{
		sampleTrade("AAAAAAAAAA", base, 5),
		sampleTrade("BBBBBBBBBB", base.Add(time.Hour), -5),
	})
	assert.Equal(t, 2, strings.Count(out, "** Trade:"))
	assert.Contains(t, out, ":END:\n\n*** Thesis")
	assert.Empty(t, FormatTradesOrg(nil))
}

func TestBacktestRunOrg(t *testing.T) {
	t.Parallel()

	entry := time.Date(2024, 1, 10, 1, 0, 0, 0, time.UTC)
	trades := []backtest.TradeRecord{sampleTrade("A", entry, 30)}
	res := &backtest.Result{
		Symbol:  "USD_JPY",
		Start:   entry,
		End:     entry.Add(time.Hour),
		Trades:  trades,
		Stats:   backtest.ComputeStats(trades),
		Skipped: map[risk.Code]int{risk.CodeInsufficientMargin: 1},
	}
	run := NewBacktestRun(res, risk.DefaultAccount(), backtest.DefaultOptions(), "")

	var buf bytes.Buffer
	require.NoError(t, run.WriteOrg(&buf))
	out := buf.String()
	assert.Contains(t, out, ":DATASET:     (dataset?)")
	assert.Contains(t, out, ":WIN_RATE:    100.00")
	assert.Contains(t, out, ":PROFIT_FAC:  10.00")
	assert.Contains(t, out, "- INSUFFICIENT_MARGIN skipped: 1")
	assert.Contains(t, out, "#+begin_src json")

	run.OrgPath = filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, run.WriteOrgFile())
	b, err := os.ReadFile(run.OrgPath)
	require.NoError(t, err)
	assert.Equal(t, out, string(b))
}

func TestNewCombinedRun(t *testing.T) {
	t.Parallel()

	entry := time.Date(2024, 1, 10, 1, 0, 0, 0, time.UTC)
	a := &backtest.Result{Symbol: "USD_JPY", Start: entry, End: entry.Add(48 * time.Hour), Candles: 10}
	b := &backtest.Result{Symbol: "GBP_JPY", Start: entry.Add(-24 * time.Hour), End: entry.Add(24 * time.Hour), Candles: 5}
	c := &backtest.Combined{Results: map[string]*backtest.Result{"USD_JPY": a, "GBP_JPY": b}}

	run := NewCombinedRun(c, risk.DefaultAccount(), backtest.DefaultOptions(), "all")
	assert.Equal(t, "ALL", run.Symbol)
	assert.Equal(t, 15, run.Candles)
	assert.True(t, run.Start.Equal(b.Start))
	assert.True(t, run.End.Equal(a.End))
	assert.Contains(t, string(run.Config), "GBP_JPY")
}
