package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/torb"
)

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	jst := time.FixedZone("JST", 9*3600)
	expected := sampleTrade("01HM0000000000000000000000", time.Date(2024, 1, 10, 10, 0, 0, 0, jst), 30)

	require.NoError(t, j.RecordTrade(expected))

	actual, err := j.GetTrade(expected.ID)
	require.NoError(t, err)

	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.Symbol, actual.Symbol)
	assert.Equal(t, torb.Buy, actual.Direction)
	assert.Equal(t, "2024-01-10", actual.Session)
	assert.InDelta(t, expected.EntryPrice, actual.EntryPrice, 1e-9)
	assert.InDelta(t, expected.ExitPrice, actual.ExitPrice, 1e-9)
	assert.InDelta(t, expected.TargetPrice, actual.TargetPrice, 1e-9)
	assert.InDelta(t, expected.StopPrice, actual.StopPrice, 1e-9)
	assert.True(t, actual.EntryTime.Equal(expected.EntryTime))
	assert.True(t, actual.ExitTime.Equal(expected.ExitTime))
	assert.Equal(t, torb.ExitTarget, actual.ExitReason)
	assert.Equal(t, 30.0, actual.Pips)
	assert.Equal(t, 30.0, actual.DurationMinutes)
	assert.InDelta(t, expected.PnL, actual.PnL, 1e-9)
	assert.InDelta(t, 2.3, actual.PositionSize, 1e-9)
	assert.Equal(t, 46.0, actual.SpreadCost)
	assert.True(t, actual.IsWin)
	assert.Equal(t, 25.0, actual.RangeWidthPips)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"A", "B", "C"} {
		require.NoError(t, j.RecordTrade(sampleTrade(id, base.Add(time.Duration(i)*24*time.Hour+time.Hour), 10)))
	}

	got, err := j.ListTradesClosedBetween(base, base.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ID)
	assert.Equal(t, "B", got[1].ID)

	// bounds in another zone select the same instants
	jst := time.FixedZone("JST", 9*3600)
	got, err = j.ListTradesClosedBetween(base.Add(24*time.Hour).In(jst), base.Add(72*time.Hour).In(jst))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := j.ListTradesClosedBetween(base.Add(-48*time.Hour), base)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListTradesBySession(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2024, 1, 10, 1, 0, 0, 0, time.UTC)
	trades := []backtest.TradeRecord{
		sampleTrade("A", base, 10),
		sampleTrade("B", base.Add(2*time.Hour), -5),
		sampleTrade("C", base.Add(24*time.Hour), 7),
	}
	for _, tr := range trades {
		require.NoError(t, j.RecordTrade(tr))
	}

	got, err := j.ListTradesBySession("2024-01-10")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[1].IsWin)

	st := backtest.ComputeStats(got)
	assert.InDelta(t, 5.0, st.TotalPips, 1e-9)
}

func TestExportBacktestOrg(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	entry := time.Date(2024, 1, 10, 1, 0, 0, 0, time.UTC)
	run := BacktestRun{
		RunID:        "R1",
		Created:      entry,
		Symbol:       "USD_JPY",
		Start:        entry,
		End:          entry.Add(24 * time.Hour),
		Trades:       1,
		Wins:         1,
		WinRate:      1,
		StartBalance: 1000,
		NetPL:        50,
	}
	require.NoError(t, j.RecordBacktest(run, []backtest.TradeRecord{sampleTrade("ABCDEFGHIJ", entry, 10)}))

	org, err := j.ExportBacktestOrg("R1")
	require.NoError(t, err)
	assert.Contains(t, org, "* BACKTEST: TORB USD_JPY")
	assert.Contains(t, org, ":RUN_ID:      R1")
	assert.Contains(t, org, ":END_BAL:     1050.00")
	assert.Contains(t, org, ":RETURN_PCT:  5.00")
	assert.Contains(t, org, "** Trade: USD_JPY BUY (ABCDEFGH)")

	_, err = j.ExportBacktestOrg("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
