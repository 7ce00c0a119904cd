package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tconfig "github.com/rustyeddy/torb/config"
	"github.com/rustyeddy/torb/market"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeSeries writes two days of USD_JPY candles with one upside breakout
// on 2024-01-10 that reaches its target.
func writeSeries(t *testing.T, dir string) string {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	bars := map[string][4]float64{
		"09:00": {150.10, 150.25, 150.08, 150.12},
		"09:15": {150.12, 150.12, 150.00, 150.10},
		"09:45": {150.10, 150.22, 150.08, 150.20},
		"10:00": {150.20, 150.42, 150.18, 150.40},
		"10:15": {150.40, 150.52, 150.38, 150.50},
		"10:30": {150.50, 150.72, 150.48, 150.70},
	}
	var cs []market.Candle
	start := time.Date(2024, 1, 9, 0, 0, 0, 0, loc)
	for ts := start; ts.Before(start.AddDate(0, 0, 2)); ts = ts.Add(15 * time.Minute) {
		c := market.Candle{Time: ts, Open: 150.10, High: 150.12, Low: 150.08, Close: 150.10, Volume: 10}
		if ts.Day() == 10 {
			if b, ok := bars[ts.Format("15:04")]; ok {
				c.Open, c.High, c.Low, c.Close = b[0], b[1], b[2], b[3]
			}
		}
		cs = append(cs, c)
	}

	path := filepath.Join(dir, "usdjpy.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, market.WriteCSV(f, cs))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "torb "+version)
}

func TestConfigInitValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torb.yaml")

	out, err := run(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	out, err = run(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Asia/Tokyo 09:00-09:45")

	// --config is used when -f is not given
	_, err = run(t, "--config", path, "config", "validate")
	require.NoError(t, err)

	_, err = run(t, "config", "validate")
	assert.Error(t, err)
}

func TestBacktestAndJournal(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeSeries(t, dir)
	db := filepath.Join(dir, "journal.sqlite")
	orgDir := filepath.Join(dir, "org")

	out, err := run(t, "--db", db, "backtest", "--no-rsi", "--org", orgDir, "USD_JPY="+csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "TORB Backtest: USD_JPY")

	orgs, err := filepath.Glob(filepath.Join(orgDir, "backtest-USD_JPY-*.org"))
	require.NoError(t, err)
	assert.Len(t, orgs, 1)

	out, err = run(t, "--db", db, "journal", "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "USD_JPY")

	out, err = run(t, "--db", db, "journal", "session", "2024-01-10")
	require.NoError(t, err)
	assert.Contains(t, out, "Trade: USD_JPY BUY")

	out, err = run(t, "--db", db, "journal", "day", "2024-01-10")
	require.NoError(t, err)
	assert.Contains(t, out, "USD_JPY")
}

func TestBacktestErrors(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeSeries(t, dir)

	_, err := run(t, "backtest", "--no-journal", "XAU_USD="+csvPath)
	assert.ErrorIs(t, err, market.ErrUnknownInstrument)

	_, err = run(t, "backtest", "--no-journal", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	_, err = run(t, "backtest")
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeSeries(t, dir)

	out, err := run(t, "--config", writeConfig(t, dir), "replay", "--no-journal", "USD_JPY="+csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "RANGE_REJECTED")
	assert.Contains(t, out, "SIGNAL_OPENED")
	assert.Contains(t, out, "SIGNAL_CLOSED  USD_JPY BUY TARGET")
}

// writeConfig saves the default config with the RSI filter off.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := tconfig.Default()
	cfg.Backtest.UseRSIFilter = false
	path := filepath.Join(dir, "torb.yaml")
	require.NoError(t, cfg.SaveToFile(path))
	return path
}
