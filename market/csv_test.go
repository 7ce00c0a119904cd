package market

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_OandaLayout(t *testing.T) {
	t.Parallel()

	in := `time,instrument,granularity,complete,volume,o,h,l,c
2024-01-01T00:00:00Z,USD_JPY,M5,true,10,141.000,141.100,140.900,141.050
2024-01-01T00:05:00Z,USD_JPY,M5,false,3,141.050,141.060,141.000,141.010
`
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got[0].Time)
	assert.Equal(t, 141.1, got[0].High)
	assert.Equal(t, 10.0, got[0].Volume)
}

func TestReadCSV_SimpleLayoutUnixTime(t *testing.T) {
	t.Parallel()

	in := "1704067200,1.1,1.2,1.0,1.15\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1704067200), got[0].Time.Unix())
	assert.Equal(t, 1.15, got[0].Close)
}

func TestReadCSV_BadRow(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("time,open,high,low,close\n2024-01-01T00:00:00Z,1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestWriteAndLoadCSV(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	cs := []Candle{
		bar(t0, 150, 150.2, 149.9, 150.1),
		bar(t0.Add(5*time.Minute), 150.1, 150.3, 150.0, 150.25),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, cs))

	path := filepath.Join(t.TempDir(), "c.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	got, rep, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Kept)
	assert.Equal(t, cs, got)
}

func TestLoadCSV_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,open,high,low,close\n"), 0644))

	_, _, err := LoadCSV(path)
	assert.ErrorIs(t, err, ErrEmptySeries)
}
