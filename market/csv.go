package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Candle CSV layouts accepted by ReadCSV:
//
//	time,instrument,granularity,complete,volume,o,h,l,c   (oanda download)
//	time,open,high,low,close[,volume]
//
// Times are RFC3339 or unix seconds. Rows with complete=false are skipped.
type csvLayout struct {
	time, open, high, low, close, volume, complete int
}

var (
	oandaLayout  = csvLayout{time: 0, complete: 3, volume: 4, open: 5, high: 6, low: 7, close: 8}
	simpleLayout = csvLayout{time: 0, open: 1, high: 2, low: 3, close: 4, volume: 5, complete: -1}
)

// LoadCSV reads and normalizes a candle CSV file.
func LoadCSV(path string) ([]Candle, NormalizeReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NormalizeReport{}, fmt.Errorf("open candles: %w", err)
	}
	defer f.Close()

	raw, err := ReadCSV(f)
	if err != nil {
		return nil, NormalizeReport{}, fmt.Errorf("read candles %s: %w", path, err)
	}
	out, rep := Normalize(raw)
	if len(out) == 0 {
		return nil, rep, fmt.Errorf("%s: %w", path, ErrEmptySeries)
	}
	return out, rep, nil
}

// ReadCSV parses candles without normalizing them.
func ReadCSV(r io.Reader) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	layout := simpleLayout
	var out []Candle
	line := 0

	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}

		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			if len(row) >= 9 && strings.EqualFold(strings.TrimSpace(row[1]), "instrument") {
				layout = oandaLayout
			}
			continue
		}

		c, skip, err := parseRow(row, layout)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if skip {
			continue
		}
		out = append(out, c)
	}
}

func parseRow(row []string, l csvLayout) (Candle, bool, error) {
	if len(row) <= l.close {
		return Candle{}, false, fmt.Errorf("need at least %d columns, got %d", l.close+1, len(row))
	}
	if l.complete >= 0 && strings.EqualFold(strings.TrimSpace(row[l.complete]), "false") {
		return Candle{}, true, nil
	}

	t, err := parseTime(row[l.time])
	if err != nil {
		return Candle{}, false, err
	}

	var px [4]float64
	for i, col := range []int{l.open, l.high, l.low, l.close} {
		px[i], err = strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			return Candle{}, false, fmt.Errorf("bad price %q: %w", row[col], err)
		}
	}

	c := Candle{Time: t, Open: px[0], High: px[1], Low: px[2], Close: px[3]}
	if l.volume < len(row) {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[l.volume]), 64); err == nil {
			c.Volume = v
		}
	}
	return c, false, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// WriteCSV writes candles in the time,open,high,low,close,volume layout.
func WriteCSV(w io.Writer, candles []Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range candles {
		if err := cw.Write([]string{
			c.Time.UTC().Format(time.RFC3339),
			f(c.Open), f(c.High), f(c.Low), f(c.Close),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
