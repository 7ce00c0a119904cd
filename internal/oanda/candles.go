package oanda

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/torb/market"
)

type CandlesOptions struct {
	Instrument  string
	Granularity string // e.g. M1, M15, H1
	Price       string // M, B, A

	From  time.Time // optional
	To    time.Time // optional
	Count int       // optional (used if >0)
}

type ohlc struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type candleJSON struct {
	Complete bool   `json:"complete"`
	Time     string `json:"time"`
	Volume   int    `json:"volume"`

	Mid *ohlc `json:"mid,omitempty"`
	Bid *ohlc `json:"bid,omitempty"`
	Ask *ohlc `json:"ask,omitempty"`
}

type candlesResp struct {
	Instrument  string       `json:"instrument"`
	Granularity string       `json:"granularity"`
	Candles     []candleJSON `json:"candles"`
}

func (cd candleJSON) component(price string) *ohlc {
	switch price {
	case "B":
		return cd.Bid
	case "A":
		return cd.Ask
	default:
		return cd.Mid
	}
}

func (c *Client) fetchCandles(ctx context.Context, opts CandlesOptions) (*candlesResp, string, error) {
	if c.Token == "" {
		return nil, "", fmt.Errorf("oanda: missing token")
	}
	if c.BaseURL == "" {
		return nil, "", fmt.Errorf("oanda: missing base url")
	}
	if opts.Instrument == "" {
		return nil, "", fmt.Errorf("oanda: missing instrument")
	}
	if opts.Granularity == "" {
		return nil, "", fmt.Errorf("oanda: missing granularity")
	}
	price := strings.ToUpper(strings.TrimSpace(opts.Price))
	switch price {
	case "":
		price = "M"
	case "M", "B", "A":
	default:
		return nil, "", fmt.Errorf("oanda: price %q not supported; use M/B/A", opts.Price)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, "", err
	}
	u.Path = fmt.Sprintf("/v3/instruments/%s/candles", market.NormalizeSymbol(opts.Instrument))

	q := u.Query()
	q.Set("granularity", opts.Granularity)
	q.Set("price", price)

	if opts.Count > 0 {
		q.Set("count", strconv.Itoa(opts.Count))
	} else {
		if !opts.From.IsZero() {
			q.Set("from", opts.From.UTC().Format(time.RFC3339Nano))
		}
		if !opts.To.IsZero() {
			q.Set("to", opts.To.UTC().Format(time.RFC3339Nano))
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, "", fmt.Errorf("oanda candles http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cr candlesResp
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, "", fmt.Errorf("oanda candles decode: %w", err)
	}
	return &cr, price, nil
}

// Candles fetches candles and converts the complete ones. An incomplete
// (still forming) candle is never returned.
func (c *Client) Candles(ctx context.Context, opts CandlesOptions) ([]market.Candle, error) {
	cr, price, err := c.fetchCandles(ctx, opts)
	if err != nil {
		return nil, err
	}

	out := make([]market.Candle, 0, len(cr.Candles))
	for _, cd := range cr.Candles {
		p := cd.component(price)
		if !cd.Complete || p == nil {
			continue
		}
		mc, err := toCandle(cd.Time, cd.Volume, p)
		if err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, nil
}

func toCandle(ts string, volume int, p *ohlc) (market.Candle, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return market.Candle{}, fmt.Errorf("oanda candle time %q: %w", ts, err)
	}
	var v [4]float64
	for i, s := range []string{p.O, p.H, p.L, p.C} {
		v[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, fmt.Errorf("oanda candle price %q: %w", s, err)
		}
	}
	return market.Candle{Time: t, Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: float64(volume)}, nil
}

// DownloadCandlesToCSV writes the canonical candle CSV
// (time,instrument,granularity,complete,volume,o,h,l,c) that
// market.ReadCSV understands.
func (c *Client) DownloadCandlesToCSV(ctx context.Context, opts CandlesOptions, w io.Writer) (int, error) {
	cr, price, err := c.fetchCandles(ctx, opts)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "instrument", "granularity", "complete", "volume", "o", "h", "l", "c"}); err != nil {
		return 0, err
	}

	written := 0
	for _, cd := range cr.Candles {
		p := cd.component(price)
		if p == nil {
			continue
		}
		row := []string{
			cd.Time,
			cr.Instrument,
			cr.Granularity,
			strconv.FormatBool(cd.Complete),
			strconv.Itoa(cd.Volume),
			p.O, p.H, p.L, p.C,
		}
		if err := cw.Write(row); err != nil {
			return written, err
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, err
	}
	return written, nil
}
