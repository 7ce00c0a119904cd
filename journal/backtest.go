package journal

import (
	"encoding/json"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/pkg/id"
	"github.com/rustyeddy/torb/risk"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID   string
	Created time.Time
	Symbol  string // "ALL" for a multi-instrument run
	Dataset string

	Start   time.Time
	End     time.Time
	Candles int

	// Results
	Trades          int
	Wins            int
	Losses          int
	WinRate         float64 // 0..1
	TotalPips       float64
	ProfitFactor    float64
	MaxDrawdownPips float64

	StartBalance float64
	NetPL        float64

	// Session settings and options the run used, as JSON.
	Config []byte

	OrgPath string
	Notes   []string
}

// EndBalance is the start balance plus net P/L.
func (r BacktestRun) EndBalance() float64 { return risk.Round(r.StartBalance + r.NetPL) }

// ReturnPct is net P/L as a percentage of the start balance.
func (r BacktestRun) ReturnPct() float64 {
	if r.StartBalance == 0 {
		return 0
	}
	return r.NetPL / r.StartBalance * 100
}

type runConfig struct {
	Settings any              `json:"settings"`
	Options  backtest.Options `json:"options"`
}

// NewBacktestRun summarises a single-instrument result.
func NewBacktestRun(res *backtest.Result, acct risk.AccountConfig, opts backtest.Options, dataset string) BacktestRun {
	run := newRun(res.Stats, acct, dataset)
	run.Symbol = res.Symbol
	run.Start, run.End = res.Start, res.End
	run.Candles = res.Candles
	run.Config, _ = json.Marshal(runConfig{Settings: res.Settings, Options: opts})
	for code, n := range res.Skipped {
		run.Notes = append(run.Notes, string(code)+" skipped: "+itoa(n))
	}
	return run
}

// NewCombinedRun summarises a multi-instrument result.
func NewCombinedRun(c *backtest.Combined, acct risk.AccountConfig, opts backtest.Options, dataset string) BacktestRun {
	run := newRun(c.Stats, acct, dataset)
	run.Symbol = "ALL"
	settings := map[string]any{}
	for _, sym := range c.Symbols() {
		r := c.Results[sym]
		if run.Start.IsZero() || r.Start.Before(run.Start) {
			run.Start = r.Start
		}
		if r.End.After(run.End) {
			run.End = r.End
		}
		run.Candles += r.Candles
		settings[sym] = r.Settings
	}
	run.Config, _ = json.Marshal(runConfig{Settings: settings, Options: opts})
	return run
}

func newRun(st backtest.Stats, acct risk.AccountConfig, dataset string) BacktestRun {
	return BacktestRun{
		RunID:           id.New(),
		Created:         time.Now().UTC(),
		Dataset:         dataset,
		Trades:          st.TotalTrades,
		Wins:            st.Wins,
		Losses:          st.Losses,
		WinRate:         st.WinRate,
		TotalPips:       st.TotalPips,
		ProfitFactor:    st.ProfitFactor,
		MaxDrawdownPips: st.MaxDrawdownPips,
		StartBalance:    acct.Balance,
		NetPL:           st.TotalPnL,
	}
}

var backtestOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// WriteOrg renders the run as an Org-mode heading.
func (r BacktestRun) WriteOrg(w io.Writer) error {
	return backtestOrg.Execute(w, r)
}

// WriteOrgFile writes the Org block to r.OrgPath.
func (r BacktestRun) WriteOrgFile() error {
	f, err := os.Create(r.OrgPath)
	if err != nil {
		return err
	}
	if err := r.WriteOrg(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

const BacktestOrgTemplate = `
* BACKTEST: TORB {{.Symbol}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    torb
:INSTRUMENT:  {{.Symbol}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:CANDLES:     {{.Candles}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:END_BAL:     {{printf "%.2f" .EndBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:PROFIT_FAC:  {{printf "%.2f" .ProfitFactor}}
:MAX_DD_PIPS: {{printf "%.1f" .MaxDrawdownPips}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Configuration
#+begin_src json
{{printf "%s" .Config}}
#+end_src

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Total Pips:       *{{printf "%.1f" .TotalPips}}*
- Max Drawdown:     *{{printf "%.1f" .MaxDrawdownPips}} pips*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
- Profit Factor:    *{{printf "%.2f" .ProfitFactor}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
