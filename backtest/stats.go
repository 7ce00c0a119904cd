package backtest

import (
	"math"
	"sort"

	"github.com/rustyeddy/torb/risk"
	"github.com/rustyeddy/torb/torb"
)

// ProfitFactorCap is reported as the profit factor when there are wins
// but no losing pips.
const ProfitFactorCap = 10.0

// Stats summarises a trade list. Pip figures are direction-aware.
type Stats struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"` // 0..1

	TotalPips     float64 `json:"total_pips"`
	GrossWinPips  float64 `json:"gross_win_pips"`
	GrossLossPips float64 `json:"gross_loss_pips"`
	AvgWinPips    float64 `json:"avg_win_pips"`
	AvgLossPips   float64 `json:"avg_loss_pips"`
	ProfitFactor  float64 `json:"profit_factor"`

	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	MaxDrawdownPips      float64 `json:"max_drawdown_pips"`

	TotalPnL           float64 `json:"total_pnl"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`

	ByExitReason map[torb.ExitReason]int `json:"by_exit_reason"`

	Daily   []DailyStat   `json:"daily"`
	Monthly []MonthlyStat `json:"monthly"`
}

// DailyStat rolls up the trades of one session date.
type DailyStat struct {
	Date           string  `json:"date"`
	Trades         int     `json:"trades"`
	Wins           int     `json:"wins"`
	NetPips        float64 `json:"net_pips"`
	WinRate        float64 `json:"win_rate"`
	CumulativePips float64 `json:"cumulative_pips"`
	PnL            float64 `json:"pnl"`
}

// MonthlyStat rolls up one calendar month. Best and worst day come from
// the daily rollup.
type MonthlyStat struct {
	Month        string  `json:"month"` // YYYY-MM
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	NetPips      float64 `json:"net_pips"`
	WinRate      float64 `json:"win_rate"`
	PnL          float64 `json:"pnl"`
	TradingDays  int     `json:"trading_days"`
	BestDay      string  `json:"best_day"`
	BestDayPips  float64 `json:"best_day_pips"`
	WorstDay     string  `json:"worst_day"`
	WorstDayPips float64 `json:"worst_day_pips"`
}

// ComputeStats derives the summary of trades in entry-time order. The
// input slice is not modified.
func ComputeStats(trades []TradeRecord) Stats {
	ts := sortedByEntry(trades)
	st := Stats{
		TotalTrades:  len(ts),
		ByExitReason: map[torb.ExitReason]int{},
	}
	if len(ts) == 0 {
		return st
	}

	var (
		cum, peak, dur   float64
		runWins, runLoss int
	)
	for _, t := range ts {
		st.TotalPips += t.Pips
		st.TotalPnL += t.PnL
		dur += t.DurationMinutes
		st.ByExitReason[t.ExitReason]++

		if t.IsWin {
			st.Wins++
			st.GrossWinPips += t.Pips
			runWins++
			runLoss = 0
		} else {
			st.Losses++
			runLoss++
			runWins = 0
		}
		if t.Pips < 0 {
			st.GrossLossPips += -t.Pips
		}
		st.MaxConsecutiveWins = max(st.MaxConsecutiveWins, runWins)
		st.MaxConsecutiveLosses = max(st.MaxConsecutiveLosses, runLoss)

		cum += t.Pips
		peak = math.Max(peak, cum)
		st.MaxDrawdownPips = math.Max(st.MaxDrawdownPips, peak-cum)
	}

	n := float64(len(ts))
	st.WinRate = float64(st.Wins) / n
	st.AvgDurationMinutes = dur / n
	if st.Wins > 0 {
		st.AvgWinPips = st.GrossWinPips / float64(st.Wins)
	}
	if st.Losses > 0 {
		st.AvgLossPips = -st.GrossLossPips / float64(st.Losses)
	}
	st.ProfitFactor = profitFactor(st.GrossWinPips, st.GrossLossPips)

	st.TotalPips = roundTenth(st.TotalPips)
	st.MaxDrawdownPips = roundTenth(st.MaxDrawdownPips)
	st.TotalPnL = risk.Round(st.TotalPnL)

	st.Daily = dailyRollup(ts)
	st.Monthly = monthlyRollup(st.Daily)
	return st
}

func profitFactor(grossWin, grossLoss float64) float64 {
	switch {
	case grossLoss > 0:
		return grossWin / grossLoss
	case grossWin > 0:
		return ProfitFactorCap
	default:
		return 0
	}
}

// dailyRollup expects trades in entry order.
func dailyRollup(ts []TradeRecord) []DailyStat {
	idx := map[string]int{}
	var days []DailyStat
	for _, t := range ts {
		date := tradeDate(t)
		i, ok := idx[date]
		if !ok {
			i = len(days)
			idx[date] = i
			days = append(days, DailyStat{Date: date})
		}
		d := &days[i]
		d.Trades++
		d.NetPips += t.Pips
		d.PnL += t.PnL
		if t.IsWin {
			d.Wins++
		}
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	cum := 0.0
	for i := range days {
		d := &days[i]
		d.NetPips = roundTenth(d.NetPips)
		d.PnL = risk.Round(d.PnL)
		d.WinRate = float64(d.Wins) / float64(d.Trades)
		cum += d.NetPips
		d.CumulativePips = roundTenth(cum)
	}
	return days
}

func monthlyRollup(days []DailyStat) []MonthlyStat {
	var months []MonthlyStat
	for _, d := range days {
		key := d.Date[:7]
		if len(months) == 0 || months[len(months)-1].Month != key {
			months = append(months, MonthlyStat{
				Month:        key,
				BestDay:      d.Date,
				BestDayPips:  d.NetPips,
				WorstDay:     d.Date,
				WorstDayPips: d.NetPips,
			})
		}
		m := &months[len(months)-1]
		m.Trades += d.Trades
		m.Wins += d.Wins
		m.NetPips += d.NetPips
		m.PnL += d.PnL
		m.TradingDays++
		if d.NetPips > m.BestDayPips {
			m.BestDay, m.BestDayPips = d.Date, d.NetPips
		}
		if d.NetPips < m.WorstDayPips {
			m.WorstDay, m.WorstDayPips = d.Date, d.NetPips
		}
	}
	for i := range months {
		m := &months[i]
		m.NetPips = roundTenth(m.NetPips)
		m.PnL = risk.Round(m.PnL)
		m.WinRate = float64(m.Wins) / float64(m.Trades)
	}
	return months
}

// tradeDate is the entry session date, falling back to the UTC entry day.
func tradeDate(t TradeRecord) string {
	if t.Session != "" {
		return t.Session
	}
	return t.EntryTime.UTC().Format("2006-01-02")
}

func sortedByEntry(trades []TradeRecord) []TradeRecord {
	ts := make([]TradeRecord, len(trades))
	copy(ts, trades)
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].EntryTime.Before(ts[j].EntryTime) })
	return ts
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
