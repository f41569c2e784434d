package stats

import (
	"math"
	"time"

	"github.com/gamma-omg/backtester/internal/broker"
)

const tradingDaysPerYear = 252

// EquityPoint is one mark-to-market sample of the account, taken once per
// processed bar. Drawdown is the percent fall of the realized balance below
// its running peak at that sample, filled in by Compute.
type EquityPoint struct {
	Time     time.Time `json:"time"`
	Balance  float64   `json:"balance"`
	Equity   float64   `json:"equity"`
	Drawdown float64   `json:"drawdown"`
}

// Results aggregates one finished run. Ratios that have no defined value
// for the run are zero; ProfitFactor is +Inf when there are winners and
// no losers.
type Results struct {
	InitialBalance  float64        `json:"initial_balance"`
	FinalBalance    float64        `json:"final_balance"`
	TotalReturnPct  float64        `json:"total_return_pct"`
	TotalTrades     int            `json:"total_trades"`
	WinningTrades   int            `json:"winning_trades"`
	LosingTrades    int            `json:"losing_trades"`
	WinRatePct      float64        `json:"win_rate_pct"`
	GrossProfit     float64        `json:"gross_profit"`
	GrossLoss       float64        `json:"gross_loss"`
	ProfitFactor    float64        `json:"profit_factor"`
	AvgWin          float64        `json:"avg_win"`
	AvgLoss         float64        `json:"avg_loss"`
	LargestWin      float64        `json:"largest_win"`
	LargestLoss     float64        `json:"largest_loss"`
	MaxDrawdownPct  float64        `json:"max_drawdown_pct"`
	SharpeRatio     float64        `json:"sharpe_ratio"`
	SortinoRatio    float64        `json:"sortino_ratio"`
	CalmarRatio     float64        `json:"calmar_ratio"`
	AvgTradeMinutes float64        `json:"avg_trade_minutes"`
	Trades          []broker.Trade `json:"trades"`
	Equity          []EquityPoint  `json:"equity"`
	MonthlyReturns  []MonthReturn  `json:"monthly_returns"`
}

type MonthReturn struct {
	Month     string  `json:"month"`
	ReturnPct float64 `json:"return_pct"`
}

// Compute derives every aggregate metric from the closed trades and the
// per-bar equity curve.
func Compute(initialBalance float64, trades []broker.Trade, equity []EquityPoint) Results {
	r := Results{
		InitialBalance: initialBalance,
		FinalBalance:   initialBalance,
		Trades:         trades,
		Equity:         equity,
	}

	var minutes float64
	for _, t := range trades {
		r.TotalTrades++
		minutes += float64(t.DurationMinutes)
		if t.PnL > 0 {
			r.WinningTrades++
			r.GrossProfit += t.PnL
			if t.PnL > r.LargestWin {
				r.LargestWin = t.PnL
			}
		} else {
			r.LosingTrades++
			r.GrossLoss += -t.PnL
			if t.PnL < r.LargestLoss {
				r.LargestLoss = t.PnL
			}
		}
	}

	if len(equity) > 0 {
		r.FinalBalance = equity[len(equity)-1].Balance
	}
	if initialBalance > 0 {
		r.TotalReturnPct = (r.FinalBalance - initialBalance) / initialBalance * 100
	}

	if r.TotalTrades > 0 {
		r.WinRatePct = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
		r.AvgTradeMinutes = minutes / float64(r.TotalTrades)
	}
	if r.WinningTrades > 0 {
		r.AvgWin = r.GrossProfit / float64(r.WinningTrades)
	}
	if r.LosingTrades > 0 {
		r.AvgLoss = -r.GrossLoss / float64(r.LosingTrades)
	}

	switch {
	case r.GrossLoss > 0:
		r.ProfitFactor = r.GrossProfit / r.GrossLoss
	case r.GrossProfit > 0:
		r.ProfitFactor = math.Inf(1)
	}

	r.MaxDrawdownPct = fillDrawdown(equity)
	r.SharpeRatio = sharpe(equity, false)
	r.SortinoRatio = sharpe(equity, true)
	if r.MaxDrawdownPct > 0 {
		r.CalmarRatio = (r.TotalReturnPct / 100) / (r.MaxDrawdownPct / 100)
	}
	r.MonthlyReturns = monthlyReturns(equity)

	return r
}

// fillDrawdown stamps every sample with the percent fall of the realized
// balance below its running maximum and returns the deepest one. Open
// positions do not count against it until they settle.
func fillDrawdown(equity []EquityPoint) float64 {
	var peak, worst float64
	for i := range equity {
		p := &equity[i]
		if p.Balance > peak {
			peak = p.Balance
		}
		p.Drawdown = 0
		if peak > 0 {
			p.Drawdown = (peak - p.Balance) / peak * 100
		}
		if p.Drawdown > worst {
			worst = p.Drawdown
		}
	}

	return worst
}

// sharpe annualizes the mean over the standard deviation of per-bar equity
// returns. With downside set only negative returns contribute to the
// deviation, which turns it into the Sortino ratio.
func sharpe(equity []EquityPoint, downside bool) float64 {
	var returns []float64
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (equity[i].Equity-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	n := 0
	for _, r := range returns {
		if downside {
			if r >= 0 {
				continue
			}
			variance += r * r
			n++
		} else {
			variance += (r - mean) * (r - mean)
			n++
		}
	}
	if n < 2 {
		return 0
	}

	std := math.Sqrt(variance / float64(n-1))
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// monthlyReturns resamples the equity curve to month ends and reports the
// month over month change of the closing equity.
func monthlyReturns(equity []EquityPoint) []MonthReturn {
	if len(equity) == 0 {
		return nil
	}

	type monthEnd struct {
		key    string
		equity float64
	}

	var ends []monthEnd
	for _, p := range equity {
		key := p.Time.Format("2006-01")
		if len(ends) > 0 && ends[len(ends)-1].key == key {
			ends[len(ends)-1].equity = p.Equity
			continue
		}
		ends = append(ends, monthEnd{key: key, equity: p.Equity})
	}

	var out []MonthReturn
	for i := 1; i < len(ends); i++ {
		ret := 0.0
		if ends[i-1].equity != 0 {
			ret = (ends[i].equity - ends[i-1].equity) / ends[i-1].equity * 100
		}
		out = append(out, MonthReturn{Month: ends[i].key, ReturnPct: ret})
	}

	return out
}
