package optimizer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/engine"
	"github.com/gamma-omg/backtester/internal/market"
)

// Result is the outcome of one fast/slow period combination.
type Result struct {
	Fast           int
	Slow           int
	TotalReturnPct float64
	MaxDrawdownPct float64
	SharpeRatio    float64
	ProfitFactor   float64
	TotalTrades    int
	WinRatePct     float64
}

// Sweep searches the configured fast/slow grid for the best performing
// crossover periods on one symbol's data.
type Sweep struct {
	cfg *config.Config
	log *slog.Logger
}

func NewSweep(cfg *config.Config, log *slog.Logger) *Sweep {
	return &Sweep{cfg: cfg, log: log}
}

// Run backtests every valid combination of the grid within the configured
// time budget, most profitable first. Combinations with fast >= slow are
// skipped. When the budget runs out, combinations already in flight finish
// and the rest are abandoned; the partial ranking is still returned.
func (s *Sweep) Run(ctx context.Context, symbol string, sym config.Symbol, bars []market.Bar) ([]Result, error) {
	budget, err := s.cfg.Optimizer.BudgetDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid optimizer budget: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	base, _ := s.cfg.StrategyRef.Strategy.(config.EMACross)
	opt := s.cfg.Optimizer

	var (
		mu      sync.Mutex
		results []Result
	)

	var g errgroup.Group
	g.SetLimit(opt.Workers)

sweep:
	for fast := opt.FastFrom; fast <= opt.FastTo; fast++ {
		for slow := opt.SlowFrom; slow <= opt.SlowTo; slow += opt.SlowStep {
			if fast >= slow {
				continue
			}
			if ctx.Err() != nil {
				s.log.Warn("optimizer budget exhausted", "completed", len(results))
				break sweep
			}

			fast, slow := fast, slow
			g.Go(func() error {
				res, err := s.evaluate(symbol, sym, bars, base, fast, slow)
				if err != nil {
					return err
				}

				mu.Lock()
				results = append(results, res)
				mu.Unlock()

				s.log.Debug("combination evaluated",
					"fast", fast,
					"slow", slow,
					"return_pct", res.TotalReturnPct,
					"trades", res.TotalTrades)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalReturnPct != results[j].TotalReturnPct {
			return results[i].TotalReturnPct > results[j].TotalReturnPct
		}
		if results[i].Fast != results[j].Fast {
			return results[i].Fast < results[j].Fast
		}
		return results[i].Slow < results[j].Slow
	})

	return results, nil
}

// evaluate runs one combination against a copy of the config so concurrent
// evaluations never share strategy state.
func (s *Sweep) evaluate(symbol string, sym config.Symbol, bars []market.Bar, base config.EMACross, fast, slow int) (Result, error) {
	cfg := *s.cfg
	strat := base
	strat.Fast = fast
	strat.Slow = slow
	cfg.StrategyRef = config.StrategyReference{Strategy: strat}

	bt, err := engine.New(&cfg, s.log)
	if err != nil {
		return Result{}, fmt.Errorf("combination %d/%d: %w", fast, slow, err)
	}

	r := bt.Run(symbol, sym, bars)
	return Result{
		Fast:           fast,
		Slow:           slow,
		TotalReturnPct: r.TotalReturnPct,
		MaxDrawdownPct: r.MaxDrawdownPct,
		SharpeRatio:    r.SharpeRatio,
		ProfitFactor:   r.ProfitFactor,
		TotalTrades:    r.TotalTrades,
		WinRatePct:     r.WinRatePct,
	}, nil
}

// WriteCSV renders a ranking in the order given.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"fast", "slow", "return_pct", "max_drawdown_pct", "sharpe", "profit_factor", "trades", "win_rate_pct"}); err != nil {
		return fmt.Errorf("failed to write ranking header: %w", err)
	}

	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Fast),
			strconv.Itoa(r.Slow),
			formatMetric(r.TotalReturnPct),
			formatMetric(r.MaxDrawdownPct),
			formatMetric(r.SharpeRatio),
			formatMetric(r.ProfitFactor),
			strconv.Itoa(r.TotalTrades),
			formatMetric(r.WinRatePct),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write ranking row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatMetric(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
