package strategy

import (
	"fmt"
	"log/slog"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/indicator"
)

// EMACross trades fast/slow ema crossovers. A bar whose previous ema values
// are still warming up is treated as crossing from equality, so a trend
// already established at the first readable bar produces an entry.
type EMACross struct {
	cfg     config.EMACross
	log     *slog.Logger
	fastKey string
	slowKey string
}

func NewEMACross(cfg config.EMACross, log *slog.Logger) *EMACross {
	return &EMACross{
		cfg:     cfg,
		log:     log,
		fastKey: fmt.Sprintf("ema_%d", cfg.Fast),
		slowKey: fmt.Sprintf("ema_%d", cfg.Slow),
	}
}

// Periods reports the ema periods the generator needs computed.
func (g *EMACross) Periods() (fast, slow int) {
	return g.cfg.Fast, g.cfg.Slow
}

func (g *EMACross) Generate(snap indicator.Snapshot, pos Position, st *State) Signal {
	hold := Signal{Type: Hold, BarTime: snap.Time}

	fast, okF := snap.Value(g.fastKey)
	slow, okS := snap.Value(g.slowKey)
	if !okF || !okS {
		hold.Reason = "insufficient data"
		return hold
	}

	prevFast, okPF := snap.Prev(g.fastKey)
	prevSlow, okPS := snap.Prev(g.slowKey)
	if !okPF || !okPS {
		prevFast, prevSlow = 0, 0
	}

	crossUp := prevFast <= prevSlow && fast > slow
	crossDown := prevFast >= prevSlow && fast < slow

	if pos == Long {
		if s, ok := g.exitLong(snap, fast, slow, crossDown, st); ok {
			return s
		}
	}
	if pos == Short {
		if s, ok := g.exitShort(snap, fast, slow, crossUp, st); ok {
			return s
		}
	}
	if pos == Flat {
		if s, ok := g.entry(snap, fast, slow, crossUp, crossDown, st); ok {
			return s
		}
	}

	hold.Reason = "no signal"
	return hold
}

func (g *EMACross) entry(snap indicator.Snapshot, fast, slow float64, crossUp, crossDown bool, st *State) (Signal, bool) {
	if g.cfg.PreventDuplicates && st.LastSignalBar.Equal(snap.Time) {
		return Signal{}, false
	}

	if crossUp && g.allows(Long) {
		return g.emit(st, Signal{
			Type:       Buy,
			Strength:   crossStrength(fast, slow),
			Indicators: []string{"EMA"},
			Reason:     fmt.Sprintf("bullish ema crossover: fast(%d)=%.5f > slow(%d)=%.5f", g.cfg.Fast, fast, g.cfg.Slow, slow),
			BarTime:    snap.Time,
		}), true
	}

	if crossDown && g.allows(Short) {
		return g.emit(st, Signal{
			Type:       Sell,
			Strength:   crossStrength(fast, slow),
			Indicators: []string{"EMA"},
			Reason:     fmt.Sprintf("bearish ema crossover: fast(%d)=%.5f < slow(%d)=%.5f", g.cfg.Fast, fast, g.cfg.Slow, slow),
			BarTime:    snap.Time,
		}), true
	}

	return Signal{}, false
}

func (g *EMACross) exitLong(snap indicator.Snapshot, fast, slow float64, crossDown bool, st *State) (Signal, bool) {
	// A bearish cross while long reverses into a short when the direction
	// filter allows it; otherwise it is a plain exit.
	if g.cfg.ExitOnCross && crossDown {
		if g.allows(Short) {
			return g.emit(st, Signal{
				Type:       Sell,
				Strength:   crossStrength(fast, slow),
				Indicators: []string{"EMA"},
				Reason:     "bearish ema crossover against long position",
				BarTime:    snap.Time,
			}), true
		}
		return g.emit(st, Signal{
			Type:       ExitLong,
			Strength:   1.0,
			Indicators: []string{"EMA"},
			Reason:     "bearish ema crossover",
			BarTime:    snap.Time,
		}), true
	}

	if g.cfg.ExitDeviationPct > 0 {
		threshold := slow * (1 - g.cfg.ExitDeviationPct/100)
		if snap.Low < threshold {
			return g.emit(st, Signal{
				Type:       ExitLong,
				Strength:   1.0,
				Indicators: []string{"EMA"},
				Reason:     fmt.Sprintf("low %.5f fell %.2f%% below slow ema (%.5f)", snap.Low, g.cfg.ExitDeviationPct, threshold),
				BarTime:    snap.Time,
			}), true
		}
	}

	return Signal{}, false
}

func (g *EMACross) exitShort(snap indicator.Snapshot, fast, slow float64, crossUp bool, st *State) (Signal, bool) {
	if g.cfg.ExitOnCross && crossUp {
		if g.allows(Long) {
			return g.emit(st, Signal{
				Type:       Buy,
				Strength:   crossStrength(fast, slow),
				Indicators: []string{"EMA"},
				Reason:     "bullish ema crossover against short position",
				BarTime:    snap.Time,
			}), true
		}
		return g.emit(st, Signal{
			Type:       ExitShort,
			Strength:   1.0,
			Indicators: []string{"EMA"},
			Reason:     "bullish ema crossover",
			BarTime:    snap.Time,
		}), true
	}

	if g.cfg.ExitDeviationPct > 0 {
		threshold := slow * (1 + g.cfg.ExitDeviationPct/100)
		if snap.High > threshold {
			return g.emit(st, Signal{
				Type:       ExitShort,
				Strength:   1.0,
				Indicators: []string{"EMA"},
				Reason:     fmt.Sprintf("high %.5f rose %.2f%% above slow ema (%.5f)", snap.High, g.cfg.ExitDeviationPct, threshold),
				BarTime:    snap.Time,
			}), true
		}
	}

	return Signal{}, false
}

func (g *EMACross) emit(st *State, s Signal) Signal {
	st.LastSignalBar = s.BarTime
	if g.log != nil {
		g.log.Debug("signal", slog.String("type", s.Type.String()), slog.String("reason", s.Reason), slog.Time("bar", s.BarTime))
	}
	return s
}

func (g *EMACross) allows(p Position) bool {
	switch g.cfg.Direction {
	case "long":
		return p == Long
	case "short":
		return p == Short
	default:
		return true
	}
}

// crossStrength scales the relative ema separation so that 0.5% apart maps
// to full strength.
func crossStrength(fast, slow float64) float64 {
	if slow == 0 {
		return 0
	}

	sep := fast - slow
	if sep < 0 {
		sep = -sep
	}

	return min(sep/slow*100/0.5, 1.0)
}
