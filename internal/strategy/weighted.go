package strategy

import (
	"fmt"
	"log/slog"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/indicator"
)

type vote struct {
	rule   string
	weight float64
}

// WeightedVoting aggregates one buy or sell vote per enabled indicator,
// weighted by its configured weight, and classifies the normalized strengths
// against the threshold ladder. Buy thresholds are checked before sell at
// each level, so a simultaneous double-cross resolves to the buy side.
type WeightedVoting struct {
	ind config.Indicators
	th  config.Thresholds
	log *slog.Logger
}

func NewWeightedVoting(ind config.Indicators, th config.Thresholds, log *slog.Logger) *WeightedVoting {
	return &WeightedVoting{ind: ind, th: th, log: log}
}

func (g *WeightedVoting) Generate(snap indicator.Snapshot, pos Position, st *State) Signal {
	var buys, sells []vote
	var used []string
	totalWeight := 0.0

	record := func(name string, weight float64, buy, sell bool, rule string) {
		used = append(used, name)
		if buy {
			buys = append(buys, vote{rule: rule, weight: weight})
		}
		if sell {
			sells = append(sells, vote{rule: rule, weight: weight})
		}
	}

	if cfg := g.ind.SMA; cfg != nil && cfg.Enabled && len(cfg.Periods) >= 2 {
		totalWeight += cfg.Weight
		fast, okF := snap.Value(fmt.Sprintf("sma_%d", cfg.Periods[0]))
		slow, okS := snap.Value(fmt.Sprintf("sma_%d", cfg.Periods[1]))
		if okF && okS {
			record("SMA", cfg.Weight, fast > slow, fast <= slow, "sma trend")
		}
	}

	if cfg := g.ind.RSI; cfg != nil && cfg.Enabled {
		totalWeight += cfg.Weight
		if rsi, ok := snap.Value("rsi"); ok {
			record("RSI", cfg.Weight, rsi < cfg.Oversold, rsi > cfg.Overbought, "rsi level")
		}
	}

	if cfg := g.ind.MACD; cfg != nil && cfg.Enabled {
		totalWeight += cfg.Weight
		line, okL := snap.Value("macd")
		sig, okS := snap.Value("macd_signal")
		if okL && okS {
			record("MACD", cfg.Weight, line > sig, line <= sig, "macd vs signal")
		}
	}

	if cfg := g.ind.Bollinger; cfg != nil && cfg.Enabled {
		totalWeight += cfg.Weight
		upper, okU := snap.Value("bb_upper")
		lower, okL := snap.Value("bb_lower")
		if okU && okL {
			record("BB", cfg.Weight, snap.Price < lower, snap.Price > upper, "price outside bands")
		}
	}

	if cfg := g.ind.Stochastic; cfg != nil && cfg.Enabled {
		totalWeight += cfg.Weight
		k, okK := snap.Value("stoch_k")
		d, okD := snap.Value("stoch_d")
		if okK && okD {
			buy := k < cfg.Oversold && d < cfg.Oversold
			sell := k > cfg.Overbought && d > cfg.Overbought
			record("STOCH", cfg.Weight, buy, sell, "stochastic level")
		}
	}

	if cfg := g.ind.WilliamsR; cfg != nil && cfg.Enabled {
		totalWeight += cfg.Weight
		if wr, ok := snap.Value("williams_r"); ok {
			record("WILLIAMS_R", cfg.Weight, wr < cfg.Oversold, wr > cfg.Overbought, "williams %r level")
		}
	}

	if cfg := g.ind.ADX; cfg != nil && cfg.Enabled {
		totalWeight += cfg.Weight
		if adx, ok := snap.Value("adx"); ok && adx > cfg.TrendThreshold {
			// adx confirms trend strength only, it votes no direction
			used = append(used, "ADX")
		}
	}

	if cfg := g.ind.CCI; cfg != nil && cfg.Enabled {
		totalWeight += cfg.Weight
		if cci, ok := snap.Value("cci"); ok {
			record("CCI", cfg.Weight, cci < cfg.Oversold, cci > cfg.Overbought, "cci level")
		}
	}

	buyStrength, sellStrength := 0.0, 0.0
	if totalWeight > 0 {
		for _, v := range buys {
			buyStrength += v.weight
		}
		for _, v := range sells {
			sellStrength += v.weight
		}
		buyStrength /= totalWeight
		sellStrength /= totalWeight
	}

	s := g.classify(buyStrength, sellStrength, len(buys), len(sells))
	s.Indicators = used
	s.BarTime = snap.Time
	if g.log != nil {
		g.log.Debug("signal", slog.String("type", s.Type.String()),
			slog.Float64("buy", buyStrength), slog.Float64("sell", sellStrength),
			slog.Time("bar", s.BarTime))
	}
	return s
}

func (g *WeightedVoting) classify(buy, sell float64, nBuy, nSell int) Signal {
	switch {
	case buy >= g.th.StrongBuy:
		return Signal{Type: Buy, Strength: buy, Reason: fmt.Sprintf("strong buy signal from %d indicators", nBuy)}
	case sell >= g.th.StrongSell:
		return Signal{Type: Sell, Strength: sell, Reason: fmt.Sprintf("strong sell signal from %d indicators", nSell)}
	case buy >= g.th.WeakBuy:
		return Signal{Type: Buy, Strength: buy, Reason: fmt.Sprintf("weak buy signal from %d indicators", nBuy)}
	case sell >= g.th.WeakSell:
		return Signal{Type: Sell, Strength: sell, Reason: fmt.Sprintf("weak sell signal from %d indicators", nSell)}
	default:
		return Signal{Type: Hold, Strength: max(buy, sell), Reason: "no clear signal from indicators"}
	}
}
