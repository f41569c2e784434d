package indicator

import (
	"fmt"
	"slices"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/market"
)

// Engine computes the enabled indicator set once over a whole bar series.
// It is a pure function of its input: no state survives a Compute call.
type Engine struct {
	cfg        config.Indicators
	emaPeriods []int
}

func NewEngine(cfg config.Indicators) *Engine {
	e := &Engine{cfg: cfg}
	if cfg.EMA != nil && cfg.EMA.Enabled {
		e.emaPeriods = append(e.emaPeriods, cfg.EMA.Periods...)
	}
	return e
}

// EnsureEMA adds ema periods a strategy depends on, on top of whatever the
// indicator config enables.
func (e *Engine) EnsureEMA(periods ...int) {
	for _, p := range periods {
		if !slices.Contains(e.emaPeriods, p) {
			e.emaPeriods = append(e.emaPeriods, p)
		}
	}
	slices.Sort(e.emaPeriods)
}

// Warmup is the number of bars needed before every enabled indicator has a
// defined value.
func (e *Engine) Warmup() int {
	warmup := 0
	grow := func(n int) {
		if n > warmup {
			warmup = n
		}
	}

	cfg := e.cfg
	if cfg.SMA != nil && cfg.SMA.Enabled {
		for _, p := range cfg.SMA.Periods {
			grow(p)
		}
	}
	for _, p := range e.emaPeriods {
		grow(p)
	}
	if cfg.RSI != nil && cfg.RSI.Enabled {
		grow(cfg.RSI.Period + 1)
	}
	if cfg.MACD != nil && cfg.MACD.Enabled {
		grow(cfg.MACD.Slow + cfg.MACD.Signal - 1)
	}
	if cfg.Bollinger != nil && cfg.Bollinger.Enabled {
		grow(cfg.Bollinger.Period)
	}
	if cfg.Stochastic != nil && cfg.Stochastic.Enabled {
		grow(cfg.Stochastic.KPeriod + cfg.Stochastic.DPeriod - 1)
	}
	if cfg.WilliamsR != nil && cfg.WilliamsR.Enabled {
		grow(cfg.WilliamsR.Period)
	}
	if cfg.ADX != nil && cfg.ADX.Enabled {
		grow(2*cfg.ADX.Period - 1)
	}
	if cfg.CCI != nil && cfg.CCI.Enabled {
		grow(cfg.CCI.Period)
	}
	if cfg.ATR != nil && cfg.ATR.Enabled {
		grow(cfg.ATR.Period)
	}

	return warmup
}

// Compute returns every enabled indicator as an index-aligned Output over
// the full series. A series shorter than the warm-up yields an empty map,
// not an error; callers check value availability per bar.
func (e *Engine) Compute(s market.Series) map[string]Output {
	outputs := make(map[string]Output)
	if s.Len() < e.Warmup() {
		return outputs
	}

	cfg := e.cfg
	if cfg.SMA != nil && cfg.SMA.Enabled {
		for _, p := range cfg.SMA.Periods {
			outputs[fmt.Sprintf("sma_%d", p)] = Scalar(sma(s.Close, p))
		}
	}
	for _, p := range e.emaPeriods {
		outputs[fmt.Sprintf("ema_%d", p)] = Scalar(ema(s.Close, p))
	}
	if cfg.RSI != nil && cfg.RSI.Enabled {
		outputs["rsi"] = Scalar(rsi(s.Close, cfg.RSI.Period))
	}
	if cfg.MACD != nil && cfg.MACD.Enabled {
		outputs["macd"] = Composite(macd(s.Close, cfg.MACD.Fast, cfg.MACD.Slow, cfg.MACD.Signal))
	}
	if cfg.Bollinger != nil && cfg.Bollinger.Enabled {
		outputs["bb"] = Composite(bollinger(s.Close, cfg.Bollinger.Period, cfg.Bollinger.StdDev))
	}
	if cfg.Stochastic != nil && cfg.Stochastic.Enabled {
		outputs["stoch"] = Composite(stochastic(s.High, s.Low, s.Close, cfg.Stochastic.KPeriod, cfg.Stochastic.DPeriod))
	}
	if cfg.WilliamsR != nil && cfg.WilliamsR.Enabled {
		outputs["williams_r"] = Scalar(williamsR(s.High, s.Low, s.Close, cfg.WilliamsR.Period))
	}
	if cfg.ADX != nil && cfg.ADX.Enabled {
		outputs["adx"] = Composite(adx(s.High, s.Low, s.Close, cfg.ADX.Period))
	}
	if cfg.CCI != nil && cfg.CCI.Enabled {
		outputs["cci"] = Scalar(cci(s.High, s.Low, s.Close, cfg.CCI.Period))
	}
	if cfg.ATR != nil && cfg.ATR.Enabled {
		outputs["atr"] = Scalar(atr(s.High, s.Low, s.Close, cfg.ATR.Period))
	}

	return outputs
}

// SnapshotAt flattens the computed outputs at bar i, together with the
// previous bar's values for crossover checks.
func (e *Engine) SnapshotAt(outputs map[string]Output, s market.Series, i int) Snapshot {
	snap := Snapshot{
		Index:  i,
		Time:   s.Time[i],
		Price:  s.Close[i],
		High:   s.High[i],
		Low:    s.Low[i],
		values: flatten(outputs, i),
	}
	if i > 0 {
		snap.prev = flatten(outputs, i-1)
	}

	return snap
}
