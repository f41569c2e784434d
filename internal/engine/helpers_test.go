package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/market"
)

var barStart = time.Unix(1700000000, 0).UTC()

func makeBars(closes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:   barStart.Add(time.Duration(i) * time.Hour),
			Open:   decimal.NewFromFloat(c),
			High:   decimal.NewFromFloat(c + 0.5),
			Low:    decimal.NewFromFloat(c - 0.5),
			Close:  decimal.NewFromFloat(c),
			Volume: decimal.NewFromInt(1),
		}
	}
	return bars
}

func closesByTime(bars []market.Bar) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(bars))
	for _, b := range bars {
		c, _ := b.Close.Float64()
		out[b.Time] = c
	}
	return out
}

func testSymbol() config.Symbol {
	return config.Symbol{
		ContractSize: 1,
		Point:        1,
		MinVolume:    1,
		MaxVolume:    1,
		VolumeStep:   1,
	}
}

// testConfig wires an ema crossover setup whose stop and target sit far
// outside any test price path, so only signals move positions.
func testConfig(fast, slow int, spread float64) *config.Config {
	return &config.Config{
		InitialBalance: 10000,
		Risk:           config.Risk{RiskPerTrade: 0.9},
		Costs:          config.Costs{Spread: spread},
		StopLoss:       config.StopLoss{Method: "fixed", FixedDistance: 1000},
		TakeProfit:     config.TakeProfit{Method: "risk_reward", RiskRewardRatio: 1000},
		StrategyRef: config.StrategyReference{
			Strategy: config.EMACross{
				Fast:        fast,
				Slow:        slow,
				Direction:   "both",
				ExitOnCross: true,
			},
		},
		Symbols: map[string]config.Symbol{"TEST": testSymbol()},
	}
}

func flatCloses(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

func risingCloses(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

// walkCloses is a deterministic jagged path with several trend reversals.
func walkCloses(n int) []float64 {
	out := make([]float64, n)
	price := 100.0
	seed := uint64(42)
	for i := range out {
		seed = seed*6364136223846793005 + 1442695040888963407
		step := float64(seed%200)/100 - 0.95
		price += step
		out[i] = price
	}
	return out
}
