package report

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamma-omg/backtester/internal/broker"
	"github.com/gamma-omg/backtester/internal/stats"
)

func TestNumber_RoundTrip(t *testing.T) {
	tbl := []struct {
		value float64
		json  string
	}{
		{value: 1.25, json: "1.25"},
		{value: 0, json: "0"},
		{value: math.Inf(1), json: `"inf"`},
		{value: math.Inf(-1), json: `"-inf"`},
	}

	for _, c := range tbl {
		t.Run(c.json, func(t *testing.T) {
			data, err := json.Marshal(Number(c.value))
			require.NoError(t, err)
			assert.Equal(t, c.json, string(data))

			var back Number
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, c.value, float64(back))
		})
	}
}

func TestSaveLoad(t *testing.T) {
	start := time.Unix(1700000000, 0).UTC()
	results := map[string]stats.Results{
		"EURUSD": {
			InitialBalance: 10000,
			FinalBalance:   10304.5,
			TotalReturnPct: 3.045,
			TotalTrades:    2,
			WinningTrades:  2,
			WinRatePct:     100,
			ProfitFactor:   math.Inf(1),
			SharpeRatio:    1.2345678,
			Trades: []broker.Trade{
				{
					Symbol:     "EURUSD",
					Direction:  broker.Long,
					EntryTime:  start,
					ExitTime:   start.Add(time.Hour),
					EntryPrice: 100.2,
					ExitPrice:  109.8,
					Volume:     1,
					PnL:        9.6,
					ExitReason: broker.ExitSignal,
				},
			},
			Equity: []stats.EquityPoint{
				{Time: start, Balance: 10000, Equity: 10000},
				{Time: start.Add(time.Hour), Balance: 9500, Equity: 9500, Drawdown: 5},
				{Time: start.Add(2 * time.Hour), Balance: 10304.5, Equity: 10304.5},
			},
			MonthlyReturns: []stats.MonthReturn{{Month: "2023-11", ReturnPct: 3.045}},
		},
	}

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, Save(path, results))

	back, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, back, "EURUSD")

	got := back["EURUSD"]
	want := results["EURUSD"]

	assert.True(t, math.IsInf(got.ProfitFactor, 1))
	assert.InDelta(t, want.FinalBalance, got.FinalBalance, 1e-6)
	assert.InDelta(t, want.SharpeRatio, got.SharpeRatio, 1e-6)
	assert.Equal(t, want.TotalTrades, got.TotalTrades)
	require.Len(t, got.Equity, 3)
	assert.InDelta(t, 5, got.Equity[1].Drawdown, 1e-6)
	require.Len(t, got.Trades, 1)
	assert.Equal(t, want.Trades[0].EntryTime, got.Trades[0].EntryTime)
	assert.InDelta(t, want.Trades[0].PnL, got.Trades[0].PnL, 1e-6)
	assert.Equal(t, want.MonthlyReturns, got.MonthlyReturns)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestSaveChart(t *testing.T) {
	start := time.Unix(1700000000, 0).UTC()
	r := stats.Results{
		Equity: []stats.EquityPoint{
			{Time: start, Balance: 10000, Equity: 10000},
			{Time: start.Add(time.Hour), Balance: 10100, Equity: 10150},
			{Time: start.Add(2 * time.Hour), Balance: 10100, Equity: 10050},
		},
	}

	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, SaveChart(path, "EURUSD", r))
	assert.FileExists(t, path)
}

func TestChart_NoPanels(t *testing.T) {
	assert.Error(t, NewChart(800, 600).Save(filepath.Join(t.TempDir(), "x.png")))
}
