package engine

import (
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamma-omg/backtester/internal/broker"
	"github.com/gamma-omg/backtester/internal/config"
)

func TestRun_FlatMarket(t *testing.T) {
	cfg := testConfig(9, 21, 0)
	bt, err := New(cfg, slog.Default())
	require.NoError(t, err)

	r := bt.Run("TEST", testSymbol(), makeBars(flatCloses(100, 100)))

	assert.Equal(t, 0, r.TotalTrades)
	assert.Equal(t, 0.0, r.WinRatePct)
	assert.Equal(t, 0.0, r.ProfitFactor)
	assert.InDelta(t, 10000, r.FinalBalance, 1e-9)
	assert.InDelta(t, 0, r.MaxDrawdownPct, 1e-9)
	// one equity point per bar from the first fully warmed-up bar
	assert.Len(t, r.Equity, 80)
}

func TestRun_RisingMarket(t *testing.T) {
	cfg := testConfig(5, 20, 0)
	bars := makeBars(risingCloses(100, 100, 150))
	closes := closesByTime(bars)

	bt, err := New(cfg, slog.Default())
	require.NoError(t, err)
	r := bt.Run("TEST", testSymbol(), bars)

	require.Equal(t, 1, r.TotalTrades)
	trade := r.Trades[0]

	assert.Equal(t, broker.Long, trade.Direction)
	assert.Equal(t, broker.ExitEndOfData, trade.ExitReason)
	// entered on the first bar where both emas are defined
	assert.Equal(t, bars[19].Time, trade.EntryTime)
	assert.Equal(t, bars[99].Time, trade.ExitTime)

	raw := closes[trade.ExitTime] - closes[trade.EntryTime]
	assert.InDelta(t, raw, trade.PnL, 1e-9)
	assert.InDelta(t, 10000+raw, r.FinalBalance, 1e-9)
	assert.InDelta(t, 100, r.WinRatePct, 1e-9)
	assert.True(t, math.IsInf(r.ProfitFactor, 1))
}

func TestRun_ZeroStopDistance(t *testing.T) {
	cfg := testConfig(5, 20, 0)
	cfg.StopLoss = config.StopLoss{Method: "fixed", FixedDistance: 0}

	bt, err := New(cfg, slog.Default())
	require.NoError(t, err)
	r := bt.Run("TEST", testSymbol(), makeBars(risingCloses(100, 100, 150)))

	// an entry whose stop sits on the entry price cannot be sized
	assert.Equal(t, 0, r.TotalTrades)
	assert.InDelta(t, 10000, r.FinalBalance, 1e-9)
}

func TestRun_ReversalWithSpread(t *testing.T) {
	cfg := testConfig(5, 20, 2)

	closes := append(risingCloses(50, 100, 149), risingCloses(50, 148, 99)...)
	bars := makeBars(closes)
	byTime := closesByTime(bars)

	bt, err := New(cfg, slog.Default())
	require.NoError(t, err)
	r := bt.Run("TEST", testSymbol(), bars)

	require.Equal(t, 2, r.TotalTrades)

	long := r.Trades[0]
	assert.Equal(t, broker.Long, long.Direction)
	assert.Equal(t, broker.ExitSignal, long.ExitReason)
	// each round trip pays the full spread
	rawLong := byTime[long.ExitTime] - byTime[long.EntryTime]
	assert.InDelta(t, rawLong-2, long.PnL, 1e-9)

	short := r.Trades[1]
	assert.Equal(t, broker.Short, short.Direction)
	assert.Equal(t, broker.ExitEndOfData, short.ExitReason)
	// the short opens on the same bar that closed the long
	assert.Equal(t, long.ExitTime, short.EntryTime)
	rawShort := byTime[short.EntryTime] - byTime[short.ExitTime]
	assert.InDelta(t, rawShort-2, short.PnL, 1e-9)

	assert.InDelta(t, 10000+long.PnL+short.PnL, r.FinalBalance, 1e-9)
}

func TestRun_StopLossHit(t *testing.T) {
	cfg := testConfig(5, 20, 0)
	cfg.StopLoss = config.StopLoss{Method: "fixed", FixedDistance: 3}
	// long only without signal exits, so only the stop can close
	cfg.StrategyRef = config.StrategyReference{
		Strategy: config.EMACross{Fast: 5, Slow: 20, Direction: "long"},
	}

	// rise long enough to enter, then collapse through the stop
	closes := append(risingCloses(40, 100, 139), risingCloses(20, 120, 101)...)
	bt, err := New(cfg, slog.Default())
	require.NoError(t, err)
	r := bt.Run("TEST", testSymbol(), makeBars(closes))

	require.NotEmpty(t, r.Trades)
	assert.Equal(t, broker.ExitStopLoss, r.Trades[0].ExitReason)
	// the protective exit fills at the stop price
	assert.InDelta(t, r.Trades[0].StopLoss, r.Trades[0].ExitPrice, 1e-9)
}

func TestRun_EquityDrawdown(t *testing.T) {
	cfg := testConfig(5, 20, 2)
	bt, err := New(cfg, slog.Default())
	require.NoError(t, err)

	r := bt.Run("TEST", testSymbol(), makeBars(walkCloses(300)))
	require.NotEmpty(t, r.Trades)
	require.NotEmpty(t, r.Equity)

	worst := 0.0
	for _, pt := range r.Equity {
		assert.GreaterOrEqual(t, pt.Drawdown, 0.0)
		if pt.Drawdown > worst {
			worst = pt.Drawdown
		}
	}
	assert.InDelta(t, r.MaxDrawdownPct, worst, 1e-9)
}

func TestRun_SnapshotSourceParity(t *testing.T) {
	cfg := testConfig(5, 20, 2)
	bars := makeBars(walkCloses(300))

	pre, err := New(cfg, slog.Default())
	require.NoError(t, err)
	per, err := New(cfg, slog.Default(), WithPerBarSnapshots())
	require.NoError(t, err)

	rPre := pre.Run("TEST", testSymbol(), bars)
	rPer := per.Run("TEST", testSymbol(), bars)

	assert.Equal(t, rPre, rPer)
}

func TestRun_SinglePositionInvariant(t *testing.T) {
	openCount := 0
	sink := func(e Event) {
		switch e.Kind {
		case EventOpened:
			openCount++
			require.LessOrEqual(t, openCount, 1)
		case EventClosed:
			openCount--
			require.GreaterOrEqual(t, openCount, 0)
		}
	}

	cfg := testConfig(5, 20, 0)
	bt, err := New(cfg, slog.Default(), WithEventSink(sink))
	require.NoError(t, err)

	r := bt.Run("TEST", testSymbol(), makeBars(walkCloses(300)))
	assert.Equal(t, 0, openCount)
	assert.Greater(t, r.TotalTrades, 0)
}

func TestRun_EventTotals(t *testing.T) {
	var closedEvents []Event
	sink := func(e Event) {
		if e.Kind == EventClosed {
			closedEvents = append(closedEvents, e)
		}
	}

	cfg := testConfig(5, 20, 0)
	bt, err := New(cfg, slog.Default(), WithEventSink(sink))
	require.NoError(t, err)

	r := bt.Run("TEST", testSymbol(), makeBars(walkCloses(300)))
	require.Len(t, closedEvents, r.TotalTrades)

	sum := 0.0
	wins := 0
	for i, e := range closedEvents {
		sum += e.Trade.PnL
		if e.Trade.PnL > 0 {
			wins++
		}
		assert.InDelta(t, sum, e.CumPnL, 1e-9, "event %d", i)
		assert.InDelta(t, float64(wins)/float64(i+1)*100, e.WinRatePct, 1e-9, "event %d", i)
	}
}

func TestRun_ShortSeries(t *testing.T) {
	cfg := testConfig(5, 20, 0)
	bt, err := New(cfg, slog.Default())
	require.NoError(t, err)

	r := bt.Run("TEST", testSymbol(), makeBars(flatCloses(5, 100)))
	assert.Equal(t, 0, r.TotalTrades)
}

func TestNew_UnsupportedStrategy(t *testing.T) {
	cfg := testConfig(5, 20, 0)
	cfg.StrategyRef = config.StrategyReference{}

	_, err := New(cfg, slog.Default())
	assert.Error(t, err)
}

func TestRun_WeightedStrategy(t *testing.T) {
	cfg := testConfig(5, 20, 0)
	cfg.Indicators = config.Indicators{
		RSI: &config.RSI{Enabled: true, Period: 5, Oversold: 30, Overbought: 70, Weight: 1},
		SMA: &config.SMA{Enabled: true, Periods: []int{5, 20}, Weight: 1},
	}
	cfg.StrategyRef = config.StrategyReference{
		Strategy: config.Weighted{
			Thresholds: config.Thresholds{StrongBuy: 0.9, WeakBuy: 0.5, StrongSell: 0.9, WeakSell: 0.5},
		},
	}

	bt, err := New(cfg, slog.Default())
	require.NoError(t, err)

	r := bt.Run("TEST", testSymbol(), makeBars(walkCloses(300)))
	assert.GreaterOrEqual(t, r.TotalTrades, 0)
	for _, trade := range r.Trades {
		assert.NotEmpty(t, trade.IndicatorsUsed)
	}
}
