package broker

import (
	"log/slog"
	"math"
	"time"

	"github.com/gamma-omg/backtester/internal/market"
)

// EntryOrder carries everything the book needs to open a trade at the
// current bar.
type EntryOrder struct {
	Direction  Direction
	Time       time.Time
	Price      float64
	ATR        float64
	Strength   float64
	Indicators []string
}

// Book owns the account balance and the single open position of one symbol.
// It never holds more than one trade at a time; an entry while positioned
// is a programming error on the caller's side and is rejected.
type Book struct {
	log          *slog.Logger
	meta         market.SymbolMeta
	costs        CostModel
	stops        StopRule
	targets      TargetRule
	riskPerTrade float64

	balance float64
	open    *Trade
	closed  []Trade
}

func NewBook(log *slog.Logger, meta market.SymbolMeta, costs CostModel, stops StopRule, targets TargetRule, riskPerTrade, initialBalance float64) *Book {
	return &Book{
		log:          log,
		meta:         meta,
		costs:        costs,
		stops:        stops,
		targets:      targets,
		riskPerTrade: riskPerTrade,
		balance:      initialBalance,
	}
}

func (b *Book) Balance() float64 {
	return b.balance
}

func (b *Book) Open() *Trade {
	return b.open
}

func (b *Book) Closed() []Trade {
	return b.closed
}

// Equity marks the open position to the given price without exit costs.
func (b *Book) Equity(price float64) float64 {
	if b.open == nil {
		return b.balance
	}

	unrealized := b.open.Direction.Sign() * (price - b.open.EntryPrice) * b.open.Volume * b.meta.ContractSize
	return b.balance + unrealized
}

// OpenTrade sizes and opens a position. It returns false without touching
// the account when the order cannot be sized, which happens when the stop
// sits exactly on the entry price or the sized volume falls below the
// symbol minimum.
func (b *Book) OpenTrade(o EntryOrder) (*Trade, bool) {
	if b.open != nil {
		return nil, false
	}

	stopDist := b.stops.Distance(o.Price, o.ATR)
	stopPrice := o.Price - o.Direction.Sign()*stopDist
	targetPrice := o.Price + o.Direction.Sign()*b.targets.Distance(stopDist)

	volume := b.positionSize(o.Price, stopPrice)
	if volume <= 0 {
		b.log.Debug("entry rejected", "symbol", b.meta.Symbol, "price", o.Price, "stop", stopPrice)
		return nil, false
	}

	fill := b.costs.Fill(o.Price, o.Direction == Long)
	commission := b.costs.Commission(volume)
	b.balance -= commission

	b.open = &Trade{
		Symbol:         b.meta.Symbol,
		Direction:      o.Direction,
		EntryTime:      o.Time,
		EntryPrice:     fill,
		Volume:         volume,
		StopLoss:       stopPrice,
		TakeProfit:     targetPrice,
		Commission:     commission,
		IndicatorsUsed: o.Indicators,
		SignalStrength: o.Strength,
	}

	b.log.Debug("position opened",
		"symbol", b.meta.Symbol,
		"direction", o.Direction,
		"price", fill,
		"volume", volume,
		"stop", stopPrice,
		"target", targetPrice)

	return b.open, true
}

// CheckExit tests the bar's range against the open stop and target. The
// stop wins when both lie inside the same bar.
func (b *Book) CheckExit(t time.Time, high, low float64) (*Trade, bool) {
	if b.open == nil {
		return nil, false
	}

	if b.open.Direction == Long {
		if low <= b.open.StopLoss {
			return b.CloseTrade(t, b.open.StopLoss, ExitStopLoss), true
		}
		if b.open.TakeProfit > b.open.EntryPrice && high >= b.open.TakeProfit {
			return b.CloseTrade(t, b.open.TakeProfit, ExitTakeProfit), true
		}
		return nil, false
	}

	if high >= b.open.StopLoss {
		return b.CloseTrade(t, b.open.StopLoss, ExitStopLoss), true
	}
	if b.open.TakeProfit < b.open.EntryPrice && low <= b.open.TakeProfit {
		return b.CloseTrade(t, b.open.TakeProfit, ExitTakeProfit), true
	}
	return nil, false
}

// CloseTrade settles the open position at the given price and realizes its
// result into the balance.
func (b *Book) CloseTrade(t time.Time, price float64, reason ExitReason) *Trade {
	trade := b.open
	if trade == nil {
		return nil
	}

	fill := b.costs.Fill(price, trade.Direction == Short)
	commission := b.costs.Commission(trade.Volume)
	gross := trade.Direction.Sign() * (fill - trade.EntryPrice) * trade.Volume * b.meta.ContractSize

	trade.ExitTime = t
	trade.ExitPrice = fill
	trade.ExitReason = reason
	trade.PnL = gross - trade.Commission - commission
	trade.Commission += commission
	trade.DurationMinutes = int(t.Sub(trade.EntryTime).Minutes())
	if notional := trade.EntryPrice * trade.Volume * b.meta.ContractSize; notional > 0 {
		trade.PnLPct = trade.PnL / notional * 100
	}

	b.balance += gross - commission
	b.closed = append(b.closed, *trade)
	b.open = nil

	b.log.Debug("position closed",
		"symbol", b.meta.Symbol,
		"direction", trade.Direction,
		"price", fill,
		"reason", reason,
		"pnl", trade.PnL)

	return trade
}

// positionSize risks a fixed fraction of the balance on the distance to the
// stop, snapped down to the symbol's volume step.
func (b *Book) positionSize(price, stop float64) float64 {
	priceRisk := math.Abs(price - stop)
	if priceRisk == 0 {
		return 0
	}

	size := b.balance * b.riskPerTrade / (priceRisk * b.meta.ContractSize)
	if size > b.meta.MaxVolume {
		size = b.meta.MaxVolume
	}

	size = math.Floor(size/b.meta.VolumeStep) * b.meta.VolumeStep
	if size < b.meta.MinVolume {
		return 0
	}

	return size
}
