package engine

import (
	"fmt"
	"log/slog"

	"github.com/gamma-omg/backtester/internal/broker"
	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/indicator"
	"github.com/gamma-omg/backtester/internal/market"
	"github.com/gamma-omg/backtester/internal/stats"
	"github.com/gamma-omg/backtester/internal/strategy"
)

// EventKind labels a progress event emitted while a run is in flight.
type EventKind string

const (
	EventOpened EventKind = "OPENED"
	EventClosed EventKind = "CLOSED"
)

// Event reports one position change together with the running totals of the
// run that produced it.
type Event struct {
	Kind       EventKind
	Trade      broker.Trade
	CumPnL     float64
	WinRatePct float64
}

// EventSink receives progress events. Each run calls its sink from a single
// goroutine, in bar order.
type EventSink func(Event)

// snapshotSource yields the indicator snapshot for a bar index. The two
// implementations must agree on every index because all indicators are
// causal; the per-bar one exists to prove exactly that in tests and to
// bound memory on very long series.
type snapshotSource interface {
	At(i int) indicator.Snapshot
}

type precomputedSource struct {
	eng     *indicator.Engine
	outputs map[string]indicator.Output
	series  market.Series
}

func (p precomputedSource) At(i int) indicator.Snapshot {
	return p.eng.SnapshotAt(p.outputs, p.series, i)
}

type perBarSource struct {
	eng    *indicator.Engine
	series market.Series
}

func (p perBarSource) At(i int) indicator.Snapshot {
	prefix := p.series.Prefix(i + 1)
	return p.eng.SnapshotAt(p.eng.Compute(prefix), prefix, i)
}

// Backtester replays one bar series through the configured strategy and
// settles every resulting trade against a per-symbol book.
type Backtester struct {
	cfg    *config.Config
	log    *slog.Logger
	gen    strategy.Generator
	ind    *indicator.Engine
	sink   EventSink
	perBar bool
}

type Option func(*Backtester)

// WithEventSink streams open and close events to the given sink.
func WithEventSink(sink EventSink) Option {
	return func(b *Backtester) { b.sink = sink }
}

// WithPerBarSnapshots recomputes indicators over the bar prefix instead of
// reading a precomputed pass.
func WithPerBarSnapshots() Option {
	return func(b *Backtester) { b.perBar = true }
}

func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*Backtester, error) {
	b := &Backtester{
		cfg: cfg,
		log: log,
		ind: indicator.NewEngine(cfg.Indicators),
	}

	switch s := cfg.StrategyRef.Strategy.(type) {
	case config.EMACross:
		gen := strategy.NewEMACross(s, log)
		fast, slow := gen.Periods()
		b.ind.EnsureEMA(fast, slow)
		b.gen = gen
	case config.Weighted:
		b.gen = strategy.NewWeightedVoting(cfg.Indicators, s.Thresholds, log)
	default:
		return nil, fmt.Errorf("unsupported strategy %T", s)
	}

	for _, o := range opts {
		o(b)
	}

	return b, nil
}

// Run replays the bars for one symbol. A series shorter than the indicator
// warmup produces a valid result with zero trades.
func (b *Backtester) Run(symbol string, sym config.Symbol, bars []market.Bar) stats.Results {
	series := market.NewSeries(bars)
	meta := market.SymbolMeta{
		Symbol:       symbol,
		ContractSize: sym.ContractSize,
		Point:        sym.Point,
		MinVolume:    sym.MinVolume,
		MaxVolume:    sym.MaxVolume,
		VolumeStep:   sym.VolumeStep,
	}
	costs := broker.CostModel{
		CommissionPerLot: b.cfg.Costs.CommissionPerLot,
		SlippagePoints:   b.cfg.Costs.Slippage,
		SpreadPoints:     b.cfg.Costs.Spread,
		Point:            sym.Point,
	}
	book := broker.NewBook(b.log, meta, costs,
		broker.NewStopRule(b.cfg.StopLoss),
		broker.NewTargetRule(b.cfg.TakeProfit),
		b.cfg.Risk.RiskPerTrade, b.cfg.InitialBalance)

	var src snapshotSource
	if b.perBar {
		src = perBarSource{eng: b.ind, series: series}
	} else {
		src = precomputedSource{eng: b.ind, outputs: b.ind.Compute(series), series: series}
	}

	var equity []stats.EquityPoint
	st := &strategy.State{}
	start := b.ind.Warmup() - 1
	if start < 0 {
		start = 0
	}

	for i := start; i < series.Len(); i++ {
		t := series.Time[i]
		price := series.Close[i]

		// Protective exits first: the stop or target inside the bar's
		// range settles before the bar's signal is even looked at.
		if trade, ok := book.CheckExit(t, series.High[i], series.Low[i]); ok {
			b.emit(EventClosed, book, trade)
		}

		snap := src.At(i)
		sig := b.gen.Generate(snap, positionOf(book), st)
		b.apply(book, sig, snap)

		equity = append(equity, stats.EquityPoint{
			Time:    t,
			Balance: book.Balance(),
			Equity:  book.Equity(price),
		})
	}

	if book.Open() != nil {
		last := series.Len() - 1
		trade := book.CloseTrade(series.Time[last], series.Close[last], broker.ExitEndOfData)
		b.emit(EventClosed, book, trade)
		equity[len(equity)-1] = stats.EquityPoint{
			Time:    series.Time[last],
			Balance: book.Balance(),
			Equity:  book.Balance(),
		}
	}

	return stats.Compute(b.cfg.InitialBalance, book.Closed(), equity)
}

// apply settles a bar's signal against the book. A reversal closes the open
// position and re-enters on the same bar.
func (b *Backtester) apply(book *broker.Book, sig strategy.Signal, snap indicator.Snapshot) {
	switch sig.Type {
	case strategy.Buy:
		if open := book.Open(); open != nil {
			if open.Direction == broker.Long {
				return
			}
			b.emit(EventClosed, book, book.CloseTrade(snap.Time, snap.Price, broker.ExitSignal))
		}
		b.open(book, sig, snap, broker.Long)
	case strategy.Sell:
		if open := book.Open(); open != nil {
			if open.Direction == broker.Short {
				return
			}
			b.emit(EventClosed, book, book.CloseTrade(snap.Time, snap.Price, broker.ExitSignal))
		}
		b.open(book, sig, snap, broker.Short)
	case strategy.ExitLong:
		if open := book.Open(); open != nil && open.Direction == broker.Long {
			b.emit(EventClosed, book, book.CloseTrade(snap.Time, snap.Price, broker.ExitSignal))
		}
	case strategy.ExitShort:
		if open := book.Open(); open != nil && open.Direction == broker.Short {
			b.emit(EventClosed, book, book.CloseTrade(snap.Time, snap.Price, broker.ExitSignal))
		}
	}
}

func (b *Backtester) open(book *broker.Book, sig strategy.Signal, snap indicator.Snapshot, dir broker.Direction) {
	atr, _ := snap.Value("atr")
	trade, ok := book.OpenTrade(broker.EntryOrder{
		Direction:  dir,
		Time:       snap.Time,
		Price:      snap.Price,
		ATR:        atr,
		Strength:   sig.Strength,
		Indicators: sig.Indicators,
	})
	if ok {
		b.emit(EventOpened, book, trade)
	}
}

func (b *Backtester) emit(kind EventKind, book *broker.Book, trade *broker.Trade) {
	if b.sink == nil || trade == nil {
		return
	}

	var pnl float64
	wins := 0
	closed := book.Closed()
	for _, t := range closed {
		pnl += t.PnL
		if t.PnL > 0 {
			wins++
		}
	}

	e := Event{Kind: kind, Trade: *trade, CumPnL: pnl}
	if len(closed) > 0 {
		e.WinRatePct = float64(wins) / float64(len(closed)) * 100
	}
	b.sink(e)
}

func positionOf(book *broker.Book) strategy.Position {
	open := book.Open()
	if open == nil {
		return strategy.Flat
	}
	if open.Direction == broker.Short {
		return strategy.Short
	}
	return strategy.Long
}
