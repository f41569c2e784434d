package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/market"
	"github.com/gamma-omg/backtester/internal/stats"
)

// BarLoader resolves a configured symbol to its bar series, from a CSV file
// or a market data platform.
type BarLoader interface {
	Load(ctx context.Context, symbol string, sym config.Symbol) ([]market.Bar, error)
}

// CSVLoader loads bars from the per-symbol csv files named in the config.
type CSVLoader struct {
	Filter market.BarFilter
}

func (l CSVLoader) Load(_ context.Context, symbol string, sym config.Symbol) ([]market.Bar, error) {
	if sym.Data == "" {
		return nil, fmt.Errorf("symbol %s has no data file configured", symbol)
	}
	return market.ReadBars(sym.Data, l.Filter)
}

// FallbackLoader routes symbols without a configured data file to a remote
// loader, typically a market data platform.
type FallbackLoader struct {
	Local  BarLoader
	Remote BarLoader
}

func (l FallbackLoader) Load(ctx context.Context, symbol string, sym config.Symbol) ([]market.Bar, error) {
	if sym.Data == "" && l.Remote != nil {
		return l.Remote.Load(ctx, symbol, sym)
	}
	return l.Local.Load(ctx, symbol, sym)
}

// DataError marks one symbol whose data could not be loaded. It never
// aborts the rest of a batch.
type DataError struct {
	Symbol string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("symbol %s: %v", e.Symbol, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// RunAll backtests every configured symbol concurrently, each against its
// own book and balance. A symbol that fails to load is reported in the
// joined error and skipped; the others still produce results.
func (b *Backtester) RunAll(ctx context.Context, loader BarLoader) (map[string]stats.Results, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]stats.Results, len(b.cfg.Symbols))
		errs    []error
	)

	var g errgroup.Group
	for symbol, sym := range b.cfg.Symbols {
		symbol, sym := symbol, sym
		g.Go(func() error {
			bars, err := loader.Load(ctx, symbol, sym)
			if err != nil {
				b.log.Error("skipping symbol", "symbol", symbol, "error", err)
				mu.Lock()
				errs = append(errs, &DataError{Symbol: symbol, Err: err})
				mu.Unlock()
				return nil
			}

			res := b.Run(symbol, sym, bars)
			mu.Lock()
			results[symbol] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, errors.Join(errs...)
}
