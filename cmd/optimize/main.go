package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/market"
	"github.com/gamma-omg/backtester/internal/optimizer"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.ReadFromFile(os.Getenv("CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.Default()

	sweep := optimizer.NewSweep(cfg, logger)
	for symbol, sym := range cfg.Symbols {
		bars, err := market.ReadBars(sym.Data, nil)
		if err != nil {
			logger.Error("skipping symbol", "symbol", symbol, "error", err)
			continue
		}

		results, err := sweep.Run(ctx, symbol, sym, bars)
		if err != nil {
			log.Fatal(err)
		}
		if len(results) == 0 {
			logger.Warn("no combinations evaluated", "symbol", symbol)
			continue
		}

		best := results[0]
		logger.Info("sweep finished",
			"symbol", symbol,
			"combinations", len(results),
			"best_fast", best.Fast,
			"best_slow", best.Slow,
			"best_return_pct", best.TotalReturnPct)

		if cfg.Optimizer.Output != "" {
			f, err := os.Create(cfg.Optimizer.Output + "." + symbol + ".csv")
			if err != nil {
				log.Fatal(err)
			}
			if err := optimizer.WriteCSV(f, results); err != nil {
				f.Close()
				log.Fatal(err)
			}
			if err := f.Close(); err != nil {
				log.Fatal(err)
			}
		}
	}
}
