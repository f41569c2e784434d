package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/engine"
	"github.com/gamma-omg/backtester/internal/platform/alpaca"
	"github.com/gamma-omg/backtester/internal/report"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.ReadFromFile(os.Getenv("CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.Default()

	bt, err := engine.New(cfg, logger, engine.WithEventSink(func(e engine.Event) {
		logger.Info(string(e.Kind),
			"symbol", e.Trade.Symbol,
			"direction", e.Trade.Direction,
			"pnl", e.Trade.PnL,
			"cum_pnl", e.CumPnL,
			"win_rate_pct", e.WinRatePct)
	}))
	if err != nil {
		log.Fatal(err)
	}

	var loader engine.BarLoader = engine.CSVLoader{}
	if cfg.AlpacaRef != nil {
		loader = engine.FallbackLoader{
			Local:  loader,
			Remote: alpaca.NewHistory(*cfg.AlpacaRef),
		}
	}

	results, err := bt.RunAll(ctx, loader)
	if err != nil {
		logger.Error("some symbols failed", "error", err)
	}
	if len(results) == 0 {
		log.Fatal("no symbol produced results")
	}

	for symbol, r := range results {
		logger.Info("backtest finished",
			"symbol", symbol,
			"trades", r.TotalTrades,
			"win_rate_pct", r.WinRatePct,
			"return_pct", r.TotalReturnPct,
			"max_drawdown_pct", r.MaxDrawdownPct)

		if cfg.Chart != "" {
			if err := report.SaveChart(cfg.Chart+"."+symbol+".png", symbol, r); err != nil {
				logger.Error("failed to save chart", "symbol", symbol, "error", err)
			}
		}
	}

	if cfg.Report != "" {
		if err := report.Save(cfg.Report, results); err != nil {
			log.Fatal(err)
		}
	}
}
