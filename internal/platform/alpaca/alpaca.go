package alpaca

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/market"
)

type barsApi interface {
	GetCryptoBars(symbol string, req marketdata.GetCryptoBarsRequest) ([]marketdata.CryptoBar, error)
}

// History loads historical crypto bars for symbols that have no local data
// file configured.
type History struct {
	api       barsApi
	timeframe marketdata.TimeFrame
	start     time.Time
	end       time.Time
}

func NewHistory(cfg config.Alpaca) *History {
	end := time.Now().UTC()
	return &History{
		api: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.ApiKey,
			APISecret: cfg.Secret,
		}),
		timeframe: timeframeFor(cfg.Timeframe),
		start:     end.AddDate(0, 0, -cfg.Days),
		end:       end,
	}
}

func timeframeFor(name string) marketdata.TimeFrame {
	switch name {
	case "1m":
		return marketdata.OneMin
	case "1d":
		return marketdata.OneDay
	default:
		return marketdata.OneHour
	}
}

func (h *History) Load(_ context.Context, symbol string, _ config.Symbol) ([]market.Bar, error) {
	raw, err := h.api.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
		TimeFrame: h.timeframe,
		Start:     h.start,
		End:       h.end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
	}

	bars := make([]market.Bar, 0, len(raw))
	var prev time.Time
	for _, cb := range raw {
		if cb.Timestamp.Before(prev) {
			return nil, fmt.Errorf("bars out of order: %s after %s", cb.Timestamp, prev)
		}
		prev = cb.Timestamp

		bars = append(bars, market.Bar{
			Time:   cb.Timestamp,
			Open:   decimal.NewFromFloat(cb.Open),
			High:   decimal.NewFromFloat(cb.High),
			Low:    decimal.NewFromFloat(cb.Low),
			Close:  decimal.NewFromFloat(cb.Close),
			Volume: decimal.NewFromFloat(cb.Volume),
		})
	}

	return bars, nil
}
