package strategy

import (
	"math"
	"time"

	"github.com/gamma-omg/backtester/internal/config"
	"github.com/gamma-omg/backtester/internal/indicator"
	"github.com/gamma-omg/backtester/internal/market"
)

var barTime = time.Unix(1700000000, 0).UTC()

// snapAt builds a two bar snapshot where each named line holds its previous
// and current value. NaN marks a value still warming up.
func snapAt(price, high, low float64, lines map[string][2]float64) indicator.Snapshot {
	s := market.Series{
		Time:  []time.Time{barTime, barTime.Add(time.Hour)},
		Open:  []float64{price, price},
		High:  []float64{high, high},
		Low:   []float64{low, low},
		Close: []float64{price, price},
	}

	outputs := make(map[string]indicator.Output, len(lines))
	for name, v := range lines {
		outputs[name] = indicator.Scalar([]float64{v[0], v[1]})
	}

	eng := indicator.NewEngine(config.Indicators{})
	return eng.SnapshotAt(outputs, s, 1)
}

func emaSnap(prevFast, fast, prevSlow, slow float64) indicator.Snapshot {
	return snapAt(100, 101, 99, map[string][2]float64{
		"ema_5":  {prevFast, fast},
		"ema_20": {prevSlow, slow},
	})
}

var nan = math.NaN()
