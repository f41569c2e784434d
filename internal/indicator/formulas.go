package indicator

import "math"

func rsi(close []float64, period int) []float64 {
	out := nans(len(close))
	if len(close) < 2 {
		return out
	}

	gains := nans(len(close))
	losses := nans(len(close))
	for i := 1; i < len(close); i++ {
		d := close[i] - close[i-1]
		if d > 0 {
			gains[i], losses[i] = d, 0
		} else {
			gains[i], losses[i] = 0, -d
		}
	}

	avgGain := sma(gains, period)
	avgLoss := sma(losses, period)

	for i := range close {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		if l == 0 {
			if g > 0 {
				out[i] = 100
			}
			// flat window stays NaN: no gains, no losses, no reading
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}

	return out
}

func macd(close []float64, fast, slow, signalPeriod int) map[string][]float64 {
	emaFast := ema(close, fast)
	emaSlow := ema(close, slow)

	line := nans(len(close))
	for i := range close {
		line[i] = emaFast[i] - emaSlow[i]
	}

	signal := ema(line, signalPeriod)
	hist := nans(len(close))
	for i := range close {
		hist[i] = line[i] - signal[i]
	}

	return map[string][]float64{
		"macd":      line,
		"signal":    signal,
		"histogram": hist,
	}
}

func bollinger(close []float64, period int, stdDev float64) map[string][]float64 {
	middle := sma(close, period)
	std := rollingStd(close, period)

	upper := nans(len(close))
	lower := nans(len(close))
	for i := range close {
		upper[i] = middle[i] + std[i]*stdDev
		lower[i] = middle[i] - std[i]*stdDev
	}

	return map[string][]float64{
		"upper":  upper,
		"middle": middle,
		"lower":  lower,
	}
}

func stochastic(high, low, close []float64, kPeriod, dPeriod int) map[string][]float64 {
	ll := rollingMin(low, kPeriod)
	hh := rollingMax(high, kPeriod)

	k := nans(len(close))
	for i := range close {
		if math.IsNaN(ll[i]) || math.IsNaN(hh[i]) {
			continue
		}
		span := hh[i] - ll[i]
		if span == 0 {
			k[i] = 50 // flat window, neutral reading
			continue
		}
		k[i] = 100 * (close[i] - ll[i]) / span
	}

	return map[string][]float64{
		"k": k,
		"d": sma(k, dPeriod),
	}
}

func williamsR(high, low, close []float64, period int) []float64 {
	hh := rollingMax(high, period)
	ll := rollingMin(low, period)

	out := nans(len(close))
	for i := range close {
		if math.IsNaN(hh[i]) || math.IsNaN(ll[i]) {
			continue
		}
		span := hh[i] - ll[i]
		if span == 0 {
			out[i] = -50
			continue
		}
		out[i] = -100 * (hh[i] - close[i]) / span
	}

	return out
}

func adx(high, low, close []float64, period int) map[string][]float64 {
	n := len(close)
	tr := trueRange(high, low, close)

	dmPlus := make([]float64, n)
	dmMinus := make([]float64, n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			dmPlus[i] = up
		}
		if down > up && down > 0 {
			dmMinus[i] = down
		}
	}

	atr := sma(tr, period)
	avgPlus := sma(dmPlus, period)
	avgMinus := sma(dmMinus, period)

	diPlus := nans(n)
	diMinus := nans(n)
	dx := nans(n)
	for i := range close {
		if math.IsNaN(atr[i]) || atr[i] == 0 {
			continue
		}
		diPlus[i] = 100 * avgPlus[i] / atr[i]
		diMinus[i] = 100 * avgMinus[i] / atr[i]

		sum := diPlus[i] + diMinus[i]
		if sum == 0 {
			dx[i] = 0
			continue
		}
		dx[i] = 100 * math.Abs(diPlus[i]-diMinus[i]) / sum
	}

	return map[string][]float64{
		"adx":      sma(dx, period),
		"di_plus":  diPlus,
		"di_minus": diMinus,
	}
}

func cci(high, low, close []float64, period int) []float64 {
	n := len(close)
	tp := make([]float64, n)
	for i := range close {
		tp[i] = (high[i] + low[i] + close[i]) / 3
	}

	smaTp := sma(tp, period)

	out := nans(n)
	for i := period - 1; i < n; i++ {
		window := tp[i-period+1 : i+1]
		mean := smaTp[i]
		mad := 0.0
		for _, v := range window {
			mad += math.Abs(v - mean)
		}
		mad /= float64(period)

		if mad == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - smaTp[i]) / (0.015 * mad)
	}

	return out
}

func atr(high, low, close []float64, period int) []float64 {
	return sma(trueRange(high, low, close), period)
}
