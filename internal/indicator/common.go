package indicator

import "math"

// Series math helpers. Every function returns a slice index-aligned with its
// input, with NaN marking the warm-up region. Inputs may themselves carry a
// NaN head (e.g. the macd line fed into its signal ema); the rolling helpers
// start at the first valid sample.

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstValid(vals []float64) int {
	for i, v := range vals {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(vals)
}

func sma(vals []float64, period int) []float64 {
	out := nans(len(vals))
	start := firstValid(vals)
	if period <= 0 || len(vals)-start < period {
		return out
	}

	sum := 0.0
	for i := start; i < len(vals); i++ {
		sum += vals[i]
		if i-start >= period {
			sum -= vals[i-period]
		}
		if i-start >= period-1 {
			out[i] = sum / float64(period)
		}
	}

	return out
}

// ema is seeded with the sma of the first period samples, then weighted with
// the 2/(period+1) multiplier.
func ema(vals []float64, period int) []float64 {
	out := nans(len(vals))
	start := firstValid(vals)
	if period <= 0 || len(vals)-start < period {
		return out
	}

	seed := 0.0
	for _, v := range vals[start : start+period] {
		seed += v
	}
	out[start+period-1] = seed / float64(period)

	a := 2.0 / (float64(period) + 1)
	for i := start + period; i < len(vals); i++ {
		out[i] = vals[i]*a + out[i-1]*(1-a)
	}

	return out
}

// rollingStd is the sample standard deviation over a sliding window.
func rollingStd(vals []float64, period int) []float64 {
	out := nans(len(vals))
	start := firstValid(vals)
	if period < 2 || len(vals)-start < period {
		return out
	}

	for i := start + period - 1; i < len(vals); i++ {
		window := vals[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		ss := 0.0
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}

	return out
}

func rollingMax(vals []float64, period int) []float64 {
	return rollingExtreme(vals, period, func(a, b float64) bool { return a > b })
}

func rollingMin(vals []float64, period int) []float64 {
	return rollingExtreme(vals, period, func(a, b float64) bool { return a < b })
}

func rollingExtreme(vals []float64, period int, better func(a, b float64) bool) []float64 {
	out := nans(len(vals))
	start := firstValid(vals)
	if period <= 0 || len(vals)-start < period {
		return out
	}

	for i := start + period - 1; i < len(vals); i++ {
		best := vals[i-period+1]
		for _, v := range vals[i-period+2 : i+1] {
			if better(v, best) {
				best = v
			}
		}
		out[i] = best
	}

	return out
}

// trueRange uses high-low for the first bar, where no previous close exists.
func trueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	if len(close) == 0 {
		return out
	}

	out[0] = high[0] - low[0]
	for i := 1; i < len(close); i++ {
		tr := high[i] - low[i]
		tr = math.Max(tr, math.Abs(high[i]-close[i-1]))
		tr = math.Max(tr, math.Abs(low[i]-close[i-1]))
		out[i] = tr
	}

	return out
}
