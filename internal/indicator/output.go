package indicator

import (
	"math"
	"time"
)

// Output is a tagged variant: either a single Series or a named group of
// Lines (a multi-line indicator such as macd), never both.
type Output struct {
	Series []float64
	Lines  map[string][]float64
}

func Scalar(series []float64) Output {
	return Output{Series: series}
}

func Composite(lines map[string][]float64) Output {
	return Output{Lines: lines}
}

func (o Output) IsComposite() bool {
	return o.Lines != nil
}

// Snapshot is the flattened indicator state at one bar. Composite lines are
// keyed as "<name>_<line>", except the line sharing the indicator's own name
// which keeps the plain key (so "macd", "macd_signal", "macd_histogram").
type Snapshot struct {
	Index  int
	Time   time.Time
	Price  float64
	High   float64
	Low    float64
	values map[string]float64
	prev   map[string]float64
}

// Value reports the indicator value at this bar. ok is false during the
// indicator's warm-up or when it is not enabled; callers must check it
// before consuming the value.
func (s Snapshot) Value(name string) (float64, bool) {
	v, ok := s.values[name]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Prev reports the indicator value at the preceding bar.
func (s Snapshot) Prev(name string) (float64, bool) {
	v, ok := s.prev[name]
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func flatten(outputs map[string]Output, i int) map[string]float64 {
	flat := make(map[string]float64)
	for name, out := range outputs {
		if !out.IsComposite() {
			flat[name] = out.Series[i]
			continue
		}

		for line, series := range out.Lines {
			key := name + "_" + line
			if line == name {
				key = name
			}
			flat[key] = series[i]
		}
	}

	return flat
}
