package market

import (
	"time"

	"github.com/shopspring/decimal"
)

type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// SymbolMeta describes the traded contract: how much one lot moves per price
// unit, the size of one point and the volume constraints a fill must respect.
type SymbolMeta struct {
	Symbol       string
	ContractSize float64
	Point        float64
	MinVolume    float64
	MaxVolume    float64
	VolumeStep   float64
}

// Series holds the bar data unpacked into float slices for indicator math.
// Bars stay decimal at the edges; everything numeric downstream works on
// these slices.
type Series struct {
	Time  []time.Time
	Open  []float64
	High  []float64
	Low   []float64
	Close []float64
}

func NewSeries(bars []Bar) Series {
	s := Series{
		Time:  make([]time.Time, len(bars)),
		Open:  make([]float64, len(bars)),
		High:  make([]float64, len(bars)),
		Low:   make([]float64, len(bars)),
		Close: make([]float64, len(bars)),
	}

	for i, b := range bars {
		s.Time[i] = b.Time
		s.Open[i], _ = b.Open.Float64()
		s.High[i], _ = b.High.Float64()
		s.Low[i], _ = b.Low.Float64()
		s.Close[i], _ = b.Close.Float64()
	}

	return s
}

func (s Series) Len() int {
	return len(s.Close)
}

// Prefix returns a view over the first n bars. The slices are shared with
// the parent series, not copied.
func (s Series) Prefix(n int) Series {
	return Series{
		Time:  s.Time[:n],
		Open:  s.Open[:n],
		High:  s.High[:n],
		Low:   s.Low[:n],
		Close: s.Close[:n],
	}
}
