package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries(t *testing.T) {
	start := time.Unix(1700000000, 0).UTC()
	bars := []Bar{
		{
			Time:  start,
			Open:  decimal.NewFromFloat(1.5),
			High:  decimal.NewFromFloat(2.0),
			Low:   decimal.NewFromFloat(1.0),
			Close: decimal.NewFromFloat(1.8),
		},
		{
			Time:  start.Add(time.Hour),
			Open:  decimal.NewFromFloat(1.8),
			High:  decimal.NewFromFloat(2.5),
			Low:   decimal.NewFromFloat(1.7),
			Close: decimal.NewFromFloat(2.4),
		},
	}

	s := NewSeries(bars)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, start, s.Time[0])
	assert.Equal(t, 1.5, s.Open[0])
	assert.Equal(t, 2.0, s.High[0])
	assert.Equal(t, 1.0, s.Low[0])
	assert.Equal(t, 1.8, s.Close[0])
	assert.Equal(t, 2.4, s.Close[1])
}

func TestSeries_Prefix(t *testing.T) {
	s := NewSeries([]Bar{
		{Time: time.Unix(0, 0), Close: decimal.NewFromInt(1)},
		{Time: time.Unix(60, 0), Close: decimal.NewFromInt(2)},
		{Time: time.Unix(120, 0), Close: decimal.NewFromInt(3)},
	})

	p := s.Prefix(2)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []float64{1, 2}, p.Close)
	assert.Equal(t, 3, s.Len())
}
