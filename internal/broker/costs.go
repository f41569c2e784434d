package broker

// CostModel converts quoted prices into fill prices and charges commission.
// Spread and slippage are expressed in points and always move the fill
// against the trader, half the spread on each side of a round trip.
type CostModel struct {
	CommissionPerLot float64
	SlippagePoints   float64
	SpreadPoints     float64
	Point            float64
}

func (c CostModel) Fill(price float64, buy bool) float64 {
	adj := (c.SpreadPoints/2 + c.SlippagePoints) * c.Point
	if buy {
		return price + adj
	}
	return price - adj
}

func (c CostModel) Commission(volume float64) float64 {
	return volume * c.CommissionPerLot
}
