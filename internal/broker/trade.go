package broker

import "time"

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

type ExitReason string

const (
	ExitStopLoss   ExitReason = "SL"
	ExitTakeProfit ExitReason = "TP"
	ExitSignal     ExitReason = "SIGNAL"
	ExitEndOfData  ExitReason = "END_OF_DATA"
)

// Trade is created on entry with its exit fields zero, mutated exactly once
// when it closes and immutable afterwards.
type Trade struct {
	Symbol          string     `json:"symbol"`
	Direction       Direction  `json:"direction"`
	EntryTime       time.Time  `json:"entry_time"`
	ExitTime        time.Time  `json:"exit_time,omitzero"`
	EntryPrice      float64    `json:"entry_price"`
	ExitPrice       float64    `json:"exit_price"`
	Volume          float64    `json:"volume"`
	StopLoss        float64    `json:"stop_loss"`
	TakeProfit      float64    `json:"take_profit"`
	Commission      float64    `json:"commission"`
	PnL             float64    `json:"pnl"`
	PnLPct          float64    `json:"pnl_pct"`
	DurationMinutes int        `json:"duration_minutes"`
	ExitReason      ExitReason `json:"exit_reason,omitempty"`
	IndicatorsUsed  []string   `json:"indicators_used,omitempty"`
	SignalStrength  float64    `json:"signal_strength"`
}
