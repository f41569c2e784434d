package strategy

import (
	"fmt"
	"time"

	"github.com/gamma-omg/backtester/internal/indicator"
)

type SignalType int

const (
	Hold SignalType = iota
	Buy
	Sell
	ExitLong
	ExitShort
)

func (t SignalType) String() string {
	switch t {
	case Hold:
		return "HOLD"
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case ExitLong:
		return "EXIT_LONG"
	case ExitShort:
		return "EXIT_SHORT"
	default:
		return fmt.Sprintf("SIGNAL_%d", t)
	}
}

// Signal is one discrete trading decision, produced fresh per bar.
type Signal struct {
	Type       SignalType
	Strength   float64
	Indicators []string
	Reason     string
	BarTime    time.Time
}

type Position int

const (
	Flat Position = iota
	Long
	Short
)

// State is the per-symbol suppression bookkeeping a generator needs across
// bars. The caller owns it and threads it through every Generate call.
type State struct {
	LastSignalBar time.Time
}

// Generator maps one bar's indicator snapshot and the current position to a
// signal. Implementations are pure apart from the explicit State.
type Generator interface {
	Generate(snap indicator.Snapshot, pos Position, st *State) Signal
}
