package broker

import "github.com/gamma-omg/backtester/internal/config"

// StopRule turns the configured stop loss method into a price distance.
// For the atr method the caller supplies the current ATR reading; when it
// is not yet available the distance is zero and the entry gets rejected
// by position sizing.
type StopRule struct {
	cfg config.StopLoss
}

func NewStopRule(cfg config.StopLoss) StopRule {
	return StopRule{cfg: cfg}
}

func (r StopRule) Distance(price, atr float64) float64 {
	switch r.cfg.Method {
	case "percentage":
		return price * r.cfg.Percentage
	case "atr":
		return atr * r.cfg.ATRMultiplier
	default:
		return r.cfg.FixedDistance
	}
}

type TargetRule struct {
	cfg config.TakeProfit
}

func NewTargetRule(cfg config.TakeProfit) TargetRule {
	return TargetRule{cfg: cfg}
}

func (r TargetRule) Distance(stopDistance float64) float64 {
	if r.cfg.Method == "fixed" {
		return r.cfg.FixedDistance
	}
	return stopDistance * r.cfg.RiskRewardRatio
}
