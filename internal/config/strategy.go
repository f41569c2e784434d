package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// EMACross configures the pure EMA crossover strategy.
type EMACross struct {
	Fast              int     `yaml:"fast" default:"9" validate:"gt=0"`
	Slow              int     `yaml:"slow" default:"41" validate:"gt=0,gtfield=Fast"`
	Direction         string  `yaml:"direction" default:"both" validate:"oneof=both long short"`
	ExitOnCross       bool    `yaml:"exit_on_cross"`
	ExitDeviationPct  float64 `yaml:"exit_deviation_pct" validate:"gte=0"`
	PreventDuplicates bool    `yaml:"prevent_duplicates"`
}

// Weighted configures the multi-indicator voting strategy. The thresholds
// are compared against the normalized buy/sell vote strengths.
type Weighted struct {
	Thresholds Thresholds `yaml:"thresholds"`
}

type Thresholds struct {
	StrongBuy  float64 `yaml:"strong_buy" validate:"required,gt=0,lte=1"`
	WeakBuy    float64 `yaml:"weak_buy" validate:"required,gt=0,ltefield=StrongBuy"`
	StrongSell float64 `yaml:"strong_sell" validate:"required,gt=0,lte=1"`
	WeakSell   float64 `yaml:"weak_sell" validate:"required,gt=0,ltefield=StrongSell"`
}

type Strategy interface{}

/// StrategyReference is the tagged strategy variant: the yaml key selects
// the concrete config type.
type StrategyReference struct {
	Strategy Strategy
}

func (w *StrategyReference) UnmarshalYAML(value *yaml.Node) error {
	if len(value.Content) == 0 {
		return nil
	}

	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return errors.New("invalid strategy yaml format")
	}

	key := value.Content[0].Value
	switch key {
	case "ema_cross":
		var ec EMACross
		if err := value.Content[1].Decode(&ec); err != nil {
			return fmt.Errorf("failed parsing ema_cross strategy config: %w", err)
		}
		w.Strategy = ec
	case "weighted":
		var wd Weighted
		if err := value.Content[1].Decode(&wd); err != nil {
			return fmt.Errorf("failed parsing weighted strategy config: %w", err)
		}
		w.Strategy = wd
	default:
		return fmt.Errorf("unknown strategy type: %s", key)
	}

	return nil
}
