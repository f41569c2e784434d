package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	InitialBalance float64           `yaml:"initial_balance" validate:"required,gt=0"`
	Risk           Risk              `yaml:"risk"`
	Costs          Costs             `yaml:"costs"`
	StopLoss       StopLoss          `yaml:"stop_loss"`
	TakeProfit     TakeProfit        `yaml:"take_profit"`
	Indicators     Indicators        `yaml:"indicators"`
	StrategyRef    StrategyReference `yaml:"strategy"`
	Symbols        map[string]Symbol `yaml:"symbols" validate:"required,min=1,dive"`
	Report         string            `yaml:"report"`
	Chart          string            `yaml:"chart"`
	Optimizer      Optimizer         `yaml:"optimizer"`
	AlpacaRef      *Alpaca           `yaml:"alpaca"`
}

// Read parses and eagerly validates the whole configuration. Any missing or
// invalid risk-critical parameter fails here, before a simulation starts.
func Read(r io.Reader) (*Config, error) {
	var cfg Config
	d := yaml.NewDecoder(r)
	if err := d.Decode(&cfg); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("unable to parse config file: %v", err)}
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("unable to apply config defaults: %v", err)}
	}

	// The strategy variant hides behind an interface, which the defaults
	// library does not descend into. The validator does, so the variant
	// defaults must land before the whole-tree validation pass.
	switch s := cfg.StrategyRef.Strategy.(type) {
	case EMACross:
		if err := defaults.Set(&s); err != nil {
			return nil, &Error{Field: "strategy.ema_cross", Reason: err.Error()}
		}
		cfg.StrategyRef.Strategy = s
	case Weighted:
	case nil:
		return nil, &Error{Field: "strategy", Reason: "no strategy configured"}
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, wrapValidation(err)
	}

	if _, err := cfg.Optimizer.BudgetDuration(); err != nil {
		return nil, &Error{Field: "optimizer.budget", Reason: err.Error()}
	}

	return &cfg, nil
}

func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Error is a fatal configuration failure. Callers must abort the whole run
// when one is returned; nothing may trade on a guessed default.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid config: %s", e.Reason)
	}
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

func wrapValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return &Error{
			Field:  e.Namespace(),
			Reason: fmt.Sprintf("failed %q check (value %v)", e.Tag(), e.Value()),
		}
	}

	return &Error{Reason: err.Error()}
}

type Risk struct {
	RiskPerTrade float64 `yaml:"risk_per_trade" validate:"required,gt=0,lte=1"`
}

type Costs struct {
	CommissionPerLot float64 `yaml:"commission_per_lot" validate:"gte=0"`
	Slippage         float64 `yaml:"slippage" validate:"gte=0"`
	Spread           float64 `yaml:"spread" validate:"gte=0"`
}

type StopLoss struct {
	Method        string  `yaml:"method" validate:"required,oneof=fixed percentage atr"`
	FixedDistance float64 `yaml:"fixed_distance" validate:"required_if=Method fixed,gte=0"`
	Percentage    float64 `yaml:"percentage" validate:"required_if=Method percentage,gte=0"`
	ATRMultiplier float64 `yaml:"atr_multiplier" validate:"required_if=Method atr,gte=0"`
}

type TakeProfit struct {
	Method          string  `yaml:"method" validate:"required,oneof=risk_reward fixed"`
	RiskRewardRatio float64 `yaml:"risk_reward_ratio" validate:"required_if=Method risk_reward,gte=0"`
	FixedDistance   float64 `yaml:"fixed_distance" validate:"required_if=Method fixed,gte=0"`
}

type Symbol struct {
	Data         string  `yaml:"data"`
	ContractSize float64 `yaml:"contract_size" validate:"required,gt=0"`
	Point        float64 `yaml:"point" validate:"required,gt=0"`
	MinVolume    float64 `yaml:"min_volume" default:"0.01" validate:"gt=0"`
	MaxVolume    float64 `yaml:"max_volume" default:"1" validate:"gt=0"`
	VolumeStep   float64 `yaml:"volume_step" default:"0.01" validate:"gt=0"`
}

type Optimizer struct {
	FastFrom int    `yaml:"fast_from" default:"5" validate:"gt=0"`
	FastTo   int    `yaml:"fast_to" default:"20" validate:"gtefield=FastFrom"`
	SlowFrom int    `yaml:"slow_from" default:"20" validate:"gt=0"`
	SlowTo   int    `yaml:"slow_to" default:"60" validate:"gtefield=SlowFrom"`
	SlowStep int    `yaml:"slow_step" default:"5" validate:"gt=0"`
	Workers  int    `yaml:"workers" default:"4" validate:"gt=0"`
	Budget   string `yaml:"budget" default:"5m"`
	Output   string `yaml:"output"`
}

func (o Optimizer) BudgetDuration() (time.Duration, error) {
	return time.ParseDuration(o.Budget)
}

type Alpaca struct {
	ApiKey    string `yaml:"api_key"`
	Secret    string `yaml:"secret"`
	Timeframe string `yaml:"timeframe" default:"1h" validate:"oneof=1m 1h 1d"`
	Days      int    `yaml:"days" default:"365" validate:"gt=0"`
}
