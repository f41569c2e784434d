package config

// Indicators enables and parameterizes the indicator set. A nil entry means
// the indicator is off; an entry with Enabled false is off too, so a config
// can keep tuned parameters around without using them.
type Indicators struct {
	SMA        *SMA        `yaml:"sma"`
	EMA        *EMA        `yaml:"ema"`
	RSI        *RSI        `yaml:"rsi"`
	MACD       *MACD       `yaml:"macd"`
	Bollinger  *Bollinger  `yaml:"bollinger"`
	Stochastic *Stochastic `yaml:"stochastic"`
	WilliamsR  *WilliamsR  `yaml:"williams_r"`
	ADX        *ADX        `yaml:"adx"`
	CCI        *CCI        `yaml:"cci"`
	ATR        *ATR        `yaml:"atr"`
}

type SMA struct {
	Enabled bool    `yaml:"enabled"`
	Periods []int   `yaml:"periods" default:"[20,50]" validate:"min=1,dive,gt=0"`
	Weight  float64 `yaml:"weight" validate:"gte=0"`
}

type EMA struct {
	Enabled bool    `yaml:"enabled"`
	Periods []int   `yaml:"periods" default:"[9,41]" validate:"min=1,dive,gt=0"`
	Weight  float64 `yaml:"weight" validate:"gte=0"`
}

type RSI struct {
	Enabled    bool    `yaml:"enabled"`
	Period     int     `yaml:"period" default:"14" validate:"gt=0"`
	Oversold   float64 `yaml:"oversold" default:"30" validate:"gte=0,lte=100"`
	Overbought float64 `yaml:"overbought" default:"70" validate:"gte=0,lte=100,gtfield=Oversold"`
	Weight     float64 `yaml:"weight" validate:"gte=0"`
}

type MACD struct {
	Enabled bool    `yaml:"enabled"`
	Fast    int     `yaml:"fast" default:"12" validate:"gt=0"`
	Slow    int     `yaml:"slow" default:"26" validate:"gt=0,gtfield=Fast"`
	Signal  int     `yaml:"signal" default:"9" validate:"gt=0"`
	Weight  float64 `yaml:"weight" validate:"gte=0"`
}

type Bollinger struct {
	Enabled bool    `yaml:"enabled"`
	Period  int     `yaml:"period" default:"20" validate:"gt=0"`
	StdDev  float64 `yaml:"std_dev" default:"2" validate:"gt=0"`
	Weight  float64 `yaml:"weight" validate:"gte=0"`
}

type Stochastic struct {
	Enabled    bool    `yaml:"enabled"`
	KPeriod    int     `yaml:"k_period" default:"14" validate:"gt=0"`
	DPeriod    int     `yaml:"d_period" default:"3" validate:"gt=0"`
	Oversold   float64 `yaml:"oversold" default:"20" validate:"gte=0,lte=100"`
	Overbought float64 `yaml:"overbought" default:"80" validate:"gte=0,lte=100,gtfield=Oversold"`
	Weight     float64 `yaml:"weight" validate:"gte=0"`
}

type WilliamsR struct {
	Enabled    bool    `yaml:"enabled"`
	Period     int     `yaml:"period" default:"14" validate:"gt=0"`
	Oversold   float64 `yaml:"oversold" default:"-80" validate:"gte=-100,lte=0"`
	Overbought float64 `yaml:"overbought" default:"-20" validate:"gte=-100,lte=0,gtfield=Oversold"`
	Weight     float64 `yaml:"weight" validate:"gte=0"`
}

type ADX struct {
	Enabled        bool    `yaml:"enabled"`
	Period         int     `yaml:"period" default:"14" validate:"gt=0"`
	TrendThreshold float64 `yaml:"trend_threshold" default:"25" validate:"gt=0"`
	Weight         float64 `yaml:"weight" validate:"gte=0"`
}

type CCI struct {
	Enabled    bool    `yaml:"enabled"`
	Period     int     `yaml:"period" default:"20" validate:"gt=0"`
	Oversold   float64 `yaml:"oversold" default:"-100"`
	Overbought float64 `yaml:"overbought" default:"100" validate:"gtfield=Oversold"`
	Weight     float64 `yaml:"weight" validate:"gte=0"`
}

type ATR struct {
	Enabled bool    `yaml:"enabled"`
	Period  int     `yaml:"period" default:"14" validate:"gt=0"`
	Weight  float64 `yaml:"weight" validate:"gte=0"`
}
