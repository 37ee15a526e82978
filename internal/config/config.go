// Package config defines the immutable run configuration for the paper
// trading engine. A config is loaded once at startup, validated, and never
// mutated afterwards; misconfiguration is fatal before the first tick.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lohiavardhan/bitcoin-strats/pkg/errors"
)

// Duration wraps time.Duration so YAML configs can say "10s" or "2m".
// Bare integers are accepted as nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements custom unmarshaling for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid duration %q", raw)
		}

		*d = Duration(parsed)

		return nil
	}

	var nanos int64
	if err := value.Decode(&nanos); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid duration value", err)
	}

	*d = Duration(nanos)

	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type StrategyName string

const (
	StrategyBollinger    StrategyName = "bollinger"
	StrategyZScore       StrategyName = "zscore"
	StrategyBreakout     StrategyName = "breakout"
	StrategyTrend        StrategyName = "trend"
	StrategyRestingLimit StrategyName = "restinglimit"
)

type FeedProvider string

const (
	FeedCoinbase          FeedProvider = "coinbase"
	FeedCoinbaseWebsocket FeedProvider = "coinbase-ws"
	FeedBinance           FeedProvider = "binance"
)

// Config is the root configuration record.
type Config struct {
	Product  string         `yaml:"product" validate:"required"`
	Feed     FeedConfig     `yaml:"feed"`
	Trading  TradingConfig  `yaml:"trading"`
	Cost     CostConfig     `yaml:"cost"`
	Strategy StrategyConfig `yaml:"strategy"`
	Report   ReportConfig   `yaml:"report"`
}

// FeedConfig selects and tunes the price feed collaborator.
type FeedConfig struct {
	Provider FeedProvider `yaml:"provider" validate:"required,oneof=coinbase coinbase-ws binance"`
	// PollInterval applies to polling providers only.
	PollInterval Duration `yaml:"poll_interval" validate:"gte=0"`
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout Duration `yaml:"request_timeout" validate:"gte=0"`
	// MaxReconnectWait caps the exponential reconnect backoff.
	MaxReconnectWait Duration `yaml:"max_reconnect_wait" validate:"gte=0"`
}

// TradingConfig holds portfolio sizing and capacity limits shared by all
// strategies.
type TradingConfig struct {
	InitialCash      float64 `yaml:"initial_cash" validate:"required,gt=0"`
	NotionalPerTrade float64 `yaml:"notional_per_trade" validate:"required,gt=0"`
	MaxPositions     int     `yaml:"max_positions" validate:"required,gt=0"`
	// MaxOrders bounds pending orders plus open positions together.
	MaxOrders int `yaml:"max_orders" validate:"required,gt=0"`
	// SideExclusive forbids a second open position on the same side.
	SideExclusive bool `yaml:"side_exclusive"`
	// MinProfitRatio is the expected-profit gate: computed edge must exceed
	// round-trip cost by this multiple before any entry signal is emitted.
	MinProfitRatio float64 `yaml:"min_profit_ratio" validate:"gte=0"`
	// OrderTTL expires resting orders that sit unfilled this long. Zero
	// disables expiry.
	OrderTTL Duration `yaml:"order_ttl" validate:"gte=0"`
}

// CostConfig parameterizes the simulated execution cost model.
type CostConfig struct {
	MakerFee   float64 `yaml:"maker_fee" validate:"gte=0,lt=1"`
	TakerFee   float64 `yaml:"taker_fee" validate:"gte=0,lt=1"`
	SlippageBP float64 `yaml:"slippage_bp" validate:"gte=0"`
	SpreadBP   float64 `yaml:"spread_bp" validate:"gte=0"`
}

// ReportConfig tunes the periodic status reporter.
type ReportConfig struct {
	Interval Duration `yaml:"interval" validate:"gte=0"`
}

// StrategyConfig selects exactly one strategy variant and holds its knobs.
type StrategyConfig struct {
	Name         StrategyName        `yaml:"name" validate:"required,oneof=bollinger zscore breakout trend restinglimit"`
	Bollinger    *BollingerConfig    `yaml:"bollinger,omitempty"`
	ZScore       *ZScoreConfig       `yaml:"zscore,omitempty"`
	Breakout     *BreakoutConfig     `yaml:"breakout,omitempty"`
	Trend        *TrendConfig        `yaml:"trend,omitempty"`
	RestingLimit *RestingLimitConfig `yaml:"restinglimit,omitempty"`
}

// BollingerConfig drives band mean reversion: enter outside mean +/- k*std,
// target the mean, stop a volatility multiple away with a price-fraction floor.
type BollingerConfig struct {
	Window     int     `yaml:"window" validate:"required,gt=1"`
	MinSamples int     `yaml:"min_samples" validate:"required,gt=1"`
	StdDevMult float64 `yaml:"std_dev_mult" validate:"required,gt=0"`
	StopKRange float64 `yaml:"stop_k_range" validate:"required,gt=0"`
	// StopFloorFrac floors the stop distance at this fraction of price.
	StopFloorFrac float64 `yaml:"stop_floor_frac" validate:"gte=0,lt=1"`
}

// ZScoreConfig drives z-score mean reversion with a volatility-adaptive stop.
type ZScoreConfig struct {
	Window     int     `yaml:"window" validate:"required,gt=1"`
	MinSamples int     `yaml:"min_samples" validate:"required,gt=1"`
	EntryZ     float64 `yaml:"entry_z" validate:"required,gt=0"`
	ExitZ      float64 `yaml:"exit_z" validate:"gte=0"`
	// StopWorsenSigma closes the position when z moves this much further
	// against it than the entry z. A z-stop, not a fixed price.
	StopWorsenSigma float64 `yaml:"stop_worsen_sigma" validate:"required,gt=0"`
}

// BreakoutConfig drives the breach-and-rejection fade state machine.
type BreakoutConfig struct {
	BandHorizon    Duration `yaml:"band_horizon" validate:"required,gt=0"`
	LongHorizon    Duration `yaml:"long_horizon" validate:"required,gt=0"`
	BiasHorizon    Duration `yaml:"bias_horizon" validate:"required,gt=0"`
	MinBandSamples int           `yaml:"min_band_samples" validate:"required,gt=1"`
	MinLongSamples int           `yaml:"min_long_samples" validate:"required,gt=1"`
	// RejectionTimeout expires an armed breach with no confirming re-entry.
	RejectionTimeout Duration `yaml:"rejection_timeout" validate:"required,gt=0"`
	ContractionMax   float64       `yaml:"contraction_max" validate:"required,gt=0"`
	BiasMinMoveBP    float64       `yaml:"bias_min_move_bp" validate:"gte=0"`
	StopKRange       float64       `yaml:"stop_k_range" validate:"required,gt=0"`
	// RequireContraction and RequireBias gate entries independently; both on
	// reproduces the historical AND of the two filters.
	RequireContraction bool `yaml:"require_contraction"`
	RequireBias        bool `yaml:"require_bias"`
}

// TrendConfig drives EMA-cross trend following with a fee shield.
type TrendConfig struct {
	FastWindow int `yaml:"fast_window" validate:"required,gt=1"`
	SlowWindow int `yaml:"slow_window" validate:"required,gt=1"`
	// FeeGapMult scales the round-trip fee into the minimum EMA gap required
	// before a cross is tradeable.
	FeeGapMult float64 `yaml:"fee_gap_mult" validate:"required,gt=0"`
	// GapFrac is the fraction of the fee gap the EMA spread must exceed.
	GapFrac   float64 `yaml:"gap_frac" validate:"required,gt=0"`
	StopMult  float64 `yaml:"stop_mult" validate:"required,gt=0"`
	TrailMult float64 `yaml:"trail_mult" validate:"required,gt=0"`
}

// RestingLimitConfig drives mean reversion via resting limit orders placed at
// target z-score levels.
type RestingLimitConfig struct {
	Window        int     `yaml:"window" validate:"required,gt=1"`
	MinSamples    int     `yaml:"min_samples" validate:"required,gt=1"`
	LongEntryZ    float64 `yaml:"long_entry_z" validate:"required,lt=0"`
	ShortEntryZ   float64 `yaml:"short_entry_z" validate:"required,gt=0"`
	TakeProfitZ   float64 `yaml:"take_profit_z"`
	StopLossSigma float64 `yaml:"stop_loss_sigma" validate:"required,gt=0"`
	// NotionalFrac sizes each order as a fraction of current cash instead of
	// the fixed per-trade notional.
	NotionalFrac float64 `yaml:"notional_frac" validate:"required,gt=0,lte=1"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a config populated with the historical defaults of the
// strategy scripts this engine consolidates.
func Default() *Config {
	return &Config{
		Product: "BTC-USD",
		Feed: FeedConfig{
			Provider:         FeedCoinbase,
			PollInterval:     Duration(time.Second),
			RequestTimeout:   Duration(5 * time.Second),
			MaxReconnectWait: Duration(30 * time.Second),
		},
		Trading: TradingConfig{
			InitialCash:      10_000,
			NotionalPerTrade: 1_000,
			MaxPositions:     3,
			MaxOrders:        6,
			SideExclusive:    true,
			MinProfitRatio:   1.5,
			OrderTTL:         0,
		},
		Cost: CostConfig{
			MakerFee:   0.0035,
			TakerFee:   0.006,
			SlippageBP: 2.0,
			SpreadBP:   2.0,
		},
		Strategy: StrategyConfig{
			Name: StrategyZScore,
			ZScore: &ZScoreConfig{
				Window:          60,
				MinSamples:      30,
				EntryZ:          2.5,
				ExitZ:           0.2,
				StopWorsenSigma: 2.0,
			},
		},
		Report: ReportConfig{
			Interval: Duration(10 * time.Second),
		},
	}
}

// Validate checks structural tags and cross-field consistency. Any failure is
// fatal: thresholds that can never (or always) fire must not reach the engine.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if c.Trading.MaxOrders < c.Trading.MaxPositions {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"max_orders (%d) must be at least max_positions (%d)", c.Trading.MaxOrders, c.Trading.MaxPositions)
	}

	return c.validateStrategy(validate)
}

func (c *Config) validateStrategy(validate *validator.Validate) error {
	s := c.Strategy

	switch s.Name {
	case StrategyBollinger:
		if s.Bollinger == nil {
			return errors.New(errors.ErrCodeStrategyConfigError, "bollinger strategy selected but not configured")
		}

		if err := validate.Struct(s.Bollinger); err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid bollinger config", err)
		}

		if s.Bollinger.MinSamples > s.Bollinger.Window {
			return errors.Newf(errors.ErrCodeStrategyConfigError,
				"bollinger min_samples (%d) exceeds window (%d): the gate would never open",
				s.Bollinger.MinSamples, s.Bollinger.Window)
		}
	case StrategyZScore:
		if s.ZScore == nil {
			return errors.New(errors.ErrCodeStrategyConfigError, "zscore strategy selected but not configured")
		}

		if err := validate.Struct(s.ZScore); err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid zscore config", err)
		}

		if s.ZScore.ExitZ >= s.ZScore.EntryZ {
			return errors.Newf(errors.ErrCodeInvalidThreshold,
				"zscore exit_z (%.2f) must be below entry_z (%.2f): positions would close on the entry tick",
				s.ZScore.ExitZ, s.ZScore.EntryZ)
		}

		if s.ZScore.MinSamples > s.ZScore.Window {
			return errors.Newf(errors.ErrCodeStrategyConfigError,
				"zscore min_samples (%d) exceeds window (%d)", s.ZScore.MinSamples, s.ZScore.Window)
		}
	case StrategyBreakout:
		if s.Breakout == nil {
			return errors.New(errors.ErrCodeStrategyConfigError, "breakout strategy selected but not configured")
		}

		if err := validate.Struct(s.Breakout); err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid breakout config", err)
		}

		if s.Breakout.BandHorizon >= s.Breakout.LongHorizon {
			return errors.Newf(errors.ErrCodeInvalidHorizon,
				"breakout band_horizon (%v) must be shorter than long_horizon (%v): the contraction ratio would be meaningless",
				s.Breakout.BandHorizon.Std(), s.Breakout.LongHorizon.Std())
		}
	case StrategyTrend:
		if s.Trend == nil {
			return errors.New(errors.ErrCodeStrategyConfigError, "trend strategy selected but not configured")
		}

		if err := validate.Struct(s.Trend); err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid trend config", err)
		}

		if s.Trend.FastWindow >= s.Trend.SlowWindow {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"trend fast_window (%d) must be smaller than slow_window (%d)", s.Trend.FastWindow, s.Trend.SlowWindow)
		}
	case StrategyRestingLimit:
		if s.RestingLimit == nil {
			return errors.New(errors.ErrCodeStrategyConfigError, "restinglimit strategy selected but not configured")
		}

		if err := validate.Struct(s.RestingLimit); err != nil {
			return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid restinglimit config", err)
		}

		if s.RestingLimit.TakeProfitZ <= s.RestingLimit.LongEntryZ || s.RestingLimit.TakeProfitZ >= s.RestingLimit.ShortEntryZ {
			return errors.Newf(errors.ErrCodeInvalidThreshold,
				"restinglimit take_profit_z (%.2f) must lie between long_entry_z (%.2f) and short_entry_z (%.2f)",
				s.RestingLimit.TakeProfitZ, s.RestingLimit.LongEntryZ, s.RestingLimit.ShortEntryZ)
		}
	default:
		return errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy: %s", s.Name)
	}

	return nil
}
