// Package strategy holds the Volume and Spread decision engines. Engines are
// pure: they take configuration, bot-local state and adapter results, and
// return the action the bot runtime should perform.
package strategy

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// DefaultSideRatio is the share of Volume trades that buy when unset.
const DefaultSideRatio = 0.5

// VolumeConfig configures a Volume bot.
type VolumeConfig struct {
	MinIntervalS int64 `json:"min_interval_s" yaml:"min_interval_s" validate:"gt=0" jsonschema:"title=Minimum Interval,description=Minimum seconds between trades,minimum=1"`
	MaxIntervalS int64 `json:"max_interval_s" yaml:"max_interval_s" validate:"gtefield=MinIntervalS" jsonschema:"title=Maximum Interval,description=Maximum seconds between trades,minimum=1"`
	// Trade sizes are notional amounts in the quote currency.
	MinTradeUSD float64 `json:"min_trade_usd" yaml:"min_trade_usd" validate:"gt=0" jsonschema:"title=Minimum Trade Size,description=Smallest trade notional in quote currency,exclusiveMinimum=0"`
	MaxTradeUSD float64 `json:"max_trade_usd" yaml:"max_trade_usd" validate:"gtefield=MinTradeUSD" jsonschema:"title=Maximum Trade Size,description=Largest trade notional in quote currency,exclusiveMinimum=0"`
	// DailyVolumeCapUSD of zero leaves the daily volume uncapped.
	DailyVolumeCapUSD float64 `json:"daily_volume_cap_usd" yaml:"daily_volume_cap_usd" validate:"gte=0" jsonschema:"title=Daily Volume Cap,description=Stop trading once the UTC day's volume reaches this notional (0 disables),minimum=0"`
	// SideRatio is the probability a trade buys. Nil means DefaultSideRatio.
	SideRatio *float64 `json:"side_ratio,omitempty" yaml:"side_ratio,omitempty" validate:"omitempty,gte=0,lte=1" jsonschema:"title=Side Ratio,description=Probability that a trade is a buy,minimum=0,maximum=1,default=0.5"`
}

// SpreadConfig configures a Spread bot.
type SpreadConfig struct {
	SpreadPercent    float64 `json:"spread_percent" yaml:"spread_percent" validate:"gt=0,lt=100" jsonschema:"title=Spread,description=Full bid/ask spread as a percent of mid,exclusiveMinimum=0,exclusiveMaximum=100"`
	OrderSizeUSDT    float64 `json:"order_size_usdt" yaml:"order_size_usdt" validate:"gt=0" jsonschema:"title=Order Size,description=Notional of each quote in quote currency,exclusiveMinimum=0"`
	RefreshIntervalS int64   `json:"refresh_interval_s" yaml:"refresh_interval_s" validate:"gt=0" jsonschema:"title=Refresh Interval,description=Seconds before quotes are cancelled and replaced,minimum=1"`
	PollIntervalS    int64   `json:"poll_interval_s" yaml:"poll_interval_s" validate:"gt=0,ltefield=RefreshIntervalS" jsonschema:"title=Poll Interval,description=Seconds between fill checks,minimum=1"`
}

// Config is a parsed bot configuration. Exactly one of Volume and Spread is
// set, matching Kind.
type Config struct {
	Kind   types.StrategyKind
	Volume *VolumeConfig
	Spread *SpreadConfig
}

var validate = validator.New()

// ParseConfig decodes and validates the raw JSON configuration of a bot.
func ParseConfig(kind types.StrategyKind, raw []byte) (Config, error) {
	switch kind {
	case types.StrategyVolume:
		cfg, err := ParseVolumeConfig(raw)
		if err != nil {
			return Config{}, err
		}

		return Config{Kind: kind, Volume: &cfg, Spread: nil}, nil
	case types.StrategySpread:
		cfg, err := ParseSpreadConfig(raw)
		if err != nil {
			return Config{}, err
		}

		return Config{Kind: kind, Volume: nil, Spread: &cfg}, nil
	default:
		return Config{}, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy kind: %q", kind)
	}
}

func ParseVolumeConfig(raw []byte) (VolumeConfig, error) {
	var cfg VolumeConfig
	if err := decodeStrict(raw, &cfg); err != nil {
		return VolumeConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return VolumeConfig{}, err
	}

	return cfg, nil
}

func ParseSpreadConfig(raw []byte) (SpreadConfig, error) {
	var cfg SpreadConfig
	if err := decodeStrict(raw, &cfg); err != nil {
		return SpreadConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return SpreadConfig{}, err
	}

	return cfg, nil
}

func decodeStrict(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	if err := dec.Decode(out); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy config", err)
	}

	return nil
}

func (c VolumeConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid volume config", err)
	}

	return nil
}

func (c SpreadConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid spread config", err)
	}

	return nil
}

// BuyProbability returns SideRatio or the default.
func (c VolumeConfig) BuyProbability() float64 {
	if c.SideRatio == nil {
		return DefaultSideRatio
	}

	return *c.SideRatio
}

func (c VolumeConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalS) * time.Second
}

func (c VolumeConfig) MaxInterval() time.Duration {
	return time.Duration(c.MaxIntervalS) * time.Second
}

// DailyCap returns the cap and whether one is set.
func (c VolumeConfig) DailyCap() (decimal.Decimal, bool) {
	if c.DailyVolumeCapUSD <= 0 {
		return decimal.Zero, false
	}

	return decimal.NewFromFloat(c.DailyVolumeCapUSD), true
}

func (c SpreadConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalS) * time.Second
}

func (c SpreadConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalS) * time.Second
}

// ExpectedInterval is the longest gap between trades the bot plans for. The
// health monitor scales it to decide when a bot is stale.
func (c Config) ExpectedInterval() time.Duration {
	switch {
	case c.Volume != nil:
		return c.Volume.MaxInterval()
	case c.Spread != nil:
		return c.Spread.RefreshInterval()
	default:
		return 0
	}
}

// ============================================================================
// JSON schema
// ============================================================================

// Kinds lists the supported strategy kinds.
func Kinds() []types.StrategyKind {
	return []types.StrategyKind{types.StrategySpread, types.StrategyVolume}
}

// ConfigSchema generates the JSON schema of a strategy kind's configuration.
func ConfigSchema(kind types.StrategyKind) (*jsonschema.Schema, error) {
	var (
		target      any
		description string
	)

	switch kind {
	case types.StrategyVolume:
		target = &VolumeConfig{}
		description = "Configuration schema for volume bots"
	case types.StrategySpread:
		target = &SpreadConfig{}
		description = "Configuration schema for spread bots"
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy kind: %q", kind)
	}

	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(target)
	schema.Title = string(kind) + "-strategy-config"
	schema.Description = description
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// ConfigSchemaJSON renders ConfigSchema as indented JSON.
func ConfigSchemaJSON(kind types.StrategyKind) (string, error) {
	schema, err := ConfigSchema(kind)
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnknown, "failed to marshal schema", err)
	}

	return string(schemaBytes), nil
}
