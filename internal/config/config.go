package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

type Config struct {
	// EncryptionKey seals exchange credentials. There is no plaintext fallback.
	EncryptionKey string `mapstructure:"encryption_key" validate:"required"`
	// EncryptionPrevKey is still accepted when opening credentials during a key rotation.
	EncryptionPrevKey string `mapstructure:"encryption_prev_key"`

	SchedulerInterval  time.Duration `mapstructure:"scheduler_interval" validate:"gt=0"`
	MaxConcurrentTicks int           `mapstructure:"max_concurrent_ticks" validate:"gt=0"`
	AdapterTimeout     time.Duration `mapstructure:"adapter_timeout" validate:"gt=0"`
	AdapterMaxRetries  int           `mapstructure:"adapter_max_retries" validate:"gte=0"`
	InitBackoffInitial time.Duration `mapstructure:"init_backoff_initial" validate:"gt=0"`
	InitBackoffMax     time.Duration `mapstructure:"init_backoff_max" validate:"gtefield=InitBackoffInitial"`

	Health   HealthConfig   `mapstructure:"health"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
}

type HealthConfig struct {
	StaleMultiplier  float64 `mapstructure:"stale_multiplier" validate:"gte=1"`
	FailureThreshold int     `mapstructure:"failure_threshold" validate:"gt=0"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding" validate:"oneof=json console"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// RedisConfig enables the cross-process tick lease when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LeaseTTL time.Duration `mapstructure:"lease_ttl"`
}

// ArchiveConfig enables the parquet trade archive when Dir is set.
type ArchiveConfig struct {
	Dir string `mapstructure:"dir"`
}

type ExchangeConfig struct {
	Binance BinanceConfig `mapstructure:"binance"`
	Paper   PaperConfig   `mapstructure:"paper"`
}

// PaperConfig seeds the simulated exchange used for dry runs.
type PaperConfig struct {
	Markets []PaperMarket `mapstructure:"markets" validate:"dive"`
	// Balances maps asset to free amount. Keys are upper-cased on use.
	Balances map[string]float64 `mapstructure:"balances"`
	// Volatility above zero moves paper prices every WalkInterval.
	Volatility   float64       `mapstructure:"volatility" validate:"gte=0"`
	Trend        float64       `mapstructure:"trend"`
	WalkInterval time.Duration `mapstructure:"walk_interval"`
}

type PaperMarket struct {
	Pair      string  `mapstructure:"pair" validate:"required"`
	Mid       float64 `mapstructure:"mid" validate:"gt=0"`
	MinAmount float64 `mapstructure:"min_amount" validate:"gte=0"`
}

type BinanceConfig struct {
	// BaseURL overrides the REST endpoint, mostly for tests.
	BaseURL        string `mapstructure:"base_url"`
	TestnetBaseURL string `mapstructure:"testnet_base_url"`
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("encryption_key", "")
	v.SetDefault("encryption_prev_key", "")
	v.SetDefault("scheduler_interval", "30s")
	v.SetDefault("max_concurrent_ticks", 8)
	v.SetDefault("adapter_timeout", "10s")
	v.SetDefault("adapter_max_retries", 3)
	v.SetDefault("init_backoff_initial", "30s")
	v.SetDefault("init_backoff_max", "15m")
	v.SetDefault("health.stale_multiplier", 2)
	v.SetDefault("health.failure_threshold", 5)
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.development", false)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lease_ttl", "2m")
	v.SetDefault("archive.dir", "")
	v.SetDefault("exchange.binance.base_url", "")
	v.SetDefault("exchange.binance.testnet_base_url", "")
	v.SetDefault("exchange.paper.volatility", 0)
	v.SetDefault("exchange.paper.trend", 0)
	v.SetDefault("exchange.paper.walk_interval", "5s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode config", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
