package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	PostgresURL string `mapstructure:"postgres_url"`
	RedisAddr   string `mapstructure:"redis_addr"`

	PaymentProviderURL string `mapstructure:"payment_provider_url"`
	PaymentProviderKey string `mapstructure:"payment_provider_key"`
	NotifierURL        string `mapstructure:"notifier_url"`

	Settlement SettlementConfig `mapstructure:"settlement"`
}

// SettlementConfig carries the constants the engine enforces. They are
// passed into the usecases at construction, never read ambiently.
type SettlementConfig struct {
	PlatformFee          decimal.Decimal
	MinTopUp             decimal.Decimal
	Currency             string `mapstructure:"currency"`
	TopUpReuseWindowMins int    `mapstructure:"top_up_reuse_window_mins"`

	PlatformFeeRaw string `mapstructure:"platform_fee"`
	MinTopUpRaw    string `mapstructure:"min_top_up"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("FESTMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("postgres_url", "postgres://localhost:5432/festmatch?sslmode=disable")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("settlement.platform_fee", "5.00")
	v.SetDefault("settlement.min_top_up", "20.00")
	v.SetDefault("settlement.currency", "EUR")
	v.SetDefault("settlement.top_up_reuse_window_mins", 30)

	if err := v.ReadInConfig(); err != nil {
		// config file is optional, env + defaults are enough
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	fee, err := decimal.NewFromString(c.Settlement.PlatformFeeRaw)
	if err != nil {
		return nil, fmt.Errorf("parse settlement.platform_fee: %w", err)
	}
	minTopUp, err := decimal.NewFromString(c.Settlement.MinTopUpRaw)
	if err != nil {
		return nil, fmt.Errorf("parse settlement.min_top_up: %w", err)
	}
	c.Settlement.PlatformFee = fee
	c.Settlement.MinTopUp = minTopUp

	return &c, nil
}
