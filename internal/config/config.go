package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clubroll/clubroll/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Redis      RedisConfig
	Stripe     StripeConfig `validate:"required"`
	Cron       CronConfig
	Sentry     SentryConfig
	Cache      CacheConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// StripeAccount holds the credentials of one external processor account.
// Multiple accounts are supported; webhook signatures are verified against
// each account's secret in turn to identify the originating account.
type StripeAccount struct {
	Key           string `validate:"required"`
	SecretKey     string `validate:"required"`
	WebhookSecret string `validate:"required"`
}

type StripeConfig struct {
	Accounts []StripeAccount `validate:"required,min=1,dive"`
}

// AccountByKey returns the configured account with the given key.
func (c StripeConfig) AccountByKey(key string) (StripeAccount, bool) {
	for _, account := range c.Accounts {
		if account.Key == key {
			return account, true
		}
	}
	return StripeAccount{}, false
}

// CronConfig authenticates scheduled invocations with a shared secret,
// distinct from any user-facing session mechanism.
type CronConfig struct {
	SharedSecret string
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

type CacheConfig struct {
	Enabled bool
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/clubroll")

	// Set up environment variables support
	v.SetEnvPrefix("CLUBROLL")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
