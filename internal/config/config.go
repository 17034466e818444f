// Package config loads settings from .env, the environment and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/muhammadolammi/careerpath/internal/storage"
	"github.com/spf13/viper"
)

const EnvPrefix = "CAREERPATH"

type Config struct {
	Env      string
	LogLevel string
	Port     string

	DBURL       string
	RabbitMQURL string

	GoogleAPIKey string
	Model        string
	ModelTimeout time.Duration

	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration

	R2 storage.R2Config

	JWTSecret string
	JWTIssuer string

	Workers int
}

// legacy names still read from the environment, after the prefixed ones
var fallbackEnv = map[string]string{
	"db_url":         "DB_URL",
	"rabbitmq_url":   "RABBITMQ_URL",
	"google_api_key": "GOOGLE_API_KEY",
	"r2.account_id":  "R2_ACCCOUNT_ID",
	"r2.bucket":      "R2_BUCKET",
	"r2.access_key":  "R2_ACCESS_KEY",
	"r2.secret_key":  "R2_SECRET_KEY",
	"port":           "PORT",
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", "8080")
	v.SetDefault("model", "gemini-2.5-flash")
	v.SetDefault("model_timeout", 60*time.Second)
	v.SetDefault("breaker_failures", 5)
	v.SetDefault("breaker_open_timeout", 30*time.Second)
	v.SetDefault("jwt_issuer", "")
	v.SetDefault("workers", 3)
}

// NewViper returns a viper reading CAREERPATH_* variables after loading a
// .env file when one exists.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for key, legacy := range fallbackEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		_ = v.BindEnv(key, prefixed, legacy)
	}
	SetDefaults(v)
	return v
}

func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:                v.GetString("env"),
		LogLevel:           v.GetString("log_level"),
		Port:               v.GetString("port"),
		DBURL:              v.GetString("db_url"),
		RabbitMQURL:        v.GetString("rabbitmq_url"),
		GoogleAPIKey:       v.GetString("google_api_key"),
		Model:              v.GetString("model"),
		ModelTimeout:       v.GetDuration("model_timeout"),
		BreakerFailures:    v.GetUint32("breaker_failures"),
		BreakerOpenTimeout: v.GetDuration("breaker_open_timeout"),
		R2: storage.R2Config{
			AccountID: v.GetString("r2.account_id"),
			Bucket:    v.GetString("r2.bucket"),
			AccessKey: v.GetString("r2.access_key"),
			SecretKey: v.GetString("r2.secret_key"),
		},
		JWTSecret: v.GetString("jwt_secret"),
		JWTIssuer: v.GetString("jwt_issuer"),
		Workers:   v.GetInt("workers"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port cannot be empty")
	}
	if c.Model == "" {
		return errors.New("model cannot be empty")
	}
	if c.ModelTimeout <= 0 {
		return errors.New("model_timeout must be > 0")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if c.BreakerFailures == 0 {
		return errors.New("breaker_failures must be > 0")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

func (c *Config) R2Configured() bool {
	return c.R2.AccountID != "" && c.R2.Bucket != "" && c.R2.AccessKey != "" && c.R2.SecretKey != ""
}

// RequireServe reports the first missing setting the API server needs.
func (c *Config) RequireServe() error {
	switch {
	case c.DBURL == "":
		return errors.New("empty DB_URL in environment")
	case c.JWTSecret == "":
		return errors.New("empty CAREERPATH_JWT_SECRET in environment")
	case !c.R2Configured():
		return errors.New("incomplete R2 settings in environment")
	}
	return nil
}

// RequireWorker reports the first missing setting the resume worker needs.
func (c *Config) RequireWorker() error {
	switch {
	case c.DBURL == "":
		return errors.New("empty DB_URL in environment")
	case c.RabbitMQURL == "":
		return errors.New("empty RABBITMQ_URL in env")
	case c.GoogleAPIKey == "":
		return errors.New("empty GOOGLE_API_KEY in env")
	case !c.R2Configured():
		return errors.New("incomplete R2 settings in environment")
	}
	return nil
}
