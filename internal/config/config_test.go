package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
	assert.Equal(t, 60*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
	assert.False(t, cfg.IsDevelopment())
}

func TestNewViperReadsPrefixedAndLegacyEnv(t *testing.T) {
	t.Setenv("CAREERPATH_MODEL_TIMEOUT", "15s")
	t.Setenv("CAREERPATH_WORKERS", "7")
	t.Setenv("DB_URL", "postgres://legacy")
	t.Setenv("R2_ACCCOUNT_ID", "acct")
	t.Setenv("CAREERPATH_R2_BUCKET", "resumes")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "postgres://legacy", cfg.DBURL)
	assert.Equal(t, "acct", cfg.R2.AccountID)
	assert.Equal(t, "resumes", cfg.R2.Bucket)
}

func TestPrefixedWinsOverLegacy(t *testing.T) {
	t.Setenv("CAREERPATH_DB_URL", "postgres://new")
	t.Setenv("DB_URL", "postgres://legacy")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "postgres://new", cfg.DBURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero timeout", func(c *Config) { c.ModelTimeout = 0 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"no breaker threshold", func(c *Config) { c.BreakerFailures = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Port: "8080", Model: "m", ModelTimeout: time.Second, Workers: 1, BreakerFailures: 1}
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRequirements(t *testing.T) {
	cfg := &Config{}
	assert.ErrorContains(t, cfg.RequireServe(), "DB_URL")
	assert.ErrorContains(t, cfg.RequireWorker(), "DB_URL")

	cfg.DBURL = "postgres://x"
	assert.ErrorContains(t, cfg.RequireServe(), "JWT_SECRET")
	assert.ErrorContains(t, cfg.RequireWorker(), "RABBITMQ_URL")

	cfg.JWTSecret = "s"
	cfg.RabbitMQURL = "amqp://x"
	cfg.GoogleAPIKey = "k"
	assert.ErrorContains(t, cfg.RequireServe(), "R2")
	assert.ErrorContains(t, cfg.RequireWorker(), "R2")

	cfg.R2.AccountID, cfg.R2.Bucket, cfg.R2.AccessKey, cfg.R2.SecretKey = "a", "b", "c", "d"
	assert.NoError(t, cfg.RequireServe())
	assert.NoError(t, cfg.RequireWorker())
}
