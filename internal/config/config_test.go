package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/finance")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultAccessTokenTTL, cfg.AccessTokenTTL)
	assert.Equal(t, defaultAIModel, cfg.AIModel)
	assert.Equal(t, defaultRecurringSchedule, cfg.RecurringSchedule)
	assert.False(t, cfg.AMQPEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/finance")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("DENIED_USERS", "a, b,,c ")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.DeniedUsers)
	assert.True(t, cfg.LogPretty)
}

func TestLoad_InvalidNumberFallsBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)
	assert.Equal(t, defaultRateLimitPerMin, cfg.RateLimitPerMinute)
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := &Config{EmailAddress: "me@example.com"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_CONNECTION_STRING is required")
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "EMAIL_ADDRESS and EMAIL_PASSWORD must be set together")
}
