package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:             "development",
		Port:            "5000",
		DBDriver:        "postgres",
		DBPassword:      "secure-password",
		DBSSLMode:       "require",
		SessionSecret:   strings.Repeat("s", 40),
		SessionTTLHours: 24,
		RememberTTLDays: 30,
		CSRFEnabled:     true,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError string
	}{
		{"valid development", func(_ *Config) {}, ""},
		{"missing port", func(c *Config) { c.Port = "" }, "PORT is required"},
		{"missing secret", func(c *Config) { c.SessionSecret = "" }, "SESSION_SECRET is required"},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"zero session ttl", func(c *Config) { c.SessionTTLHours = 0 }, "SESSION_TTL_HOURS"},
		{"zero remember ttl", func(c *Config) { c.RememberTTLDays = 0 }, "REMEMBER_TTL_DAYS"},
		{"sqlite in development", func(c *Config) { c.DBDriver = "sqlite" }, ""},
		{"short secret in development only warns", func(c *Config) { c.SessionSecret = "short" }, ""},
		{"production ok", func(c *Config) { c.Env = "production" }, ""},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.SessionSecret = defaultSessionSecret
		}, "changed from the default"},
		{"production short secret", func(c *Config) {
			c.Env = "prod"
			c.SessionSecret = "too-short"
		}, "at least 32 characters"},
		{"production sqlite", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
		}, "sqlite is not supported"},
		{"production weak db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, "DB_PASSWORD"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "5000", c.Port)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, 24, c.SessionTTLHours)
	assert.Equal(t, 30, c.RememberTTLDays)
	assert.True(t, c.CSRFEnabled)
	assert.False(t, c.BookingStrict)
	assert.False(t, c.TracingEnabled)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "/tmp/civichub-test.db")
	t.Setenv("BOOKING_STRICT", "true")
	t.Setenv("CSRF_ENABLED", "false")
	t.Setenv("SESSION_TTL_HOURS", "2")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "/tmp/civichub-test.db", c.DBSQLitePath)
	assert.True(t, c.BookingStrict)
	assert.False(t, c.CSRFEnabled)
	assert.Equal(t, 2, c.SessionTTLHours)
}

func TestLoadConfig_InvalidDriver(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestConfig_Durations(t *testing.T) {
	c := validConfig()
	c.SessionTTLHours = 3
	c.RememberTTLDays = 2

	assert.Equal(t, "3h0m0s", c.SessionTTL().String())
	assert.Equal(t, "48h0m0s", c.RememberTTL().String())
}
