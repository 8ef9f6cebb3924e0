package configs

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "STAFF_JWT_SECRET", "DATABASE_URL",
	"POLL_TIMEOUT", "SESSION_GRACE_PERIOD", "REAPER_INTERVAL",
	"POLL_RATE", "POLL_BURST", "AUTH_RATE", "AUTH_BURST",
	"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	"DB_MAX_CONNS", "DB_MIN_CONNS", "LOG_LEVEL",
}

// clearEnv unsets every configuration variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.PollTimeout)
	assert.Equal(t, 2*time.Minute, cfg.SessionGracePeriod)
	assert.Equal(t, 30*time.Second, cfg.ReaperInterval)
	assert.Equal(t, developmentDSN, cfg.DatabaseDSN)
	assert.Equal(t, developmentSecret, cfg.StaffJWTSecret)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, int32(5), cfg.DBMinConns)
	assert.False(t, cfg.StorageEnabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://db/prod")
	t.Setenv("STAFF_JWT_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("SESSION_GRACE_PERIOD", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 45*time.Second, cfg.SessionGracePeriod)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "privileged port", env: map[string]string{"PORT": "80"}},
		{name: "non numeric port", env: map[string]string{"PORT": "http"}},
		{name: "production without secret", env: map[string]string{"ENVIRONMENT": "production", "DATABASE_URL": "postgres://db"}},
		{name: "production without dsn", env: map[string]string{"ENVIRONMENT": "production", "STAFF_JWT_SECRET": "x"}},
		{name: "zero poll timeout", env: map[string]string{"POLL_TIMEOUT": "0s"}},
		{name: "negative grace", env: map[string]string{"SESSION_GRACE_PERIOD": "-1s"}},
		{name: "min conns above max", env: map[string]string{"DB_MAX_CONNS": "4", "DB_MIN_CONNS": "8"}},
		{name: "zero max conns", env: map[string]string{"DB_MAX_CONNS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
