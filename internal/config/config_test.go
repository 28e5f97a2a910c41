package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "souq4u_token", cfg.CookieName)
	assert.Equal(t, 30*24*time.Hour, cfg.CookieTTL)
	assert.Equal(t, 5*time.Second, cfg.OTPPollInterval)
	assert.Equal(t, 60, cfg.OTPMaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, StoreBolt, cfg.CredentialStore)
	assert.Equal(t, "8080", cfg.DevPort)
}

func TestLoadFile_OverridesFromYAML(t *testing.T) {
	path := writeConfig(t, `
storefront:
  base_url: https://api.example.com/api/v1
  locale: en
  timeout: 3s
session:
  store: redis
otp:
  poll_interval: 2s
  max_attempts: 10
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/api/v1", cfg.BaseURL)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, StoreRedis, cfg.CredentialStore)
	assert.Equal(t, 2*time.Second, cfg.OTPPollInterval)
	assert.Equal(t, 10, cfg.OTPMaxAttempts)
	// untouched sections keep their defaults
	assert.Equal(t, "souq4u_token", cfg.CookieName)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("SOUQ4U_BASE_URL", "https://staging.example.com")
	t.Setenv("SOUQ4U_CREDENTIAL_STORE", StoreMemory)
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.BaseURL)
	assert.Equal(t, StoreMemory, cfg.CredentialStore)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		errContains string
	}{
		{
			name:        "bad duration",
			body:        "otp:\n  poll_interval: soon\n",
			errContains: "invalid OTP poll interval",
		},
		{
			name:        "bad yaml",
			body:        "storefront: [",
			errContains: "could not parse config yaml",
		},
		{
			name:        "unknown store",
			body:        "session:\n  store: floppy\n",
			errContains: "unknown credential store",
		},
		{
			name:        "zero attempts",
			body:        "otp:\n  max_attempts: 0\n",
			errContains: "max_attempts must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
