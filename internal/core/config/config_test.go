package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequired provides every required key so tests can focus on a single concern.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_test_secret")
	t.Setenv("SHIPROCKET_EMAIL", "ops@example.com")
	t.Setenv("SHIPROCKET_PASSWORD", "sr-password")
}

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "https://api.razorpay.com", cfg.Razorpay.URL)
	assert.Equal(t, "INR", cfg.Razorpay.Currency)
	assert.Equal(t, "Primary", cfg.Shipping.PickupLocation)
	assert.Equal(t, 2.0, cfg.Shipping.CODPercent)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.Proxy.Enabled)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("SHIPPING_COD_PERCENT", "2.5")
	t.Setenv("PROXY_ENABLED", "true")
	t.Setenv("PROXY_PORT", "3128")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2.5, cfg.Shipping.CODPercent)
	assert.True(t, cfg.Proxy.Enabled)
	assert.Equal(t, 3128, cfg.Proxy.Port)
	assert.Equal(t, "rzp_test_key", cfg.Razorpay.KeyID)
	assert.Equal(t, "ops@example.com", cfg.Shipping.Email)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SERVER_PORT", "")

	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
REDIS_URL=redis://cache.internal:6380/2
SHIPPING_PICKUP_LOCATION=Warehouse-2
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "redis://cache.internal:6380/2", cfg.Redis.URL)
	assert.Equal(t, "Warehouse-2", cfg.Shipping.PickupLocation)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	setRequired(t)
	t.Setenv("RAZORPAY_KEY_SECRET", "")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration: RAZORPAY_KEY_SECRET")
}
