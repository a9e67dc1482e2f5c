package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-orders/internal/core/config"
	"storefront-orders/internal/core/logger"
	"storefront-orders/internal/core/respond"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(port int) *config.AppConfig {
	return &config.AppConfig{
		ServerPort: port,
		Auth:       config.AuthConfig{JWTSecret: "secret"},
	}
}

// TestNew verifies that New creates a Server with the correct configuration.
func TestNew(t *testing.T) {
	cfg := testConfig(8080)

	logger.Init("development", "debug")
	srv := New(cfg)

	require.NotNil(t, srv)
	assert.NotNil(t, srv.App)
	assert.Equal(t, cfg, srv.cfg)
}

// TestHealth verifies the health endpoint reflects dependency checks.
func TestHealth(t *testing.T) {
	logger.Init("development", "error")

	ok := New(testConfig(8080), func(context.Context) error { return nil })
	resp, err := ok.App.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	down := New(testConfig(8080), func(context.Context) error { return errors.New("redis down") })
	resp, err = down.App.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

// TestErrorEnvelope verifies unknown routes use the JSON error envelope with a ray id.
func TestErrorEnvelope(t *testing.T) {
	logger.Init("development", "error")
	srv := New(testConfig(8080))

	resp, err := srv.App.Test(httptest.NewRequest("GET", "/does-not-exist", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	var body respond.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Error)
	assert.NotEmpty(t, body.RayID)
	assert.Equal(t, body.RayID, resp.Header.Get("X-Ray-ID"))
}

// TestMetricsEndpoint verifies prometheus output is exposed.
func TestMetricsEndpoint(t *testing.T) {
	logger.Init("development", "error")
	srv := New(testConfig(8080))

	resp, err := srv.App.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

// TestServer_Run_Error verifies that Run returns an error when binding fails (e.g., privileged port).
func TestServer_Run_Error(t *testing.T) {
	logger.Init("development", "error")
	srv := New(testConfig(1))

	errCh := make(chan error)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(1 * time.Second):
		srv.App.Shutdown()
		t.Log("Server unexpectedly started or timed out on Error test")
	}
}
