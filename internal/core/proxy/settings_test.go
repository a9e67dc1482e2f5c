package proxy

import (
	"testing"

	"storefront-orders/internal/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_Disabled(t *testing.T) {
	s := FromConfig(config.ProxyConfig{Enabled: false, Host: "proxy.local", Port: 3128})

	assert.False(t, s.HasProxy())
	assert.Empty(t, s.HostPort())
	assert.Nil(t, s.URL())
}

func TestSettings_WithCredentials(t *testing.T) {
	s := FromConfig(config.ProxyConfig{
		Enabled:  true,
		Host:     "proxy.local",
		Port:     3128,
		Username: "user",
		Password: "p@ss",
	})

	require.True(t, s.HasProxy())
	assert.Equal(t, "http://proxy.local:3128", s.HostPort())

	u := s.URL()
	require.NotNil(t, u)
	assert.Equal(t, "proxy.local:3128", u.Host)
	assert.Equal(t, "user", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)
}

func TestSettings_MissingPort(t *testing.T) {
	s := Settings{Enabled: true, Hostname: "proxy.local"}
	assert.False(t, s.HasProxy())
}
