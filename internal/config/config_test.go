package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("SUPER_ADMIN_USERNAME", "root")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "root", cfg.SuperAdminUsername)
	assert.Equal(t, "backoffice_session", cfg.AuthCookieName)
	assert.Equal(t, 8, cfg.JWTExpirationHours)
	assert.False(t, cfg.IsProduction())
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " https://a.example , ,https://b.example"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}
