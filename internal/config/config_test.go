package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_BOOTSTRAP_PRINCIPALS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshGrace)
	assert.Equal(t, "lookup", cfg.Auth.IdentityMode)
	assert.Equal(t, []string{"/api/auth/", "/api/public/", "/swagger-", "/v3/api-docs"}, cfg.Auth.PublicPrefixes)
	assert.Equal(t, []string{"/api/health", "/metrics"}, cfg.Auth.PublicPaths)
	assert.Equal(t, []BootstrapPrincipal{
		{ID: 1, Subject: "testuser", Secret: "password"},
		{ID: 2, Subject: "admin", Secret: "admin"},
	}, cfg.Auth.BootstrapPrincipals)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.Logger.Development)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("AUTH_JWT_SECRET", "a-much-longer-staging-secret-value-0123456789")
	t.Setenv("AUTH_TOKEN_TTL", "1h")
	t.Setenv("AUTH_REFRESH_GRACE", "-1s")
	t.Setenv("AUTH_IDENTITY_MODE", "claims")
	t.Setenv("AUTH_PUBLIC_PATHS", " /api/health , /ready ,")
	t.Setenv("AUTH_BOOTSTRAP_PRINCIPALS", "7:ops:s3cret:with:colons")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, -time.Second, cfg.Auth.RefreshGrace)
	assert.Equal(t, "claims", cfg.Auth.IdentityMode)
	assert.Equal(t, []string{"/api/health", "/ready"}, cfg.Auth.PublicPaths)
	assert.Equal(t, []BootstrapPrincipal{{ID: 7, Subject: "ops", Secret: "s3cret:with:colons"}}, cfg.Auth.BootstrapPrincipals)
	assert.True(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Logger.Development)
}

func TestLoad_Rejections(t *testing.T) {
	t.Run("default secret in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("AUTH_JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("AUTH_TOKEN_TTL", "0s")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("bad bootstrap entry", func(t *testing.T) {
		t.Setenv("APP_ENV", "development")
		t.Setenv("AUTH_BOOTSTRAP_PRINCIPALS", "abc:user:pw")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("missing explicit env file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.Error(t, err)
	})
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9191\nAUTH_PRINCIPAL_CACHE_TTL=5m\n"), 0o600))
	t.Setenv("APP_ENV", "development")
	// godotenv never overrides variables that are already set; registering
	// them with t.Setenv first restores the environment after the test.
	t.Setenv("APP_PORT", "")
	t.Setenv("AUTH_PRINCIPAL_CACHE_TTL", "")
	require.NoError(t, os.Unsetenv("APP_PORT"))
	require.NoError(t, os.Unsetenv("AUTH_PRINCIPAL_CACHE_TTL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.App.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.PrincipalCacheTTL)
}
