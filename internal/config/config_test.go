package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CACHE_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 500, cfg.CacheSize)
	assert.False(t, cfg.IsProduction())
}

func TestLoadProductionNeedsDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadCacheSize(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("CACHE_SIZE", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestSeedAdmin(t *testing.T) {
	cfg := &Config{AdminLogin: "root", AdminEmail: "root@example.com"}
	assert.False(t, cfg.SeedAdmin())
	cfg.AdminPassword = "pw"
	assert.True(t, cfg.SeedAdmin())
}
