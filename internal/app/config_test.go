package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderbench/orderbench/internal/app"
	_ "github.com/orderbench/orderbench/testing"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ORDERS_API_URL", "http://orders.local")
		t.Setenv("CATALOG_API_URL", "http://catalog.local")

		cfg, err := app.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.AppEnv)
		assert.Equal(t, ":8080", cfg.AppAddr)
		assert.Equal(t, 4*time.Hour, cfg.SessionTTL)
		assert.Equal(t, 2*time.Hour, cfg.SessionIdleCutoff)
		assert.Equal(t, 5*time.Minute, cfg.CatalogCacheTTL)
		assert.Empty(t, cfg.AuditPGDSN)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("idle cutoff above the ttl", func(t *testing.T) {
		t.Setenv("ORDERS_API_URL", "http://orders.local")
		t.Setenv("CATALOG_API_URL", "http://catalog.local")
		t.Setenv("SESSION_TTL", "1h")
		t.Setenv("SESSION_IDLE_CUTOFF", "2h")

		_, err := app.LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idle cutoff")
	})

	t.Run("production flag", func(t *testing.T) {
		t.Setenv("ORDERS_API_URL", "http://orders.local")
		t.Setenv("CATALOG_API_URL", "http://catalog.local")
		t.Setenv("APP_ENV", "production")

		cfg, err := app.LoadConfig()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}

func TestInTestMode(t *testing.T) {
	// the blank import above forces the flag for every test binary
	assert.True(t, app.InTestMode())

	t.Setenv("ORDERBENCH_TEST_MODE", "")
	app.RefreshTestMode()
	assert.False(t, app.InTestMode())

	t.Setenv("ORDERBENCH_TEST_MODE", "1")
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
}
