package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SHOPIFY_CLIENT_ID", "client-id")
	t.Setenv("SHOPIFY_CLIENT_SECRET", "hush")
	t.Setenv("TOKEN_ENC_KEY_B64", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "client-id", cfg.Shopify.ClientID)
	assert.Equal(t, "ADDON-PRICE-ADJ", cfg.Storefront.SurrogateSKU)
	assert.Equal(t, "0.01", cfg.Storefront.SurrogateUnitPrice)
	assert.Equal(t, 24*time.Hour, cfg.Storefront.SelectionTTL)
	assert.Equal(t, 15*time.Minute, cfg.Storefront.PurgeInterval)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SELECTION_TTL", "2h")
	t.Setenv("SELECTION_PURGE_INTERVAL", "not-a-duration")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SURROGATE_VARIANT_ID", " 9001 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Storefront.SelectionTTL)
	assert.Equal(t, 15*time.Minute, cfg.Storefront.PurgeInterval)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "9001", cfg.Storefront.SurrogateVariantID)
}

func TestLoadRequiresCredentials(t *testing.T) {
	for _, key := range []string{"SHOPIFY_CLIENT_ID", "SHOPIFY_CLIENT_SECRET", "TOKEN_ENC_KEY_B64"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)

			_, err = LoadUnchecked()
			assert.NoError(t, err)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "addons", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/addons?sslmode=disable", d.DSN())
}
