package config

import (
	"testing"
	"time"

	"github.com/marque-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiry)
	assert.Equal(t, 10*time.Minute, cfg.VerificationCodeTTL)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "postgres", cfg.KGStore.Driver)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoad_PerMarketStores(t *testing.T) {
	t.Setenv("KG_DATABASE_URL", "postgres://kg")
	t.Setenv("US_DATABASE_URL", "postgres://us")
	t.Setenv("US_DB_MAX_OPEN_CONNS", "5")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	stores := cfg.Stores()
	assert.Equal(t, "postgres://kg", stores[domain.MarketKG].DSN)
	assert.Equal(t, "postgres://us", stores[domain.MarketUS].DSN)
	assert.Equal(t, 5, stores[domain.MarketUS].MaxOpenConns)
	assert.Equal(t, 30, stores[domain.MarketKG].MaxOpenConns)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositivePhoneLimit(t *testing.T) {
	t.Setenv("PHONE_SEND_LIMIT", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "PHONE_SEND_LIMIT")
}

func TestLoad_RejectsNonPositivePhoneWindow(t *testing.T) {
	t.Setenv("PHONE_SEND_LIMIT_WINDOW", "0s")
	_, err := Load()
	assert.ErrorContains(t, err, "PHONE_SEND_LIMIT_WINDOW")
}
