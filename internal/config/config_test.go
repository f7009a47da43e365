package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.PayOnReserve)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{"-a", ":9090", "-d", "postgres://localhost/parkops", "-pay-on-reserve"})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://localhost/parkops", cfg.DatabaseURL)
	assert.True(t, cfg.PayOnReserve)
}

func TestLoadEnvWins(t *testing.T) {
	t.Setenv("RUN_ADDRESS", ":7070")
	t.Setenv("PAY_ON_RESERVE", "true")

	cfg, err := Load([]string{"-a", ":9090"})
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Addr)
	assert.True(t, cfg.PayOnReserve)
}

func TestLoadRejectsBadBcryptCost(t *testing.T) {
	t.Setenv("BCRYPT_COST", "99")

	_, err := Load(nil)
	assert.Error(t, err)
}
