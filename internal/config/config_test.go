package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"welcome-bot/internal/cards"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONNECTOR_AUTH_DISABLED", "true")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":3978", cfg.Server.Addr)
	require.Equal(t, "welcome-bot.db", cfg.StatePath)
	require.Equal(t, cards.DefaultWelcomeCardPath, cfg.CardPath)
	require.True(t, cfg.Connector.AuthDisabled)
}

func TestLoad_PortVariants(t *testing.T) {
	t.Setenv("CONNECTOR_AUTH_DISABLED", "true")

	t.Setenv("PORT", "8080")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)

	t.Setenv("PORT", "127.0.0.1:8080")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)

	t.Setenv("PORT", "80 80")
	_, err = Load()
	require.Error(t, err)
}

func TestLoad_RequiresParamPrefixWhenAuthEnabled(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "CONNECTOR_PARAM_PREFIX")

	t.Setenv("CONNECTOR_PARAM_PREFIX", "/welcome-bot")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/welcome-bot", cfg.Connector.ParamPrefix)
	require.False(t, cfg.Connector.AuthDisabled)
}

func TestLoad_InvalidBool(t *testing.T) {
	t.Setenv("CONNECTOR_AUTH_DISABLED", "maybe")
	_, err := Load()
	require.Error(t, err)
}
