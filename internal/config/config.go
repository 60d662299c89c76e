// Package config loads environment-driven configuration for the local
// server. The Lambda entrypoint reads its few required variables directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"welcome-bot/internal/cards"
)

// Config aggregates the local server's settings.
type Config struct {
	Server    ServerConfig
	StatePath string
	CardPath  string
	Connector ConnectorConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// ConnectorConfig describes how replies are delivered.
type ConnectorConfig struct {
	// ServiceURL pins all sends to one endpoint; empty means each
	// message's own service URL is used.
	ServiceURL string
	// ParamPrefix is the SSM prefix for the bearer token. Required
	// unless auth is disabled.
	ParamPrefix string
	// AuthDisabled skips bearer-token auth, for emulator use.
	AuthDisabled bool
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	authDisabled, err := parseBoolEnv("CONNECTOR_AUTH_DISABLED", false)
	if err != nil {
		return nil, err
	}
	paramPrefix := strings.TrimSpace(os.Getenv("CONNECTOR_PARAM_PREFIX"))
	if !authDisabled && paramPrefix == "" {
		return nil, fmt.Errorf("CONNECTOR_PARAM_PREFIX is required unless CONNECTOR_AUTH_DISABLED=true")
	}

	return &Config{
		Server:    server,
		StatePath: getEnvOrDefault("BOT_STATE_DB", "welcome-bot.db"),
		CardPath:  getEnvOrDefault("CARD_PATH", cards.DefaultWelcomeCardPath),
		Connector: ConnectorConfig{
			ServiceURL:   strings.TrimSpace(os.Getenv("CONNECTOR_SERVICE_URL")),
			ParamPrefix:  paramPrefix,
			AuthDisabled: authDisabled,
		},
	}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3978"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":3978" or "127.0.0.1:3978" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
