// Package config loads application configuration from environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Slack (Socket Mode)
	SlackBotToken string `envconfig:"SLACK_BOT_TOKEN"`
	SlackAppToken string `envconfig:"SLACK_APP_TOKEN"` // xapp- token for Socket Mode

	// Twitter (OAuth1 user context)
	TwitterAPIKey       string `envconfig:"TWITTER_API_KEY"`
	TwitterAPISecret    string `envconfig:"TWITTER_API_SECRET"`
	TwitterAccessToken  string `envconfig:"TWITTER_ACCESS_TOKEN"`
	TwitterAccessSecret string `envconfig:"TWITTER_ACCESS_SECRET"`

	// Reacji
	TriggerEmoji string `envconfig:"REACJI_TO_TRIGGER_TWEET" default:"pushpin"`

	// Store. DBConnectorType is required; startup fails if it is unset or
	// names a connector we have no implementation for.
	DBConnectorType   string `envconfig:"DB_CONNECTOR_TYPE"`
	DBPath            string `envconfig:"DB_PATH"`
	ForbiddenSeedPath string `envconfig:"FORBIDDEN_SEED_PATH"`

	// Admin API
	AdminListenAddr  string `envconfig:"ADMIN_LISTEN_ADDR" default:":8090"`
	AdminAuthMode    string `envconfig:"ADMIN_AUTH_MODE" default:"api-key"`
	AdminAPIKey      string `envconfig:"ADMIN_API_KEY"`
	AdminCORSOrigins string `envconfig:"ADMIN_CORS_ORIGINS"`
}

// SlackEnabled returns true if Slack tokens are configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackAppToken != ""
}

// TwitterEnabled returns true if the full OAuth1 credential set is configured.
func (c *Config) TwitterEnabled() bool {
	return c.TwitterAPIKey != "" && c.TwitterAPISecret != "" &&
		c.TwitterAccessToken != "" && c.TwitterAccessSecret != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
