// Package config loads bridge configuration from a yaml file with
// environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration parameters for the bridge.
type Config struct {
	// Broker configuration
	Broker         string `yaml:"broker" env:"BROKER" env-default:"tcp://localhost:1883"`
	ClientID       string `yaml:"clientId" env:"CLIENT_ID" env-default:"plant-bridge"`
	TelemetryTopic string `yaml:"telemetryTopic" env:"TELEMETRY_TOPIC" env-default:"tp/esp32/telemetry"`
	CommandTopic   string `yaml:"commandTopic" env:"COMMAND_TOPIC" env-default:"tp/esp32/cmd"`
	StatusTopic    string `yaml:"statusTopic" env:"STATUS_TOPIC" env-default:"tp/esp32/bridge"`

	// RetrySeconds is the fixed broker reconnect delay.
	RetrySeconds int `yaml:"retrySeconds" env:"RETRY_SECONDS" env-default:"5"`

	// ThrottleSeconds is the minimum interval between admitted telemetry
	// samples.
	ThrottleSeconds int `yaml:"throttleSeconds" env:"THROTTLE_SECONDS" env-default:"5"`

	// HTTP configuration
	HTTPAddr string `yaml:"httpAddr" env:"HTTP_ADDR" env-default:":3000"`

	// HistorySize is the capacity of the recent-samples ring.
	HistorySize int `yaml:"historySize" env:"HISTORY_SIZE" env-default:"100"`

	// SettingsPath is where the settings snapshot is persisted.
	SettingsPath string `yaml:"settingsPath" env:"SETTINGS_PATH" env-default:"settings.json"`

	// HeartbeatSchedule is a cron expression for the periodic status publish
	// (empty disables it).
	HeartbeatSchedule string `yaml:"heartbeatSchedule" env:"HEARTBEAT_SCHEDULE" env-default:"@every 15m"`

	// Identity configuration: either an external verification endpoint or
	// a static token for single-user deployments.
	IdentityURL    string `yaml:"identityUrl" env:"IDENTITY_URL"`
	StaticToken    string `yaml:"staticToken" env:"STATIC_TOKEN"`
	StaticUsername string `yaml:"staticUsername" env:"STATIC_USERNAME" env-default:"admin"`
}

// Load reads configuration from the given file path and applies
// environment variable overrides. An empty path reads the environment
// only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read config from environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("read config from %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker address is required")
	}
	if c.ThrottleSeconds < 0 {
		return fmt.Errorf("throttleSeconds must not be negative")
	}
	if c.RetrySeconds < 1 {
		return fmt.Errorf("retrySeconds must be at least 1")
	}
	if c.HistorySize < 1 {
		return fmt.Errorf("historySize must be at least 1")
	}
	if c.IdentityURL == "" && c.StaticToken == "" {
		return fmt.Errorf("either identityUrl or staticToken must be set")
	}
	return nil
}

// ThrottleInterval returns the throttle interval as a duration.
func (c *Config) ThrottleInterval() time.Duration {
	return time.Duration(c.ThrottleSeconds) * time.Second
}

// RetryInterval returns the broker retry delay as a duration.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.RetrySeconds) * time.Second
}
