package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
broker: tcp://broker.local:1883
throttleSeconds: 10
staticToken: secret
staticUsername: gardener
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Broker != "tcp://broker.local:1883" {
		t.Errorf("Broker: got %q", cfg.Broker)
	}
	if cfg.ThrottleInterval() != 10*time.Second {
		t.Errorf("ThrottleInterval: got %v", cfg.ThrottleInterval())
	}
	// Defaults fill the unset fields.
	if cfg.TelemetryTopic != "tp/esp32/telemetry" {
		t.Errorf("TelemetryTopic: got %q", cfg.TelemetryTopic)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr: got %q", cfg.HTTPAddr)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BROKER", "tcp://env.local:1883")
	t.Setenv("STATIC_TOKEN", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker != "tcp://env.local:1883" {
		t.Errorf("Broker: got %q", cfg.Broker)
	}
	if cfg.StaticUsername != "admin" {
		t.Errorf("StaticUsername default: got %q", cfg.StaticUsername)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Broker:          "tcp://localhost:1883",
			RetrySeconds:    5,
			ThrottleSeconds: 5,
			HistorySize:     100,
			StaticToken:     "secret",
		}
	}

	if err := func() error { c := base(); return c.Validate() }(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty broker", func(c *Config) { c.Broker = "" }},
		{"negative throttle", func(c *Config) { c.ThrottleSeconds = -1 }},
		{"zero retry", func(c *Config) { c.RetrySeconds = 0 }},
		{"zero history", func(c *Config) { c.HistorySize = 0 }},
		{"no identity", func(c *Config) { c.StaticToken = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
