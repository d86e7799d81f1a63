package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testSecret is long enough to satisfy the 32-character minimum.
const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, `
security:
  jwt:
    secret: "`+testSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Database.Path != "./data/sensewear.db" {
		t.Errorf("default database path = %q", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("default mqtt port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Provisioning.DeviceType != "alertme" {
		t.Errorf("default device type = %q, want alertme", cfg.Provisioning.DeviceType)
	}
	if cfg.Provisioning.Tenant != "carbon.super" {
		t.Errorf("default tenant = %q, want carbon.super", cfg.Provisioning.Tenant)
	}
	if cfg.Provisioning.KeyValiditySeconds != 3600 {
		t.Errorf("default key validity = %d, want 3600", cfg.Provisioning.KeyValiditySeconds)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
database:
  path: /var/lib/sensewear/core.db
provisioning:
  device_type: pulseband
  tenant: acme.example
  key_validity_seconds: 7200
security:
  jwt:
    secret: "`+testSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Database.Path != "/var/lib/sensewear/core.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Provisioning.DeviceType != "pulseband" {
		t.Errorf("device type = %q, want pulseband", cfg.Provisioning.DeviceType)
	}
	if cfg.Provisioning.Tenant != "acme.example" {
		t.Errorf("tenant = %q, want acme.example", cfg.Provisioning.Tenant)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("SENSEWEAR_DATABASE_PATH", "/tmp/env-override.db")
	t.Setenv("SENSEWEAR_JWT_SECRET", testSecret)
	t.Setenv("SENSEWEAR_TENANT", "env.tenant")

	path := writeConfigFile(t, `
database:
  path: /should/be/overridden.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Database.Path != "/tmp/env-override.db" {
		t.Errorf("database path = %q, env override not applied", cfg.Database.Path)
	}
	if cfg.Provisioning.Tenant != "env.tenant" {
		t.Errorf("tenant = %q, env override not applied", cfg.Provisioning.Tenant)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantMsg: "security.jwt.secret is required",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantMsg: "at least 32 characters",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantMsg: "mqtt.qos",
		},
		{
			name:    "invalid api port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantMsg: "api.port",
		},
		{
			name:    "missing device type",
			mutate:  func(c *Config) { c.Provisioning.DeviceType = "" },
			wantMsg: "provisioning.device_type",
		},
		{
			name:    "non-positive key validity",
			mutate:  func(c *Config) { c.Provisioning.KeyValiditySeconds = 0 },
			wantMsg: "key_validity_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWT.Secret = testSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() succeeded on missing file, want error")
	}
}
