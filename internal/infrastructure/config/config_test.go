package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
device:
  name: "status_led"
  driver: "status_driver"
  class: "leds"
  chip: "gpiochip1"
  pin: 17
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "status_led" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "status_led")
	}
	if cfg.Device.Pin != 17 {
		t.Errorf("Device.Pin = %d, want 17", cfg.Device.Pin)
	}
	if cfg.Device.Chip != "gpiochip1" {
		t.Errorf("Device.Chip = %q, want %q", cfg.Device.Chip, "gpiochip1")
	}
	// Unset keys keep their defaults.
	if cfg.Device.Major != 240 {
		t.Errorf("Device.Major = %d, want default 240", cfg.Device.Major)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.TopicPrefix != "ledd" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "ledd")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
device:
  name: ""
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty device.name, got nil")
	}
}

func TestLoad_InvalidPinOverride(t *testing.T) {
	configPath := writeConfig(t, "device:\n  pin: 4\n")
	t.Setenv("LEDD_DEVICE_PIN", "four")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for non-numeric LEDD_DEVICE_PIN, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing device name",
			mutate:  func(c *Config) { c.Device.Name = "" },
			wantErr: "device.name",
		},
		{
			name:    "missing driver",
			mutate:  func(c *Config) { c.Device.Driver = "" },
			wantErr: "device.driver",
		},
		{
			name:    "missing class",
			mutate:  func(c *Config) { c.Device.Class = "" },
			wantErr: "device.class",
		},
		{
			name:    "wildcard in class",
			mutate:  func(c *Config) { c.Device.Class = "leds/#" },
			wantErr: "must not contain",
		},
		{
			name:    "missing chip",
			mutate:  func(c *Config) { c.Device.Chip = "" },
			wantErr: "device.chip",
		},
		{
			name:    "negative pin",
			mutate:  func(c *Config) { c.Device.Pin = -1 },
			wantErr: "device.pin",
		},
		{
			name:    "major out of range",
			mutate:  func(c *Config) { c.Device.Major = 0 },
			wantErr: "device.major",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "missing topic prefix",
			mutate:  func(c *Config) { c.MQTT.TopicPrefix = "" },
			wantErr: "mqtt.topic_prefix",
		},
		{
			name:    "invalid port high",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name: "port ignored when api disabled",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateReportsAllErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Device.Name = ""
	cfg.Database.Path = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	for _, want := range []string{"device.name", "database.path"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, missing %q", err, want)
		}
	}
}

func TestAPIConfigTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.API.ReadTimeout().Seconds(); got != 30 {
		t.Errorf("ReadTimeout() = %v, want 30", got)
	}

	if got := cfg.API.WriteTimeout().Seconds(); got != 45 {
		t.Errorf("WriteTimeout() = %v, want 45", got)
	}

	if got := cfg.API.IdleTimeout().Seconds(); got != 60 {
		t.Errorf("IdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("LEDD_DEVICE_CHIP", "gpiochip4")
	t.Setenv("LEDD_DEVICE_PIN", "21")
	t.Setenv("LEDD_DATABASE_PATH", "/custom/path.db")
	t.Setenv("LEDD_MQTT_HOST", "mqtt.example.com")
	t.Setenv("LEDD_MQTT_USERNAME", "testuser")
	t.Setenv("LEDD_MQTT_PASSWORD", "testpass")
	t.Setenv("LEDD_API_HOST", "192.168.1.1")
	t.Setenv("LEDD_INFLUXDB_TOKEN", "secret-token")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Device.Chip != "gpiochip4" {
		t.Errorf("Device.Chip = %q, want %q", cfg.Device.Chip, "gpiochip4")
	}
	if cfg.Device.Pin != 21 {
		t.Errorf("Device.Pin = %d, want 21", cfg.Device.Pin)
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Device.Name != "my_gpio_device" {
		t.Errorf("defaultConfig Device.Name = %q, want %q", cfg.Device.Name, "my_gpio_device")
	}
	if cfg.Device.Pin != 20 {
		t.Errorf("defaultConfig Device.Pin = %d, want 20", cfg.Device.Pin)
	}
	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}
