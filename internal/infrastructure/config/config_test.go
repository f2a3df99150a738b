package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
node:
  name: "kitchen-node"
  unit: 7
interfaces:
  - name: "eth0"
    dual_stack: true
mqtt:
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
  controller_index: 2
  handle_set: true
  discovery:
    enabled: true
    topic: "homeassistant/%devclass%/%tskname%/config"
rules:
  enabled: true
  allow_value_set_all_kinds: true
tasks:
  - index: 3
    name: "DummyTask"
    device_kind: 33
    value_kind: "dual"
    enabled: true
    controllers: [2]
    values:
      - name: "DummyVar"
        decimals: 2
      - name: "Other"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Node.Name != "kitchen-node" {
		t.Errorf("Node.Name = %q, want %q", cfg.Node.Name, "kitchen-node")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.MQTT.ControllerIndex != 2 {
		t.Errorf("MQTT.ControllerIndex = %d, want 2", cfg.MQTT.ControllerIndex)
	}
	if !cfg.Rules.AllowValueSetAllKinds {
		t.Error("Rules.AllowValueSetAllKinds = false, want true")
	}
	if len(cfg.Tasks) != 1 || cfg.Tasks[0].Index != 3 || len(cfg.Tasks[0].Values) != 2 {
		t.Fatalf("Tasks = %+v, want one task at index 3 with 2 values", cfg.Tasks)
	}
	if cfg.Tasks[0].Values[0].Decimals != 2 {
		t.Errorf("Values[0].Decimals = %d, want 2", cfg.Tasks[0].Values[0].Decimals)
	}

	// Defaults kept where the file is silent
	if cfg.MQTT.PublishTopic == "" {
		t.Error("MQTT.PublishTopic should keep its default")
	}
}

func TestLoad_InterfaceDefaults(t *testing.T) {
	content := `
interfaces:
  - name: "wlan0"
    connect_cooldown: 5s
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	iface := cfg.Interfaces[0]
	if iface.ConnectCooldown != 5*time.Second {
		t.Errorf("ConnectCooldown = %v, want 5s", iface.ConnectCooldown)
	}
	if iface.PollInterval != 100*time.Millisecond {
		t.Errorf("PollInterval = %v, want 100ms", iface.PollInterval)
	}
	if iface.StableAfter != time.Minute {
		t.Errorf("StableAfter = %v, want 1m", iface.StableAfter)
	}
	if iface.ResolvConf != "/etc/resolv.conf" {
		t.Errorf("ResolvConf = %q, want /etc/resolv.conf", iface.ResolvConf)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/node.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
node:
  name: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty node.name, got nil")
	}
}

// =============================================================================
// Validation Tests
// =============================================================================

func validConfig() *Config {
	return &Config{
		Node: NodeConfig{Name: "node"},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{Port: 1883},
			QoS:    1,
		},
		Diagnostics: DiagnosticsConfig{Enabled: true, Port: 8090},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing node name",
			mutate:  func(c *Config) { c.Node.Name = "" },
			wantErr: "node.name",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "invalid broker port",
			mutate:  func(c *Config) { c.MQTT.Broker.Port = 0 },
			wantErr: "mqtt.broker.port",
		},
		{
			name:    "invalid diagnostics port",
			mutate:  func(c *Config) { c.Diagnostics.Port = 70000 },
			wantErr: "diagnostics.port",
		},
		{
			name: "diagnostics port ignored when disabled",
			mutate: func(c *Config) {
				c.Diagnostics.Enabled = false
				c.Diagnostics.Port = 0
			},
		},
		{
			name:    "influx without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
		{
			name: "duplicate interface",
			mutate: func(c *Config) {
				c.Interfaces = []InterfaceConfig{{Name: "eth0"}, {Name: "eth0"}}
			},
			wantErr: "duplicated",
		},
		{
			name: "task name with topic characters",
			mutate: func(c *Config) {
				c.Tasks = []TaskConfig{{Index: 0, Name: "a/b", DeviceKind: 33}}
			},
			wantErr: "topic characters",
		},
		{
			name: "duplicate task index",
			mutate: func(c *Config) {
				c.Tasks = []TaskConfig{
					{Index: 1, Name: "One", DeviceKind: 33},
					{Index: 1, Name: "Two", DeviceKind: 33},
				}
			},
			wantErr: "tasks[1].index",
		},
		{
			name: "duplicate task name ignores case",
			mutate: func(c *Config) {
				c.Tasks = []TaskConfig{
					{Index: 1, Name: "Kitchen", DeviceKind: 33},
					{Index: 2, Name: "kitchen", DeviceKind: 33},
				}
			},
			wantErr: "tasks[1].name",
		},
		{
			name: "too many values",
			mutate: func(c *Config) {
				c.Tasks = []TaskConfig{{
					Index: 0, Name: "T", DeviceKind: 33,
					Values: make([]TaskValueConfig, MaxTaskValues+1),
				}}
			},
			wantErr: "at most",
		},
		{
			name: "missing device kind",
			mutate: func(c *Config) {
				c.Tasks = []TaskConfig{{Index: 0, Name: "T"}}
			},
			wantErr: "device_kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
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

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Node.Name = ""
	cfg.MQTT.QoS = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want error")
	}
	for _, want := range []string{"node.name", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, want it to contain %q", err, want)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_NODE_NAME", "env-node")
	t.Setenv("GRAYLOGIC_NODE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_NODE_MQTT_PORT", "8883")
	t.Setenv("GRAYLOGIC_NODE_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_NODE_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_NODE_DIAGNOSTICS_PORT", "9100")
	t.Setenv("GRAYLOGIC_NODE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("GRAYLOGIC_NODE_LOG_LEVEL", "debug")

	applyEnvOverrides(cfg)

	if cfg.Node.Name != "env-node" {
		t.Errorf("Node.Name = %q, want %q", cfg.Node.Name, "env-node")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.Diagnostics.Port != 9100 {
		t.Errorf("Diagnostics.Port = %d, want 9100", cfg.Diagnostics.Port)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestApplyEnvOverrides_BadPortIgnored(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("GRAYLOGIC_NODE_MQTT_PORT", "not-a-port")

	applyEnvOverrides(cfg)

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Node.Name == "" {
		t.Error("defaultConfig should have non-empty Node.Name")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if !cfg.MQTT.HandleCmd || !cfg.MQTT.HandleSet {
		t.Error("defaultConfig should handle cmd and set topics")
	}
	if cfg.Diagnostics.ListenAddr() != "127.0.0.1:8090" {
		t.Errorf("Diagnostics.ListenAddr() = %q, want 127.0.0.1:8090", cfg.Diagnostics.ListenAddr())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig should validate, got %v", err)
	}
}
