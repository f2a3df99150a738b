package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for a Gray Logic Node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node        NodeConfig        `yaml:"node"`
	Interfaces  []InterfaceConfig `yaml:"interfaces"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	Rules       RulesConfig       `yaml:"rules"`
	Tasks       []TaskConfig      `yaml:"tasks"`
	InfluxDB    InfluxDBConfig    `yaml:"influxdb"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	// Name is the system name, substituted for %sysname% in topics.
	Name string `yaml:"name"`

	// Unit is the unit number, substituted for %unit% in topics.
	Unit int `yaml:"unit"`
}

// InterfaceConfig describes a monitored network interface.
type InterfaceConfig struct {
	// Name is the OS interface name (e.g., "eth0").
	Name string `yaml:"name"`

	// DualStack enables tracking of IPv6 addresses.
	DualStack bool `yaml:"dual_stack"`

	// ConnectCooldown is the minimum time between connect attempts.
	// Default: 10s
	ConnectCooldown time.Duration `yaml:"connect_cooldown"`

	// PollInterval is how often pending link events are consumed.
	// Default: 100ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// StableAfter is the uptime after which a link is considered stable.
	// Default: 60s
	StableAfter time.Duration `yaml:"stable_after"`

	// WatchInterval is how often the OS interface table is sampled.
	// Default: 1s
	WatchInterval time.Duration `yaml:"watch_interval"`

	// ResolvConf is the resolver file nameservers are read from.
	// Default: /etc/resolv.conf
	ResolvConf string `yaml:"resolv_conf"`
}

// MQTTConfig contains MQTT broker connection and topic settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// ControllerIndex is this broker connection's controller id.
	// Tasks select controllers by this index.
	ControllerIndex int `yaml:"controller_index"`

	// SubscribeTopic is the inbound topic filter (placeholders allowed).
	SubscribeTopic string `yaml:"subscribe_topic"`

	// PublishTopic is the outbound topic template for task values.
	PublishTopic string `yaml:"publish_topic"`

	// LWTTopic is the node status topic (placeholders allowed).
	LWTTopic string `yaml:"lwt_topic"`

	// Retain sets the retain flag on published values.
	Retain bool `yaml:"retain"`

	// HandleCmd enables "<prefix>/cmd" topics.
	HandleCmd bool `yaml:"handle_cmd"`

	// HandleSet enables "<prefix>/<task>/<value>/set" topics.
	HandleSet bool `yaml:"handle_set"`

	// TryRemoteConfig allows inbound commands to change remote configuration.
	TryRemoteConfig bool `yaml:"try_remote_config"`

	Discovery MQTTDiscoveryConfig `yaml:"discovery"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// MQTTDiscoveryConfig contains automation-platform discovery settings.
type MQTTDiscoveryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Topic is the discovery base topic (placeholders allowed).
	// Discovery is skipped when empty.
	Topic string `yaml:"topic"`
}

// RulesConfig contains rule engine settings.
type RulesConfig struct {
	// Enabled controls whether inbound events are queued for rules.
	Enabled bool `yaml:"enabled"`

	// AllowValueSetAllKinds permits TaskValueSet on every device kind
	// except event receivers.
	AllowValueSetAllKinds bool `yaml:"allow_value_set_all_kinds"`

	// QueueSize bounds the pending event queue. 0 means unbounded.
	QueueSize int `yaml:"queue_size"`
}

// TaskConfig describes one configured task.
type TaskConfig struct {
	// Index is the 0-based task slot.
	Index int `yaml:"index"`

	Name string `yaml:"name"`

	// DeviceKind is the numeric plugin identifier backing the task.
	DeviceKind int `yaml:"device_kind"`

	// ValueKind is the declared semantic type (e.g., "temp_hum", "switch").
	ValueKind string `yaml:"value_kind"`

	Enabled bool `yaml:"enabled"`

	// Controllers lists the controller indices the task reports to.
	Controllers []int `yaml:"controllers"`

	// ValueHints are per-value semantic type overrides used for discovery.
	ValueHints []string `yaml:"value_hints"`

	Values []TaskValueConfig `yaml:"values"`
}

// TaskValueConfig describes one value of a task.
type TaskValueConfig struct {
	// Name is the display name. Empty hides the value from publishing.
	Name string `yaml:"name"`

	Decimals int `yaml:"decimals"`

	// Format is the value format hint (3 = string, 4 = enumeration).
	Format int `yaml:"format"`

	// EnumLabels is the ordered, comma-separated enumeration label list.
	EnumLabels string `yaml:"enum_labels"`

	Unit string `yaml:"unit"`

	// Initial is the starting value.
	Initial float64 `yaml:"initial"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DiagnosticsConfig contains the diagnostics HTTP server settings.
type DiagnosticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_NODE_SECTION_KEY
// For example: GRAYLOGIC_NODE_MQTT_HOST, GRAYLOGIC_NODE_DIAGNOSTICS_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyInterfaceDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			Name: "graylogic-node",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			SubscribeTopic: "%sysname%/#",
			PublishTopic:   "%sysname%/%tskname%/%valname%",
			LWTTopic:       "%sysname%/LWT",
			HandleCmd:      true,
			HandleSet:      true,
			Discovery: MQTTDiscoveryConfig{
				Topic: "homeassistant/%devclass%/%sysname%_%tskname%_%valname%/config",
			},
		},
		Rules: RulesConfig{
			Enabled:   true,
			QueueSize: 64,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyInterfaceDefaults fills unset per-interface timing fields.
func (c *Config) applyInterfaceDefaults() {
	for i := range c.Interfaces {
		iface := &c.Interfaces[i]
		if iface.ConnectCooldown == 0 {
			iface.ConnectCooldown = 10 * time.Second
		}
		if iface.PollInterval == 0 {
			iface.PollInterval = 100 * time.Millisecond
		}
		if iface.StableAfter == 0 {
			iface.StableAfter = 60 * time.Second
		}
		if iface.WatchInterval == 0 {
			iface.WatchInterval = time.Second
		}
		if iface.ResolvConf == "" {
			iface.ResolvConf = "/etc/resolv.conf"
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_NODE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYLOGIC_NODE_NAME"); v != "" {
		cfg.Node.Name = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Diagnostics
	if v := os.Getenv("GRAYLOGIC_NODE_DIAGNOSTICS_HOST"); v != "" {
		cfg.Diagnostics.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_DIAGNOSTICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Diagnostics.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_NODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("GRAYLOGIC_NODE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
// All problems are collected and reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Node.Name == "" {
		errs = append(errs, "node.name is required")
	}

	seenIface := make(map[string]bool, len(c.Interfaces))
	for i, iface := range c.Interfaces {
		if iface.Name == "" {
			errs = append(errs, fmt.Sprintf("interfaces[%d].name is required", i))
			continue
		}
		if seenIface[iface.Name] {
			errs = append(errs, fmt.Sprintf("interfaces[%d].name %q is duplicated", i, iface.Name))
		}
		seenIface[iface.Name] = true
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.ControllerIndex < 0 {
		errs = append(errs, "mqtt.controller_index must not be negative")
	}

	if c.Rules.QueueSize < 0 {
		errs = append(errs, "rules.queue_size must not be negative")
	}

	errs = append(errs, c.validateTasks()...)

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Diagnostics.Enabled && (c.Diagnostics.Port < 1 || c.Diagnostics.Port > 65535) {
		errs = append(errs, "diagnostics.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// MaxTaskValues is the number of value slots per task.
const MaxTaskValues = 4

func (c *Config) validateTasks() []string {
	var errs []string

	seenIndex := make(map[int]bool, len(c.Tasks))
	seenName := make(map[string]bool, len(c.Tasks))

	for i, t := range c.Tasks {
		prefix := fmt.Sprintf("tasks[%d]", i)

		if t.Index < 0 {
			errs = append(errs, prefix+".index must not be negative")
		} else if seenIndex[t.Index] {
			errs = append(errs, fmt.Sprintf("%s.index %d is duplicated", prefix, t.Index))
		}
		seenIndex[t.Index] = true

		switch {
		case t.Name == "":
			errs = append(errs, prefix+".name is required")
		case strings.ContainsAny(t.Name, "/#+"):
			errs = append(errs, prefix+".name must not contain MQTT topic characters")
		case seenName[strings.ToLower(t.Name)]:
			errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", prefix, t.Name))
		}
		seenName[strings.ToLower(t.Name)] = true

		if t.DeviceKind <= 0 {
			errs = append(errs, prefix+".device_kind must be positive")
		}

		if len(t.Values) > MaxTaskValues {
			errs = append(errs, fmt.Sprintf("%s.values must have at most %d entries", prefix, MaxTaskValues))
		}
		if len(t.ValueHints) > MaxTaskValues {
			errs = append(errs, fmt.Sprintf("%s.value_hints must have at most %d entries", prefix, MaxTaskValues))
		}

		for j, v := range t.Values {
			if v.Decimals < 0 || v.Decimals > 6 {
				errs = append(errs, fmt.Sprintf("%s.values[%d].decimals must be between 0 and 6", prefix, j))
			}
		}
	}

	return errs
}

// ListenAddr returns the diagnostics server listen address.
func (d DiagnosticsConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}
