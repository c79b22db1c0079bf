package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TransportMQTT = "mqtt"
	TransportNATS = "nats"

	defaultClientIDSeed = "ha-scenes"
)

type Config struct {
	Instance  string          `json:"instance"`
	Transport string          `json:"transport"` // mqtt or nats
	MQTT      MQTTConfig      `json:"mqtt"`
	NATS      NATSConfig      `json:"nats"`
	Reconnect ReconnectConfig `json:"reconnect"`
	Catalog   CatalogConfig   `json:"catalog"`
	Logging   LogConfig       `json:"logging"`
	Metrics   MetricsConfig   `json:"metrics"`
}

type MQTTConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	ClientID string `json:"clientId"` // seed, a random suffix is appended on load
	Username string `json:"username"`
	Password string `json:"password"`
	TLS      struct {
		Enable   bool   `json:"enable"`
		CertFile string `json:"certFile"`
		KeyFile  string `json:"keyFile"`
		CAFile   string `json:"caFile"`
	} `json:"tls"`
}

type NATSConfig struct {
	URL string `json:"url"`
}

type ReconnectConfig struct {
	Delay          string `json:"delay"`          // Duration string
	MaxAttempts    int    `json:"maxAttempts"`    // 0 = retry forever
	ConnectTimeout string `json:"connectTimeout"` // Duration string
}

type CatalogConfig struct {
	Path string `json:"path"` // file or directory of .json/.yaml catalogs
}

type LogConfig struct {
	Level      string `json:"level"`      // debug, info, warn, error
	OutputPath string `json:"outputPath"` // file path or "stdout"
	Encoding   string `json:"encoding"`   // json or console
	Directory  string `json:"directory"`  // optional rotating log directory
	MaxSize    int    `json:"maxSize"`    // megabytes
	MaxAge     int    `json:"maxAge"`     // days
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled        bool   `json:"enabled"`
	Address        string `json:"address"`
	Path           string `json:"path"`
	UpdateInterval string `json:"updateInterval"` // Duration string
}

// ConfigError reports a missing or malformed configuration value. It is
// always fatal at startup.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Load reads the optional configuration file at path, applies environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with a caller-supplied environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	config.setDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.MQTT.ClientID = fmt.Sprintf("%s-%s", config.MQTT.ClientID, clientSuffix())
	return &config, nil
}

// ApplyEnv overrides file values with the bridge's environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: key, Message: fmt.Sprintf("not an integer: %q", v)}
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: key, Message: fmt.Sprintf("not a boolean: %q", v)}
		}
		*dst = b
		return nil
	}

	str("INSTANCE_NAME", &c.Instance)
	str("BRIDGE_TRANSPORT", &c.Transport)
	str("MQTT_HOST", &c.MQTT.Host)
	str("MQTT_USERNAME", &c.MQTT.Username)
	str("MQTT_PASSWORD", &c.MQTT.Password)
	str("MQTT_CLIENT_ID", &c.MQTT.ClientID)
	str("NATS_URL", &c.NATS.URL)
	str("RECONNECT_DELAY", &c.Reconnect.Delay)
	str("CONNECT_TIMEOUT", &c.Reconnect.ConnectTimeout)
	str("CATALOG_PATH", &c.Catalog.Path)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_ENCODING", &c.Logging.Encoding)
	str("LOG_DIR", &c.Logging.Directory)
	str("METRICS_ADDRESS", &c.Metrics.Address)

	if err := num("MQTT_PORT", &c.MQTT.Port); err != nil {
		return err
	}
	if err := num("RECONNECT_MAX_ATTEMPTS", &c.Reconnect.MaxAttempts); err != nil {
		return err
	}
	return flag("METRICS_ENABLED", &c.Metrics.Enabled)
}

func (c *Config) setDefaults() {
	if c.Transport == "" {
		c.Transport = TransportMQTT
	}
	c.Transport = strings.ToLower(c.Transport)

	if c.MQTT.Host == "" {
		c.MQTT.Host = "localhost"
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = defaultClientIDSeed
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://localhost:4222"
	}

	if c.Reconnect.Delay == "" {
		c.Reconnect.Delay = "5s"
	}
	if c.Reconnect.ConnectTimeout == "" {
		c.Reconnect.ConnectTimeout = "4s"
	}

	if c.Catalog.Path == "" {
		c.Catalog.Path = "catalog"
	}

	// Set defaults for logging
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.OutputPath == "" {
		c.Logging.OutputPath = "stdout"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "json"
	}
	if c.Logging.MaxSize <= 0 {
		c.Logging.MaxSize = 10
	}
	if c.Logging.MaxAge <= 0 {
		c.Logging.MaxAge = 7
	}

	// Set defaults for metrics
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":2112"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.UpdateInterval == "" {
		c.Metrics.UpdateInterval = "15s"
	}
}

// Validate performs validation of all configuration values
func (c *Config) Validate() error {
	if c.Instance == "" {
		return &ConfigError{Field: "INSTANCE_NAME", Message: "instance name is required"}
	}

	switch c.Transport {
	case TransportMQTT:
		if c.MQTT.Host == "" {
			return &ConfigError{Field: "MQTT_HOST", Message: "broker host is required"}
		}
		if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
			return &ConfigError{Field: "MQTT_PORT", Message: fmt.Sprintf("port out of range: %d", c.MQTT.Port)}
		}
		if c.MQTT.TLS.Enable {
			if c.MQTT.TLS.CertFile == "" {
				return &ConfigError{Field: "mqtt.tls.certFile", Message: "required when tls is enabled"}
			}
			if c.MQTT.TLS.KeyFile == "" {
				return &ConfigError{Field: "mqtt.tls.keyFile", Message: "required when tls is enabled"}
			}
			if c.MQTT.TLS.CAFile == "" {
				return &ConfigError{Field: "mqtt.tls.caFile", Message: "required when tls is enabled"}
			}
		}
	case TransportNATS:
		if c.NATS.URL == "" {
			return &ConfigError{Field: "NATS_URL", Message: "server url is required"}
		}
	default:
		return &ConfigError{Field: "BRIDGE_TRANSPORT", Message: fmt.Sprintf("unknown transport: %s", c.Transport)}
	}

	if d, err := time.ParseDuration(c.Reconnect.Delay); err != nil || d <= 0 {
		return &ConfigError{Field: "RECONNECT_DELAY", Message: fmt.Sprintf("invalid duration: %q", c.Reconnect.Delay)}
	}
	if d, err := time.ParseDuration(c.Reconnect.ConnectTimeout); err != nil || d <= 0 {
		return &ConfigError{Field: "CONNECT_TIMEOUT", Message: fmt.Sprintf("invalid duration: %q", c.Reconnect.ConnectTimeout)}
	}
	if c.Reconnect.MaxAttempts < 0 {
		return &ConfigError{Field: "RECONNECT_MAX_ATTEMPTS", Message: "must not be negative"}
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "LOG_LEVEL", Message: fmt.Sprintf("invalid log level: %s", c.Logging.Level)}
	}

	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return &ConfigError{Field: "LOG_ENCODING", Message: fmt.Sprintf("invalid log encoding: %s", c.Logging.Encoding)}
	}

	// Validate metrics config
	if c.Metrics.Enabled {
		if _, err := time.ParseDuration(c.Metrics.UpdateInterval); err != nil {
			return &ConfigError{Field: "metrics.updateInterval", Message: err.Error()}
		}
	}

	return nil
}

// BrokerURL returns the MQTT broker address in paho's scheme://host:port form.
func (c *MQTTConfig) BrokerURL() string {
	scheme := "tcp"
	if c.TLS.Enable {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// ReconnectDelay returns the fixed delay between reconnect attempts.
func (c *ReconnectConfig) ReconnectDelay() time.Duration {
	d, _ := time.ParseDuration(c.Delay)
	return d
}

// Timeout returns the bound on a single connect attempt.
func (c *ReconnectConfig) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.ConnectTimeout)
	return d
}

// ApplyOverrides applies command line flag overrides to the configuration
func (c *Config) ApplyOverrides(catalogPath, metricsAddr string, reconnectDelay time.Duration) {
	if catalogPath != "" {
		c.Catalog.Path = catalogPath
	}
	if metricsAddr != "" {
		c.Metrics.Address = metricsAddr
	}
	if reconnectDelay > 0 {
		c.Reconnect.Delay = reconnectDelay.String()
	}
}

func clientSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
