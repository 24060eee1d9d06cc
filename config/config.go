// Package config centralizes the device-side configuration consumed by the
// registration and service layers: HTTP timeouts, TLS policy, and the
// device attributes merged into every initiate/finalize payload.
package config

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config is the device's MFA client configuration.
type Config struct {
	HTTP struct {
		TimeoutSeconds int  `json:"timeout_seconds"`
		TLSInsecure    bool `json:"tls_insecure"` // loaded but not read by other packages; TLS bypass follows the on-premise ignoreSslCerts option
	} `json:"http"`

	Device struct {
		ApplicationName string            `json:"application_name"`
		PushToken       string            `json:"push_token"`
		Attributes      map[string]string `json:"attributes"`
	} `json:"device"`

	Logging struct {
		Directory  string `json:"directory"`
		MaxSize    int64  `json:"max_size"`
		MaxBackups int    `json:"max_backups"`
	} `json:"logging"`

	DebugMode bool `json:"debug_mode"`
}

// HTTPTimeout returns the configured HTTP timeout as a time.Duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// DeviceAttributesMinusApplicationName returns Device.Attributes with the
// applicationName key stripped, per spec §4.4/§4.5 ("<device attributes
// minus applicationName>").
func (c *Config) DeviceAttributesMinusApplicationName() map[string]string {
	out := make(map[string]string, len(c.Device.Attributes))
	for k, v := range c.Device.Attributes {
		if k == "applicationName" {
			continue
		}
		out[k] = v
	}
	return out
}

// Load loads configuration from environment variables and an optional
// local .env file. Safe to call multiple times; only the first call takes
// effect.
func Load() (*Config, error) {
	var err error
	configOnce.Do(func() {
		config = &Config{}
		loadDefaults(config)

		// Best-effort: a missing .env file is not an error.
		_ = godotenv.Load()

		if loadErr := loadEnv(config); loadErr != nil {
			err = loadErr
			return
		}

		if path := os.Getenv("MFA_CONFIG_FILE"); path != "" {
			if loadErr := loadJSONFile(config, path); loadErr != nil {
				err = loadErr
				return
			}
		}
	})

	if err != nil {
		return nil, err
	}
	return config, nil
}

func loadDefaults(cfg *Config) {
	cfg.HTTP.TimeoutSeconds = 30
	cfg.Device.ApplicationName = "mfa-core"
	cfg.Device.Attributes = map[string]string{}
	cfg.Logging.Directory = "logs"
	cfg.Logging.MaxSize = 10 * 1024 * 1024
	cfg.Logging.MaxBackups = 5
}

func loadEnv(cfg *Config) error {
	if name := os.Getenv("MFA_APPLICATION_NAME"); name != "" {
		cfg.Device.ApplicationName = name
	}
	if token := os.Getenv("MFA_PUSH_TOKEN"); token != "" {
		cfg.Device.PushToken = token
	}
	if debug := os.Getenv("MFA_DEBUG"); debug == "true" || debug == "1" {
		cfg.DebugMode = true
	}
	if insecure := os.Getenv("MFA_TLS_INSECURE"); insecure == "true" || insecure == "1" {
		cfg.HTTP.TLSInsecure = true
	}
	return nil
}

func loadJSONFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

// Get returns the loaded configuration, loading it with defaults if this
// is the first access.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Defaults never fail to load; an error here means a malformed
		// MFA_CONFIG_FILE, which we surface by falling back to defaults
		// rather than panicking a caller mid-registration.
		fallback := &Config{}
		loadDefaults(fallback)
		return fallback
	}
	return cfg
}

// ResetForTest clears the singleton so tests can reload configuration.
func ResetForTest() {
	configOnce = sync.Once{}
	config = nil
}
