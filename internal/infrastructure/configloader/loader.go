package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "config/config.yaml"

// Storage backends.
const (
	StorageFile   = "file"
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port                string   `yaml:"port"`
	ReadTimeoutSeconds  int      `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int      `yaml:"writeTimeoutSeconds"`
	CORSOrigins         []string `yaml:"corsOrigins"`
	EnablePprof         bool     `yaml:"enablePprof"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig selects where custom networks and the selected network are kept.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// NodeConfig tunes requests sent to the active node.
type NodeConfig struct {
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RateLimitPerSecond   float64 `yaml:"rateLimitPerSecond"`
	RateLimitBurst       int     `yaml:"rateLimitBurst"`
}

// SessionConfig tunes the switch pipeline.
type SessionConfig struct {
	SettleDelayMillis    *int64 `yaml:"settleDelayMillis"`
	TaskTimeoutSeconds   int    `yaml:"taskTimeoutSeconds"`
	WalletPath           string `yaml:"walletPath"`
	AssetCacheTTLMinutes int    `yaml:"assetCacheTTLMinutes"`
}

// WalletConfig opens a wallet session at startup when AccountsFile is set.
type WalletConfig struct {
	AccountsFile string `yaml:"accountsFile"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	Node    NodeConfig    `yaml:"node"`
	Session SessionConfig `yaml:"session"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RequestTimeout returns the per-request node timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Node.RequestTimeoutMillis) * time.Millisecond
}

// SettleDelay returns the delay before post-switch refreshes.
func (c *Config) SettleDelay() time.Duration {
	if c.Session.SettleDelayMillis == nil {
		return 0
	}
	return time.Duration(*c.Session.SettleDelayMillis) * time.Millisecond
}

// TaskTimeout returns the timeout of a single background refresh.
func (c *Config) TaskTimeout() time.Duration {
	return time.Duration(c.Session.TaskTimeoutSeconds) * time.Second
}

// PathFromEnv returns CONFIG_PATH or DefaultPath.
func PathFromEnv() string {
	if p := strings.TrimSpace(os.Getenv("CONFIG_PATH")); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML configuration file from the given path and applies defaults.
// A missing file is not an error and yields the defaults.
func Load(path string, log *logrus.Logger) (*Config, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.WithField("path", path).Warn("Config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	}

	applyDefaults(&cfg, log)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config, log *logrus.Logger) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
		log.Debug("server.port not set, defaulting to :8080")
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 15
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageFile
	}
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Backend {
		case StorageFile:
			cfg.Storage.Path = "data/storage.json"
		case StorageSQLite:
			cfg.Storage.Path = "data/storage.db"
		}
		if cfg.Storage.Path != "" {
			log.WithField("path", cfg.Storage.Path).Debug("storage.path not set, using default")
		}
	}

	if cfg.Node.RequestTimeoutMillis <= 0 {
		cfg.Node.RequestTimeoutMillis = 10000
	}
	if cfg.Node.RateLimitPerSecond <= 0 {
		cfg.Node.RateLimitPerSecond = 20
	}
	if cfg.Node.RateLimitBurst <= 0 {
		cfg.Node.RateLimitBurst = 10
	}

	if cfg.Session.SettleDelayMillis == nil {
		d := int64(2000)
		cfg.Session.SettleDelayMillis = &d
	}
	if cfg.Session.TaskTimeoutSeconds <= 0 {
		cfg.Session.TaskTimeoutSeconds = 30
	}
	if cfg.Session.WalletPath == "" {
		cfg.Session.WalletPath = "/wallet"
	}
	if cfg.Session.AssetCacheTTLMinutes <= 0 {
		cfg.Session.AssetCacheTTLMinutes = 10
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageFile, StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("unsupported storage backend '%s'", c.Storage.Backend)
	}
	if c.Session.SettleDelayMillis != nil && *c.Session.SettleDelayMillis < 0 {
		return fmt.Errorf("session.settleDelayMillis cannot be negative")
	}
	return nil
}
