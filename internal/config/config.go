// Package config loads delegate's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	DriverFile     = "file"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	defaultConfigDir  = ".delegate"
	defaultConfigFile = "config.yaml"

	// Defaults
	DefaultHTTPAddr        = ":3000"
	DefaultStoreDir        = ".delegate"
	DefaultMaxOpenConns    = 20
	DefaultMaxIdleConns    = 5
	DefaultConnMaxIdleTime = 30 * time.Second
)

// Config is the full configuration
type Config struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level,omitempty"`
	LogFile  string `yaml:"log_file,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`

	HTTP  HTTPConfig  `yaml:"http"`
	Store StoreConfig `yaml:"store"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Driver          string        `yaml:"driver"`
	Dir             string        `yaml:"dir,omitempty"`
	DSN             string        `yaml:"dsn,omitempty"`
	MaxOpenConns    int           `yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int           `yaml:"max_idle_conns,omitempty"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time,omitempty"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Env: EnvLocal,
		HTTP: HTTPConfig{
			Addr: DefaultHTTPAddr,
		},
		Store: StoreConfig{
			Driver:          DriverFile,
			Dir:             DefaultStoreDir,
			MaxOpenConns:    DefaultMaxOpenConns,
			MaxIdleConns:    DefaultMaxIdleConns,
			ConnMaxIdleTime: DefaultConnMaxIdleTime,
		},
	}
}

// DefaultPath returns $HOME/.delegate/config.yaml
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, defaultConfigDir, defaultConfigFile)
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays DELEGATE_* variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"DELEGATE_ENV", &c.Env},
		{"DELEGATE_HTTP_ADDR", &c.HTTP.Addr},
		{"DELEGATE_STORE_DRIVER", &c.Store.Driver},
		{"DELEGATE_STORE_DIR", &c.Store.Dir},
		{"DELEGATE_STORE_DSN", &c.Store.DSN},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.key); ok && v != "" {
			*o.dst = v
		}
	}
}

// Validate checks field values
func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("invalid env: %s (must be local|dev|prod)", c.Env)
	}

	switch c.Store.Driver {
	case DriverFile:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the file driver")
		}
	case DriverSQLite, DriverPostgres, DriverMySQL:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("invalid store.driver: %s (must be file|sqlite3|postgres|mysql)", c.Store.Driver)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured zone, or time.Local when unset
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Save writes the configuration to path, creating its directory
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
