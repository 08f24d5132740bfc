// Package config loads the bridge configuration: the data source catalog,
// transfer sizes, limits and logging.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/kndndrj/dbeelink/core"
	"github.com/kndndrj/dbeelink/core/host"
)

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "DBEELINK_CONFIG"

var (
	ErrInvalidConfig = errors.New("invalid config")
	logLevels        = []string{"debug", "info", "warn", "error"}
)

// Source is one entry of the data source catalog.
type Source struct {
	Driver string `yaml:"driver"`
	// URL is expanded with .User, .Password and the env/exec helpers
	URL string `yaml:"url"`
}

// Config represents the config.yaml file.
type Config struct {
	ConnectionChunk int               `yaml:"connection_chunk"`
	ValueChunk      int               `yaml:"value_chunk"`
	MaxConnections  int               `yaml:"max_connections"`
	Timezone        string            `yaml:"timezone"`
	LogFile         string            `yaml:"log_file"`
	LogLevel        string            `yaml:"log_level"`
	Sources         map[string]Source `yaml:"sources"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		ConnectionChunk: core.DefaultConnectionChunk,
		ValueChunk:      core.DefaultValueChunk,
		Timezone:        "UTC",
		LogLevel:        "info",
		Sources:         map[string]Source{},
	}
}

// Dir returns the path to ~/.config/dbeelink/.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dbeelink")
}

// Path returns the config file location: the explicit path, then
// $DBEELINK_CONFIG, then the default file.
func Path(explicit string) (path string, isDefault bool) {
	if explicit != "" {
		return explicit, false
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, false
	}
	return filepath.Join(Dir(), "config.yaml"), true
}

// Load reads the config file. A missing default file yields the defaults, a
// missing explicit file is an error.
func Load(explicit string) (*Config, error) {
	path, isDefault := Path(explicit)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && isDefault {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes a config document over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Sources == nil {
		cfg.Sources = map[string]Source{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ConnectionChunk < 1 {
		return fmt.Errorf("%w: connection_chunk must be positive, got %d", ErrInvalidConfig, c.ConnectionChunk)
	}
	if c.ValueChunk < 1 {
		return fmt.Errorf("%w: value_chunk must be positive, got %d", ErrInvalidConfig, c.ValueChunk)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("%w: max_connections must not be negative, got %d", ErrInvalidConfig, c.MaxConnections)
	}
	if c.MaxConnections%c.ConnectionChunk != 0 {
		return fmt.Errorf("%w: max_connections (%d) must be a multiple of connection_chunk (%d)",
			ErrInvalidConfig, c.MaxConnections, c.ConnectionChunk)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: timezone: %s", ErrInvalidConfig, err)
	}

	level := strings.ToLower(c.LogLevel)
	valid := false
	for _, l := range logLevels {
		if l == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: log_level %q is not one of %s", ErrInvalidConfig, c.LogLevel, strings.Join(logLevels, ", "))
	}

	for name, src := range c.Sources {
		if src.Driver == "" {
			return fmt.Errorf("%w: source %q has no driver", ErrInvalidConfig, name)
		}
	}

	return nil
}

// Location returns the session time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SourceParams returns the catalog ordered by name.
func (c *Config) SourceParams() []*core.SourceParams {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]*core.SourceParams, len(names))
	for i, name := range names {
		src := c.Sources[name]
		params[i] = &core.SourceParams{
			Name:   name,
			Driver: src.Driver,
			URL:    src.URL,
		}
	}
	return params
}

// RegistryOptions returns the connection table settings.
func (c *Config) RegistryOptions(logger core.Logger) []core.RegistryOption {
	return []core.RegistryOption{
		core.WithConnectionChunk(c.ConnectionChunk),
		core.WithMaxSlots(c.MaxConnections),
		core.WithRegistryLogger(logger),
	}
}

// StatementOptions returns the per statement settings. Zone-less timestamps
// are read in the configured time zone.
func (c *Config) StatementOptions() []core.StatementOption {
	return []core.StatementOption{
		core.WithValueChunk(c.ValueChunk),
		core.WithParser(host.NewParser(host.WithLocation(c.Location()))),
	}
}
