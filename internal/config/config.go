// Package config loads daemon and bridge settings with the precedence
// flags > environment > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"live2mcp/internal/protocol"
)

// FieldSource indicates where a config value originates.
type FieldSource string

const (
	SourceDefault    FieldSource = "default"
	SourceConfigFile FieldSource = "config.toml"
	SourceEnv        FieldSource = "env"
	SourceFlag       FieldSource = "flag"
)

var logLevels = []string{"debug", "info", "warn", "error"}
var logFormats = []string{"text", "json"}

type Config struct {
	Surface SurfaceConfig `toml:"surface"`
	Log     LogConfig     `toml:"log"`
}

type SurfaceConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// SnapshotPath enables song persistence when non-empty.
	SnapshotPath string `toml:"snapshot_path"`
	SnapshotKeep int    `toml:"snapshot_keep"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() Config {
	return Config{
		Surface: SurfaceConfig{
			Host:         protocol.DefaultHost,
			Port:         protocol.DefaultPort,
			SnapshotKeep: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Overrides holds CLI flag values. Only non-nil fields are applied.
type Overrides struct {
	Host *string
	Port *int
}

// Options controls Load. ConfigPath empty means the user config dir.
type Options struct {
	ConfigPath string
	Overrides  *Overrides
}

// Load builds config with precedence: defaults, config.toml, env vars,
// then CLI overrides.
func Load(opts Options) (Config, error) {
	if err := loadDotEnvPrecedence(); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := mergeFile(&cfg, opts.ConfigPath); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if opts.Overrides != nil {
		applyOverrides(&cfg, opts.Overrides)
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigPath returns the default path of the user's config.toml.
func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "live2mcp", "config.toml"), nil
}

// Addr renders the surface listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Surface.Host, c.Surface.Port)
}

// loadDotEnvPrecedence loads .env then .env.local without clobbering
// variables already present in the environment.
func loadDotEnvPrecedence() error {
	for _, name := range []string{".env", ".env.local"} {
		values, err := godotenv.Read(name)
		if err != nil {
			continue
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); !exists {
				if setErr := os.Setenv(k, v); setErr != nil {
					return setErr
				}
			}
		}
	}
	return nil
}

func mergeFile(cfg *Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("malformed config %s: %w", path, err)
	}
	return nil
}

func mergeEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("LIVE2MCP_HOST")); v != "" {
		cfg.Surface.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("LIVE2MCP_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LIVE2MCP_PORT %q is not a number: %w", v, err)
		}
		cfg.Surface.Port = port
	}
	if v := strings.TrimSpace(os.Getenv("LIVE2MCP_SNAPSHOT_PATH")); v != "" {
		cfg.Surface.SnapshotPath = v
	}
	if v := strings.TrimSpace(os.Getenv("LIVE2MCP_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LIVE2MCP_LOG_FORMAT")); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

func applyOverrides(cfg *Config, o *Overrides) {
	if o.Host != nil && *o.Host != "" {
		cfg.Surface.Host = *o.Host
	}
	if o.Port != nil && *o.Port != 0 {
		cfg.Surface.Port = *o.Port
	}
}

// Validate checks ranges and enum constraints.
func Validate(cfg *Config) error {
	if cfg.Surface.Host == "" {
		return fmt.Errorf("surface.host must not be empty")
	}
	if cfg.Surface.Port < 1 || cfg.Surface.Port > 65535 {
		return fmt.Errorf("surface.port %d out of range 1..65535", cfg.Surface.Port)
	}
	if cfg.Surface.SnapshotKeep < 1 {
		return fmt.Errorf("surface.snapshot_keep must be at least 1")
	}
	if !stringIn(cfg.Log.Level, logLevels) {
		return fmt.Errorf("log.level=%q; allowed: %s", cfg.Log.Level, strings.Join(logLevels, ", "))
	}
	if !stringIn(cfg.Log.Format, logFormats) {
		return fmt.Errorf("log.format=%q; allowed: %s", cfg.Log.Format, strings.Join(logFormats, ", "))
	}
	return nil
}

func stringIn(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
