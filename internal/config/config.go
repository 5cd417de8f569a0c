// Package config loads and validates monitor configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// SupportedVersion is the only configuration layout understood.
const SupportedVersion = 1

// keyDelimiter replaces Viper's default "." so dotted monitor names such as
// "etl.load" stay single keys instead of nesting.
const keyDelimiter = "::"

// ErrUnsupportedVersion is returned for any version other than SupportedVersion.
var ErrUnsupportedVersion = errors.New("unsupported configuration version")

// Config captures the monitor definitions and the knobs of the CLI.
type Config struct {
	Version  int                       `mapstructure:"version"`
	Logging  LoggingConfig             `mapstructure:"logging"`
	Server   ServerConfig              `mapstructure:"server"`
	Monitors map[string]map[string]any `mapstructure:"monitors"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// ServerConfig controls the optional status server.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// SearchPaths are the directories scanned for a "progress.{yaml,json,toml}"
// file when Load is given no explicit path.
var SearchPaths = []string{".", "$HOME/.progress-monitor", "/etc/progress-monitor"}

// Load builds a Config from disk/environment. Without a path the first
// "progress" file found in SearchPaths is used, if any. Monitor names are
// case-insensitive; they are lower-cased like every other key.
func Load(path string) (Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetEnvPrefix("PROGRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("progress")
		for _, dir := range SearchPaths {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Parse builds a Config from an in-memory mapping, for callers that
// assemble configuration in code. A missing version defaults to 1.
func Parse(raw map[string]any) (Config, error) {
	cfg := Config{Version: SupportedVersion}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, fmt.Errorf("build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", SupportedVersion)
	v.SetDefault("logging"+keyDelimiter+"development", true)
	v.SetDefault("logging"+keyDelimiter+"level", "")
	v.SetDefault("server"+keyDelimiter+"listen", "")
}

// Validate enforces the supported version and well-formed monitor names.
func (c Config) Validate() error {
	if c.Version != SupportedVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, c.Version)
	}
	for name := range c.Monitors {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("monitors: name must not be empty")
		}
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
			return fmt.Errorf("monitors: malformed name %q", name)
		}
	}
	return nil
}

// MonitorNames returns the configured monitor names.
func (c Config) MonitorNames() []string {
	names := make([]string, 0, len(c.Monitors))
	for name := range c.Monitors {
		names = append(names, name)
	}
	return names
}
