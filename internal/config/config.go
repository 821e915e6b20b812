// Package config loads project settings from .slopwatch/config.yaml, with
// SLOPWATCH_* environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/slopwatch/slopwatch/internal/types"
)

// Dir is the per-project state directory name.
const Dir = ".slopwatch"

// Config is the project configuration. Everything has a working default;
// a project without a config file scans fine.
type Config struct {
	// DefaultLang is the language scanned when --lang is omitted.
	DefaultLang string `mapstructure:"default_lang"`

	// TargetStrict is the strict score the project is working toward.
	TargetStrict float64 `mapstructure:"target_strict"`

	// RequireAttestation makes fixed/wontfix resolutions demand a
	// verification attestation alongside the note.
	RequireAttestation bool `mapstructure:"require_attestation"`

	// Ignore holds finding patterns dropped at merge time.
	Ignore []string `mapstructure:"ignore"`

	// Exclude holds path patterns never handed to detectors.
	Exclude []string `mapstructure:"exclude"`

	// ZoneOverrides pins specific relative paths to a zone.
	ZoneOverrides map[string]string `mapstructure:"zone_overrides"`

	// PolicyPath points at a detector policy override file.
	PolicyPath string `mapstructure:"policy_path"`

	// AuditLog toggles the SQLite event log.
	AuditLog bool `mapstructure:"audit_log"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("default_lang", "")
	v.SetDefault("target_strict", 90.0)
	v.SetDefault("require_attestation", false)
	v.SetDefault("audit_log", true)
}

// Load reads the configuration for a project root. A missing config file is
// not an error; a malformed one is.
func Load(root string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(root, Dir))
	v.SetEnvPrefix("SLOPWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TargetStrict < 0 || c.TargetStrict > 100 {
		return fmt.Errorf("target_strict %.1f out of range [0, 100]", c.TargetStrict)
	}
	for path, zone := range c.ZoneOverrides {
		if !types.Zone(zone).IsValid() {
			return fmt.Errorf("zone override for %q names unknown zone %q", path, zone)
		}
	}
	return nil
}

// Zones converts the string overrides to typed zones. Call after Load, which
// has already rejected unknown zone names.
func (c *Config) Zones() map[string]types.Zone {
	if len(c.ZoneOverrides) == 0 {
		return nil
	}
	out := make(map[string]types.Zone, len(c.ZoneOverrides))
	for path, zone := range c.ZoneOverrides {
		out[path] = types.Zone(zone)
	}
	return out
}
