// Package config loads the AoE target daemon's YAML configuration
// file, applies AOETARGETD_-prefixed environment overrides, and
// validates the result before the daemon starts serving.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "/etc/aoetargetd/config.yaml"

// defaultControlSocket is used when Config.ControlSocket is empty.
const defaultControlSocket = "/run/aoetargetd/control.sock"

// LoggingConfig controls the structured logger (internal/logger).
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// VolumeConfig describes one volume to register with the Registry at
// startup.
type VolumeConfig struct {
	Path      string   `mapstructure:"path" yaml:"path"`
	Shelf     uint16   `mapstructure:"shelf" yaml:"shelf"`
	Slot      uint8    `mapstructure:"slot" yaml:"slot"`
	Interface string   `mapstructure:"interface" yaml:"interface"`
	ReadOnly  bool     `mapstructure:"read_only" yaml:"read_only"`
	ACL       []string `mapstructure:"acl" yaml:"acl"`

	// Advertise enables the optional periodic CFG-read broadcast for
	// this volume (disabled by default; see Server.AdvertiseLoop).
	Advertise bool `mapstructure:"advertise" yaml:"advertise"`
}

// Config is the top-level daemon configuration.
type Config struct {
	Interface     string         `mapstructure:"interface" yaml:"interface"`
	ControlSocket string         `mapstructure:"control_socket" yaml:"control_socket"`
	MetricsAddr   string         `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Logging       LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Volumes       []VolumeConfig `mapstructure:"volumes" yaml:"volumes"`
}

// Load reads configPath (or DefaultConfigPath when empty), applies
// AOETARGETD_ environment overrides, fills in defaults, and validates
// the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToSliceHookFunc(","))); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ControlSocket: defaultControlSocket,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.ControlSocket == "" {
		cfg.ControlSocket = defaultControlSocket
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks the structural invariants Load depends on: a
// non-empty interface, every volume's slot within range, and every
// ACL entry a parseable MAC address.
//
// Slot is already a uint8 by construction, so "slot <= 255" from the
// spec's wording holds unconditionally; Validate instead rejects the
// configuration states that actually can go wrong: a missing
// interface, or an ACL entry that isn't a MAC address.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Interface) == "" {
		return fmt.Errorf("config: interface must not be empty")
	}

	for i, vol := range cfg.Volumes {
		if strings.TrimSpace(vol.Path) == "" {
			return fmt.Errorf("config: volumes[%d]: path must not be empty", i)
		}
		for _, mac := range vol.ACL {
			if _, err := net.ParseMAC(mac); err != nil {
				return fmt.Errorf("config: volumes[%d]: invalid ACL entry %q: %w", i, mac, err)
			}
		}
	}

	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("AOETARGETD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper already knows about, so the scalar
	// keys are bound explicitly for their overrides to apply even when
	// the config file does not mention them.
	for _, key := range []string{"interface", "control_socket", "metrics_addr", "logging.level", "logging.format"} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(DefaultConfigPath)
	}
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: failed to read config file: %w", err)
	}
	return true, nil
}

// Save writes cfg to path as YAML, for `aoetargetd add` to
// persist the registry entry it just created over the control socket.
func Save(cfg *Config, path string) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}
