// Package config loads the teachbuttond daemon configuration with the
// precedence env > file > defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Env variable names recognised by Load.
const (
	EnvInterface      = "TEACHBTN_INTERFACE"
	EnvBitrate        = "TEACHBTN_BITRATE"
	EnvLogLevel       = "TEACHBTN_LOG_LEVEL"
	EnvControllerHook = "TEACHBTN_CONTROLLER_HOOK"
	EnvHookTimeout    = "TEACHBTN_HOOK_TIMEOUT"
)

// Duration wraps time.Duration with YAML support for strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the daemon configuration.
type Config struct {
	// Interface is the SocketCAN interface the pendant is attached to.
	Interface string `yaml:"interface"`

	// Bitrate, when non-zero, is applied to the interface at startup.
	// Requires CAP_NET_ADMIN.
	Bitrate uint32 `yaml:"bitrate"`

	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string `yaml:"log_level"`

	// ControllerHook is an executable invoked as
	//   hook start-record|stop-record|start-replay <trajectory>
	// exit status 0 means the controller accepted the switch. Empty means
	// the daemon runs as a pure monitor.
	ControllerHook string `yaml:"controller_hook"`

	// HookTimeout bounds start-record/stop-record hook runs. Zero means
	// no limit. Replay hooks are never bounded; they block for the
	// duration of the replay.
	HookTimeout Duration `yaml:"hook_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Interface:   "can0",
		LogLevel:    "info",
		HookTimeout: Duration(30 * time.Second),
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in increasing precedence. Unknown file keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvInterface); v != "" {
		cfg.Interface = v
	}
	if v := os.Getenv(EnvBitrate); v != "" {
		bitrate, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvBitrate, err)
		}
		cfg.Bitrate = uint32(bitrate)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvControllerHook); v != "" {
		cfg.ControllerHook = v
	}
	if v := os.Getenv(EnvHookTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvHookTimeout, err)
		}
		cfg.HookTimeout = Duration(d)
	}
	return nil
}

func (c Config) validate() error {
	if c.Interface == "" {
		return fmt.Errorf("config: interface must not be empty")
	}
	if c.HookTimeout < 0 {
		return fmt.Errorf("config: hook_timeout must not be negative")
	}
	return nil
}
