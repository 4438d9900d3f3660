// Package config loads and validates the band's caremini.yml.
//
// Precedence: environment overrides > config file > built-in defaults.
// The merged result is unified against an embedded CUE schema and then
// checked by Validate before anything boots on it.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// advertisingNameBudget caps the device name so it fits an advertising
// payload.
const advertisingNameBudget = 32

// Config represents the top-level caremini.yml configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device" json:"device"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Link    LinkConfig    `yaml:"link" json:"link"`
	Audio   AudioConfig   `yaml:"audio" json:"audio"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// DeviceConfig names the band.
type DeviceConfig struct {
	Name string `yaml:"name" json:"name"`
}

// StorageConfig locates the snapshot database.
type StorageConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LinkConfig points at the Redis server standing in for the radio.
// An empty address runs the band on the loopback link.
type LinkConfig struct {
	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`
	RedisDB   int    `yaml:"redis_db" json:"redis_db"`
}

// AudioConfig switches the sounder between the audio device and a logged
// pin.
type AudioConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// ParseLevel maps the configured level onto slog.
func (c LogConfig) ParseLevel() (slog.Level, error) {
	switch c.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %q", c.Level)
	}
}

// defaults returns the built-in configuration.
func defaults() *Config {
	return &Config{
		Device:  DeviceConfig{Name: "caremini"},
		Storage: StorageConfig{Path: "caremini.db"},
		Link:    LinkConfig{RedisAddr: "", RedisDB: 0},
		Audio:   AudioConfig{Enabled: false},
		Log:     LogConfig{Level: "info"},
	}
}

// Default builds a validated configuration without a config file.
// Environment overrides still apply.
func Default() (*Config, error) {
	return finish(defaults())
}

// Load reads and validates the configuration at path. Absent keys keep
// their defaults; environment overrides win over the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateSchema(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays CAREMINI_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("CAREMINI_DEVICE_NAME"); ok {
		cfg.Device.Name = v
	}
	if v, ok := os.LookupEnv("CAREMINI_DB_PATH"); ok {
		cfg.Storage.Path = v
	}
	if v, ok := os.LookupEnv("CAREMINI_REDIS_ADDR"); ok {
		cfg.Link.RedisAddr = v
	}
	if v, ok := os.LookupEnv("CAREMINI_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CAREMINI_REDIS_DB: %w", err)
		}
		cfg.Link.RedisDB = n
	}
	if v, ok := os.LookupEnv("CAREMINI_AUDIO"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CAREMINI_AUDIO: %w", err)
		}
		cfg.Audio.Enabled = b
	}
	if v, ok := os.LookupEnv("CAREMINI_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	return nil
}

// validateSchema unifies cfg with the embedded CUE schema.
func validateSchema(cfg *Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	val := ctx.Encode(cfg)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// Validate performs the checks the schema cannot express.
func (c *Config) Validate() error {
	if len(c.Device.Name) > advertisingNameBudget {
		return fmt.Errorf("device name %q exceeds %d characters", c.Device.Name, advertisingNameBudget)
	}
	if _, err := c.Log.ParseLevel(); err != nil {
		return err
	}
	return nil
}
