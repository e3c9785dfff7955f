package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir  = "data"
	DefaultOutput   = "eval.gif"
	DefaultDelayMS  = 100
	DefaultWidth    = 640
	DefaultHeight   = 480
	DefaultWorkers  = 1
	DefaultSpace    = "position"
	DefaultLogLevel = "info"
)

type Config struct {
	DataDir  string `yaml:"data_dir" env:"DATA_DIR"`
	Catalog  string `yaml:"catalog" env:"CATALOG"`
	Output   string `yaml:"output" env:"OUTPUT"`
	DelayMS  int    `yaml:"delay_ms" env:"DELAY_MS"`
	Width    int    `yaml:"width" env:"WIDTH"`
	Height   int    `yaml:"height" env:"HEIGHT"`
	Workers  int    `yaml:"workers" env:"WORKERS"`
	Space    string `yaml:"space" env:"SPACE"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PSIVIZ_"

func DefaultConfig() *Config {
	return &Config{
		DataDir:  DefaultDataDir,
		Output:   DefaultOutput,
		DelayMS:  DefaultDelayMS,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Workers:  DefaultWorkers,
		Space:    DefaultSpace,
		LogLevel: DefaultLogLevel,
	}
}

// Load reads a YAML file over the defaults. An empty path skips the file.
// Environment variables are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.DelayMS <= 0 {
		return fmt.Errorf("delay_ms must be positive, got %d", c.DelayMS)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.Space {
	case "position", "momentum":
	default:
		return fmt.Errorf("space must be position or momentum, got %q", c.Space)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// ApplyPreset copies the frame settings of a named preset.
func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, ListPresets())
	}
	c.Width = p.Width
	c.Height = p.Height
	c.DelayMS = p.DelayMS
	return nil
}
