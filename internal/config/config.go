// Package config loads the midictl configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/leandrodaf/midictl/internal/controller"
	"github.com/leandrodaf/midictl/sdk/contracts"
	"github.com/leandrodaf/midictl/sdk/profile"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration. Zero values keep the SDK defaults.
type Config struct {
	Device           string        `yaml:"device"`
	Driver           string        `yaml:"driver"`
	Profile          string        `yaml:"profile"` // built-in name or YAML path
	LogLevel         string        `yaml:"log_level"`
	LogFile          string        `yaml:"log_file"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	ReadBatchSize    int           `yaml:"read_batch_size"`
	StreamBufferSize int           `yaml:"stream_buffer_size"`
}

// Load reads path. A missing file yields an empty Config.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Merge overrides fields of c with the non-zero fields of o.
func (c Config) Merge(o Config) Config {
	if o.Device != "" {
		c.Device = o.Device
	}
	if o.Driver != "" {
		c.Driver = o.Driver
	}
	if o.Profile != "" {
		c.Profile = o.Profile
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFile != "" {
		c.LogFile = o.LogFile
	}
	if o.PollInterval != 0 {
		c.PollInterval = o.PollInterval
	}
	if o.ReadBatchSize != 0 {
		c.ReadBatchSize = o.ReadBatchSize
	}
	if o.StreamBufferSize != 0 {
		c.StreamBufferSize = o.StreamBufferSize
	}
	return c
}

// Validate checks the values that can be checked without touching devices.
func (c Config) Validate() error {
	if _, ok := contracts.ParseLogLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative: %s", c.PollInterval)
	}
	if c.ReadBatchSize < 0 || c.ReadBatchSize > controller.MaxReadBatchSize {
		return fmt.Errorf("read_batch_size must be in 0..1024: %d", c.ReadBatchSize)
	}
	if c.StreamBufferSize < 0 {
		return fmt.Errorf("stream_buffer_size must not be negative: %d", c.StreamBufferSize)
	}
	return nil
}

// Options converts the configuration into client options.
func (c Config) Options() ([]contracts.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p, err := profile.Resolve(c.Profile)
	if err != nil {
		return nil, err
	}
	level, _ := contracts.ParseLogLevel(c.LogLevel)

	opts := []contracts.Option{
		contracts.WithProfile(p),
		contracts.WithLogLevel(level),
		contracts.WithPollInterval(c.PollInterval),
		contracts.WithReadBatchSize(c.ReadBatchSize),
		contracts.WithStreamBufferSize(c.StreamBufferSize),
	}
	if c.Driver != "" {
		opts = append(opts, contracts.WithDriverName(c.Driver))
	}
	if c.LogFile != "" {
		opts = append(opts, contracts.WithLogFile(c.LogFile))
	}
	return opts, nil
}

// DeviceName returns the configured device, falling back to the profile's.
func (c Config) DeviceName() string {
	if c.Device != "" {
		return c.Device
	}
	if p, err := profile.Resolve(c.Profile); err == nil {
		return p.DeviceName
	}
	return ""
}
