// Package config node configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// DefaultHTTPPort default port of http service
const DefaultHTTPPort = 5670

// Store storage settings
type Store struct {
	CacheSize              int  `yaml:"cacheSize"`
	OpenFilesCacheCapacity int  `yaml:"openFilesCacheCapacity"`
	NoSync                 bool `yaml:"noSync"`
	CompressThreshold      int  `yaml:"compressThreshold"`
}

// Config node configuration
type Config struct {
	Bind          string        `yaml:"bind"`
	Dir           string        `yaml:"dir"`
	LogLevel      string        `yaml:"logLevel"`
	ScrubInterval time.Duration `yaml:"scrubInterval"`
	Store         Store         `yaml:"store"`
}

// Default returns config with defaults filled.
func Default() *Config {
	return &Config{
		Bind:          fmt.Sprintf(":%d", DefaultHTTPPort),
		LogLevel:      "info",
		ScrubInterval: time.Hour,
		Store: Store{
			CacheSize:              128,
			OpenFilesCacheCapacity: 32,
			CompressThreshold:      4096,
		},
	}
}

// Unmarshal parses YAML over defaults.
func Unmarshal(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return Unmarshal(data)
}

// Marshal encodes config in YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Level returns parsed log level.
func (c *Config) Level() (log.Level, error) {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, errors.Wrap(err, "log level")
	}
	return lvl, nil
}

// Validate checks config.
func (c *Config) Validate() error {
	if c.Bind == "" {
		return errors.New("bind must be set")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Store.CacheSize < 0 || c.Store.OpenFilesCacheCapacity < 0 {
		return errors.New("store cache sizes must be >= 0")
	}
	return nil
}
