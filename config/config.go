package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"imagedup/cache"
	"imagedup/logging"
	"imagedup/signalhandler"
	"imagedup/utils"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables read by Load
const (
	EnvConfig   = "IMAGEDUP_CONFIG"
	EnvWorkers  = "IMAGEDUP_WORKERS"
	EnvLogLevel = "IMAGEDUP_LOG_LEVEL"
)

// Cache selects where hash caches are stored. At most one of File and Dir
// may be set; with neither the cache lives inside the scanned root.
type Cache struct {
	File string `toml:"file"`
	Dir  string `toml:"dir"`
	Name string `toml:"name"`
}

// Scan contains defaults for the scan command.
type Scan struct {
	Recursive bool `toml:"recursive"`
	Workers   int  `toml:"workers"` // 0 picks one worker per CPU
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Config encapsulates all configuration values for imagedup.
type Config struct {
	Cache   Cache   `toml:"cache"`
	Scan    Scan    `toml:"scan"`
	Logging Logging `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Cache:   Cache{Name: cache.DefaultFileName},
		Logging: Logging{Level: "info"},
	}
}

// Load locates, parses, and validates a configuration file, then applies
// environment overrides. A missing file is not an error. It returns the
// resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = utils.GetDefaultConfigPath()
	}

	exists := false
	if path != "" {
		expanded, err := utils.ExpandHome(path)
		if err != nil {
			return nil, "", false, err
		}
		path = expanded

		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, "", false, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			exists = true
			decoder := toml.NewDecoder(file)
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&cfg); err != nil {
				return nil, "", false, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, path, exists, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid worker count %q", EnvWorkers, v)
		}
		c.Scan.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Cache.File, err = utils.ExpandHome(c.Cache.File); err != nil {
		return err
	}
	if c.Cache.Dir, err = utils.ExpandHome(c.Cache.Dir); err != nil {
		return err
	}
	if c.Logging.File, err = utils.ExpandHome(c.Logging.File); err != nil {
		return err
	}
	if c.Cache.Name == "" {
		c.Cache.Name = cache.DefaultFileName
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must be >= 0, got %d", c.Scan.Workers)
	}
	if c.Cache.File != "" && c.Cache.Dir != "" {
		return errors.New("cache.file and cache.dir are mutually exclusive")
	}
	if strings.ContainsAny(c.Cache.Name, `/\`) {
		return fmt.Errorf("cache.name %q must be a plain file name", c.Cache.Name)
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// Location returns where the cache for a root is stored.
func (c *Config) Location() cache.Location {
	switch {
	case c.Cache.File != "":
		return cache.File{Path: c.Cache.File}
	case c.Cache.Dir != "":
		return cache.Dir{Dir: c.Cache.Dir}
	default:
		return cache.InRoot{Name: c.Cache.Name}
	}
}

// Workers resolves the configured worker count.
func (c *Config) Workers() int {
	if c.Scan.Workers > 0 {
		return c.Scan.Workers
	}
	return signalhandler.GetOptimalProcs()
}
