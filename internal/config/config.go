// Package config resolves scanner settings from defaults, a TOML file and
// SIGSCAN_* environment variables, in increasing order of precedence.
// Command line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

const (
	EnvPrefix         = "SIGSCAN"
	DefaultConfigFile = "sigscan.toml"
)

type Config struct {
	SignatureFile string `toml:"signature_file" envconfig:"SIGNATURE_FILE"`
	Workers       int    `toml:"workers" envconfig:"WORKERS"`
	LogLevel      string `toml:"log_level" envconfig:"LOG_LEVEL"`
	LogFile       string `toml:"log_file" envconfig:"LOG_FILE"`
	DisableLog    bool   `toml:"no_log" envconfig:"NO_LOG"`
	ReportFile    string `toml:"report_file" envconfig:"REPORT_FILE"`
	NoColor       bool   `toml:"no_color" envconfig:"NO_COLOR"`
}

func Default() Config {
	return Config{
		Workers:  runtime.NumCPU(),
		LogLevel: "INFO",
	}
}

// Load resolves the configuration. An empty path reads DefaultConfigFile
// when it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, &cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %q: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// LoadDotEnv exports the variables of the given .env files (".env" when none
// is given) into the process environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %q: %w", f, err)
		}
	}
	return nil
}
