// Package config loads the tripwire application config file.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file name inside the config directory.
	FileName = "config.yaml"

	dirMode  = 0700
	fileMode = 0600

	defaultLogLevel    = "info"
	defaultFormat      = "json"
	defaultAddress     = "127.0.0.1:8080"
	defaultConcurrency = 4
)

// Config holds the application runtime settings.
type Config struct {
	// Lexicon is the path of the lexicon file. Empty selects the embedded
	// default lexicon.
	Lexicon     string `yaml:"lexicon" json:"lexicon"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
	Format      string `yaml:"format" json:"format"`
	Concurrency int    `yaml:"concurrency" json:"concurrency"`
	Server      Server `yaml:"server" json:"server"`
}

// Server holds the HTTP server settings.
type Server struct {
	Address string `yaml:"address" json:"address"`
}

// Default returns the config used when no file is present.
func Default() *Config {
	return &Config{
		LogLevel:    defaultLogLevel,
		Format:      defaultFormat,
		Concurrency: defaultConcurrency,
		Server: Server{
			Address: defaultAddress,
		},
	}
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	d := Default()
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
}

// Validate checks the settings that have a closed set of values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "json", "yaml", "yml":
	default:
		return errors.Errorf("invalid format: %q (want json or yaml)", c.Format)
	}
	if c.Concurrency <= 0 {
		return errors.Errorf("invalid concurrency: %d", c.Concurrency)
	}
	return nil
}

// Parse decodes a config from r and applies defaults.
func Parse(r io.Reader) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "error decoding config")
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the config file at path. A relative lexicon path is resolved
// against the directory of the config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening config file: %s", path)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	if c.Lexicon != "" && !filepath.IsAbs(c.Lexicon) {
		c.Lexicon = filepath.Join(filepath.Dir(path), c.Lexicon)
	}
	return c, nil
}

// Save writes c to the config file in dirPath.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, FileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}

// ReadOrCreate reads the config from dirPath, creating the directory and a
// default config file first when they do not exist.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
		}
	}

	path := filepath.Join(dirPath, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(dirPath, Default()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	return Load(path)
}

// HomeDir returns the tripwire config directory under the user home.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home dir")
	}
	return filepath.Join(home, ".tripwire"), nil
}
