package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tristendillon/doppelganger/core/logger"
	"gopkg.in/yaml.v3"
)

const FileName = "doppel.yaml"

type Config struct {
	Extension string   `yaml:"extension"`
	Exclude   []string `yaml:"exclude"`
	Workers   int      `yaml:"workers"`
	FailFast  bool     `yaml:"fail_fast"`
}

func Default() *Config {
	return &Config{
		Extension: ".py",
		Exclude:   []string{},
		Workers:   runtime.NumCPU(),
		FailFast:  false,
	}
}

// Load reads the config at path. An empty path means doppel.yaml in the
// working directory; a missing default file yields Default(). Keys absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "cannot determine working dir")
		}
		path = filepath.Join(wd, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			logger.Debug("No config file found, using default config")
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse yaml in %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	logger.Debug("Config file found: %s", path)
	logger.Debug("Config: %+v", *cfg)

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Extension) == "" {
		return errors.New("extension must not be empty")
	}
	if strings.ContainsRune(c.Extension, filepath.Separator) {
		return errors.Newf("extension %q must not contain a path separator", c.Extension)
	}
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
	return nil
}

// IsExcluded reports whether a directory with this base name is skipped.
// Nothing is excluded unless doppel.yaml lists it.
func (c *Config) IsExcluded(name string) bool {
	for _, ex := range c.Exclude {
		if name == ex {
			return true
		}
	}
	return false
}

// Write stores c as YAML at path.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}
