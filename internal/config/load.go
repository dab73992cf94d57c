package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "TICKTERM_"

// Load builds a configuration from defaults, the file at path (skipped when
// path is empty) and the process environment. The result is not validated;
// callers apply flags and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the file at path onto c. The format is chosen by
// extension: .toml, .yaml or .yml. Keys absent from the file keep their
// current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return c.decode(path, data)
}

func (c *Config) decode(path string, data []byte) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

// envMapping lists the supported overrides: env var -> setter.
var envMapping = map[string]func(c *Config, v string) error{
	EnvPrefix + "HOST": func(c *Config, v string) error {
		c.Server.Host = v
		return nil
	},
	EnvPrefix + "PORT": func(c *Config, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return invalid("server.port", "%s=%q is not a number", EnvPrefix+"PORT", v)
		}
		c.Server.Port = port
		return nil
	},
	EnvPrefix + "LOG_LEVEL": func(c *Config, v string) error {
		c.Log.Level = v
		return nil
	},
	EnvPrefix + "ENCODING": func(c *Config, v string) error {
		c.Server.Encoding = v
		return nil
	},
	EnvPrefix + "SCRIPT": func(c *Config, v string) error {
		c.Script.Path = v
		return nil
	},
}

// ApplyEnv applies TICKTERM_* overrides read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for name, set := range envMapping {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(c, v); err != nil {
			return err
		}
	}
	return nil
}
