// Package confengine wraps github.com/elastic/go-ucfg so the rest of the
// module can load typed config sections out of one YAML document without
// depending on ucfg directly.
package confengine

import (
	"github.com/elastic/go-ucfg"
	"github.com/elastic/go-ucfg/yaml"
)

type Config struct {
	conf *ucfg.Config
}

func New(conf *ucfg.Config) *Config {
	return &Config{conf: conf}
}

// LoadConfigPath reads and parses a YAML config file.
func LoadConfigPath(path string) (*Config, error) {
	conf, err := yaml.NewConfigWithFile(path)
	if err != nil {
		return nil, err
	}
	return New(conf), nil
}

// LoadContent parses an in-memory YAML document, mainly for tests and for
// CLI subcommands that synthesize config from flags.
func LoadContent(b []byte) (*Config, error) {
	conf, err := yaml.NewConfig(b)
	if err != nil {
		return nil, err
	}
	return New(conf), nil
}

func (c *Config) Has(s string) bool {
	ok, err := c.conf.Has(s, -1)
	if err != nil {
		return false
	}
	return ok
}

// Child returns the named sub-document, or an empty Config if absent.
func (c *Config) Child(s string) (*Config, error) {
	if !c.Has(s) {
		return New(ucfg.New()), nil
	}
	content, err := c.conf.Child(s, -1)
	if err != nil {
		return nil, err
	}
	return &Config{conf: content}, nil
}

// Unpack decodes the whole document into to.
func (c *Config) Unpack(to any) error {
	return c.conf.Unpack(to)
}

// UnpackChild decodes the named sub-document into to. Absent sections are
// a no-op, leaving to at its zero value / caller-supplied defaults.
func (c *Config) UnpackChild(s string, to any) error {
	if !c.Has(s) {
		return nil
	}
	child, err := c.conf.Child(s, -1)
	if err != nil {
		return err
	}
	return child.Unpack(to)
}
