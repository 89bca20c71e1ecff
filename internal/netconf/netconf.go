// Package netconf loads the server's YAML configuration file into a loose
// map and decodes it into typed structs, the same two-stage shape
// packetd-packetd/confengine wraps around go-ucfg's Config.Unpack — here
// mapstructure plays go-ucfg's decode role (spec §B "Configuration").
package netconf

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the raw, loosely-typed configuration tree loaded from disk.
// Callers Unpack sub-trees into typed structs rather than field-accessing
// this directly, mirroring confengine.Config.Unpack/UnpackChild.
type Config struct {
	raw map[string]any
}

// Load reads and YAML-decodes the file at path into a loose tree.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("netconf: read %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("netconf: parse %s: %w", path, err)
	}
	return &Config{raw: raw}, nil
}

// Unpack decodes the whole tree into to (a pointer to a tagged struct using
// `mapstructure:"..."` tags).
func (c *Config) Unpack(to any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           to,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(c.raw)
}

// UnpackChild decodes the sub-tree at key into to, matching
// confengine.Config.UnpackChild's child-scoping convenience.
func (c *Config) UnpackChild(key string, to any) error {
	child, ok := c.raw[key]
	if !ok {
		return fmt.Errorf("netconf: no such key %q", key)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           to,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(child)
}

// Has reports whether key is present at the top level of the tree.
func (c *Config) Has(key string) bool {
	_, ok := c.raw[key]
	return ok
}

// ServerConfig is the top-level typed configuration for a polyservd process.
type ServerConfig struct {
	Listen  string      `mapstructure:"listen"`
	Workers int         `mapstructure:"workers"`
	TLS     TLSConfig   `mapstructure:"tls"`
	Auth    AuthConfig  `mapstructure:"auth"`
	Log     LogConfig   `mapstructure:"log"`
	Serve   ServeConfig `mapstructure:"serve"`
}

// TLSConfig names the certificate/key pair handed to the opaque TLS
// transport the core is given bytes from (spec §6 "TLS is transparent to
// the core"); this struct only configures that external collaborator.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// AuthConfig selects and configures the out-of-core authentication
// provider (spec §1's "authentication providers").
type AuthConfig struct {
	Provider     string `mapstructure:"provider"` // "passwdtable" loads PasswdFile; any other value loads no provider
	PasswdFile   string `mapstructure:"passwdFile"`
}

// LogConfig mirrors internal/netlog.Options, kept separate so the YAML key
// namespace (`log:`) stays stable if netlog's internals change.
type LogConfig struct {
	Stdout     bool   `mapstructure:"stdout"`
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"maxSize"`
	MaxAge     int    `mapstructure:"maxAge"`
	MaxBackups int    `mapstructure:"maxBackups"`
}

// ServeConfig points at the static folder internal/servefolder enumerates.
type ServeConfig struct {
	Root    string `mapstructure:"root"`
	Default string `mapstructure:"defaultFile"`
}
