// config is the package containing the boincctl hosts file: which
// BOINC clients can be reached, and how.
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	ConfigName = ".boincctl.yaml"
)

// Host is one BOINC client.
type Host struct {
	// Address is a host name or address, optionally with a port, or
	// a ws:// or wss:// URL.
	Address string `yaml:"address,omitempty"`
	// Password is the GUI RPC password. PasswordFile names a file
	// holding it instead, usually gui_rpc_auth.cfg; Password wins
	// when both are given.
	Password     string        `yaml:"password,omitempty"`
	PasswordFile string        `yaml:"password_file,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

// Defaults fill in whatever a host entry leaves out.
var Defaults = Host{
	Address: "localhost",
	Timeout: 30 * time.Second,
}

type Config struct {
	// Default names the host used when none is given.
	Default string          `yaml:"default,omitempty"`
	Hosts   map[string]Host `yaml:"hosts,omitempty"`
}

// DefaultPath is $HOME/.boincctl.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ConfigName
	}
	return filepath.Join(home, ConfigName)
}

// Load reads the config file at path. A missing file is an empty
// config, unless mustExist.
func Load(path string, mustExist bool) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) && !mustExist {
		return &Config{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if c.Default != "" {
		if _, ok := c.Hosts[c.Default]; !ok {
			return nil, errors.Errorf("default host %q is not among the configured hosts", c.Default)
		}
	}
	return &c, nil
}

// Resolve finds the host called name, falling back to the default
// host when name is empty. A name that isn't configured is taken to
// be an address. Fields left empty are filled from Defaults.
func (c *Config) Resolve(name string) (Host, error) {
	if name == "" {
		name = c.Default
	}
	h, ok := c.Hosts[name]
	if !ok {
		h = Host{Address: name}
	}
	if err := mergo.Merge(&h, Defaults); err != nil {
		return Host{}, errors.Wrap(err, "applying defaults")
	}
	return h, nil
}

// Override replaces the fields of h that are set in o.
func (h Host) Override(o Host) (Host, error) {
	if err := mergo.Merge(&h, o, mergo.WithOverride); err != nil {
		return Host{}, errors.Wrap(err, "applying overrides")
	}
	return h, nil
}

// Secret returns the password, reading it from PasswordFile if that's
// how it was given. No password is not an error.
func (h Host) Secret() (string, error) {
	if h.Password != "" || h.PasswordFile == "" {
		return h.Password, nil
	}
	data, err := ioutil.ReadFile(h.PasswordFile)
	if err != nil {
		return "", errors.Wrap(err, "reading password file")
	}
	return strings.TrimSpace(string(data)), nil
}
