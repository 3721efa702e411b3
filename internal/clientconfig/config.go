// Package clientconfig loads the beerctl configuration file.
package clientconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIURL          string `yaml:"api_url"`
	WSHost          string `yaml:"ws_host,omitempty"`
	WSSHost         string `yaml:"wss_host,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
	LogLevel        string `yaml:"log_level,omitempty"`
}

func Default() Config {
	return Config{
		APIURL:   "http://localhost:8080",
		LogLevel: "warn",
	}
}

// DefaultPath is ~/.beerctl/config.yaml, or $BEERCTL_CONFIG when set.
func DefaultPath() (string, error) {
	if p := os.Getenv("BEERCTL_CONFIG"); p != "" {
		return homedir.Expand(p)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".beerctl", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file is not an error.
// BEERCTL_API_URL overrides the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("BEERCTL_API_URL"); v != "" {
		cfg.APIURL = v
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}
	return nil
}

// Save writes the configuration, creating the directory if needed.
func Save(path string, cfg Config) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
