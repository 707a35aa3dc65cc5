// Package config loads the courseware client configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration for the courseware client.
type Config struct {
	ServerURL      string `yaml:"serverUrl" json:"serverUrl"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" json:"timeoutSeconds"`
	CredentialsDir string `yaml:"credentialsDir" json:"credentialsDir"`
	CacheDir       string `yaml:"cacheDir" json:"cacheDir"`
	ListenAddr     string `yaml:"listenAddr" json:"listenAddr"`
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ServerURL:      "https://localhost:8443",
		TimeoutSeconds: 30,
		ListenAddr:     "localhost:3000",
	}
}

// DefaultPath returns the default config file location,
// ~/.courseware/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".courseware", "config.yaml"), nil
}

// Load reads the config file at path, applying defaults for any field
// the file leaves unset. A missing file returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = Default().ServerURL
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = Default().TimeoutSeconds
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = Default().ListenAddr
	}
	return cfg, nil
}
