package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is consulted when no explicit config file is given.
const DefaultPath = "config.yaml"

// Load reads, defaults, and validates configuration. With an empty path
// the default file is used if present, otherwise the built-in defaults.
// Spotify credentials missing from the file are filled from the
// environment, with a .env file honored when one exists.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, &ConfigError{
				Message: fmt.Sprintf("Error parsing configuration file %s: %v", path, err),
			}
		}
	case os.IsNotExist(err) && !explicit:
		// No config file; defaults plus environment credentials.
	case os.IsNotExist(err):
		return nil, &ConfigError{
			Message: fmt.Sprintf("Configuration file not found: %s", path),
		}
	default:
		return nil, &ConfigError{
			Message: fmt.Sprintf("Error reading configuration file %s: %v", path, err),
		}
	}

	applyEnvCredentials(&cfg)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvCredentials(cfg *Config) {
	if cfg.Download.ClientID != "" && cfg.Download.ClientSecret != "" {
		return
	}
	_ = godotenv.Load()
	if cfg.Download.ClientID == "" {
		cfg.Download.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	}
	if cfg.Download.ClientSecret == "" {
		cfg.Download.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	}
}
