package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Saccoterm"`
	}

	API struct {
		URL     string        `envconfig:"SACCO_API_URL" default:"http://localhost:8000/api/"`
		Timeout time.Duration `envconfig:"SACCO_API_TIMEOUT" default:"30s"`
	}

	Credentials struct {
		// Empty means the platform config dir is used.
		Path string `envconfig:"SACCO_CREDENTIALS_PATH"`
	}

	Mock struct {
		Port int `envconfig:"MOCK_API_PORT" default:"8000"`
	}
}

// CredentialsPath resolves the token file location, defaulting to
// <user config dir>/saccoterm/credentials.json.
func (c *Config) CredentialsPath() (string, error) {
	if c.Credentials.Path != "" {
		return c.Credentials.Path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}

	return filepath.Join(dir, "saccoterm", "credentials.json"), nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
