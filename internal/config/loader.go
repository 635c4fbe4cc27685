package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config.yaml"

// Load builds the configuration from a YAML file overlaid with
// environment variables; env always wins, env-default tags fill the
// rest. CONFIG_PATH selects the file and must exist when set. Without
// it, ./config.yaml is used when present, otherwise the environment
// alone has to satisfy the required fields.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	switch _, err := os.Stat(path); {
	case err == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load read %s: %w", path, err)
		}
	case explicit:
		return nil, fmt.Errorf("config.Load stat %s: %w", path, err)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config.Load read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load validate: %w", err)
	}
	return &cfg, nil
}
