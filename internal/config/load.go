package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ResolvePath returns the configuration file path. An explicit path
// wins; otherwise XDG conventions apply.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "parlo", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return filepath.Join(home, ".config", "parlo", "config.yaml"), nil
}

// Load reads configuration from path, layering file values and then
// environment variables over the defaults. A missing file is not an
// error: defaults plus the environment still make a usable config.
func Load(explicit string) (Loaded, error) {
	path, err := ResolvePath(explicit)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: path, Config: Default()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Fine: run on defaults and environment.
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		loaded.Exists = true
		if err := yaml.Unmarshal(data, &loaded.Config); err != nil {
			return Loaded{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&loaded.Config)

	warnings, err := Validate(loaded.Config)
	if err != nil {
		return Loaded{}, err
	}
	loaded.Warnings = warnings
	return loaded, nil
}

// applyEnv overlays secrets and endpoints from the environment so
// they can stay out of the config file.
func applyEnv(cfg *Config) {
	overlay := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	overlay(&cfg.Engine.Endpoint, "PARLO_ENGINE_ENDPOINT")
	overlay(&cfg.Engine.APIKey, "PARLO_ENGINE_API_KEY")
	overlay(&cfg.Gateway.URL, "PARLO_GATEWAY_URL")
	overlay(&cfg.Gateway.APIKey, "PARLO_GATEWAY_API_KEY")
	overlay(&cfg.Assistant.APIKey, "OPENAI_API_KEY")
	overlay(&cfg.Assistant.BaseURL, "OPENAI_BASE_URL")
}
