package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	DatabasePath     string    `yaml:"database_path"`
	Port             string    `yaml:"port"`
	StrictVersioning bool      `yaml:"strict_versioning"`
	Log              LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func Default() Config {
	return Config{
		DatabasePath: "./data/bosstracker.db",
		Port:         "8080",
		Log:          LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
	}
}

// Load reads path, or ./config.yaml when path is empty and the file exists, then
// applies environment overrides.
func Load(path string) (Config, error) {
	config := Default()

	file := path
	if file == "" {
		file = defaultConfigFile
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", file, err)
		}
	case path != "" || !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("reading config file %s: %w", file, err)
	}

	envOverride(&config.DatabasePath, "DATABASE_PATH")
	envOverride(&config.Port, "PORT")
	envOverride(&config.Log.Level, "LOG_LEVEL")
	envOverride(&config.Log.File, "LOG_FILE")
	if err := envOverrideBool(&config.StrictVersioning, "STRICT_VERSIONING"); err != nil {
		return Config{}, err
	}

	if config.DatabasePath == "" {
		return Config{}, fmt.Errorf("database path is required")
	}
	if config.Port == "" {
		return Config{}, fmt.Errorf("port is required")
	}

	return config, nil
}

func envOverride(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func envOverrideBool(dst *bool, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*dst = parsed
	return nil
}
