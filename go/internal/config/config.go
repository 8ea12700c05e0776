// Package config loads server settings from an optional yaml file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all server settings.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`

	NATS struct {
		URL           string `yaml:"url"` // empty disables the relay
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Gateway struct {
		ReadBufferSize  int `yaml:"read_buffer_size"`
		WriteBufferSize int `yaml:"write_buffer_size"`
		PingIntervalSec int `yaml:"ping_interval_sec"`
		ReadTimeoutSec  int `yaml:"read_timeout_sec"`
		WriteTimeoutSec int `yaml:"write_timeout_sec"`
	} `yaml:"gateway"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		HTTPAddr: ":8080",
		LogLevel: "info",
	}
	cfg.NATS.SubjectPrefix = "parlor.rooms"
	cfg.Gateway.ReadBufferSize = 1024
	cfg.Gateway.WriteBufferSize = 1024
	cfg.Gateway.PingIntervalSec = 30
	cfg.Gateway.ReadTimeoutSec = 60
	cfg.Gateway.WriteTimeoutSec = 10
	return cfg
}

// Load reads the yaml file at path, falling back to defaults when the
// file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", cfg.NATS.SubjectPrefix)
	cfg.Gateway.ReadBufferSize = getEnvAsInt("WS_READ_BUFFER_SIZE", cfg.Gateway.ReadBufferSize)
	cfg.Gateway.WriteBufferSize = getEnvAsInt("WS_WRITE_BUFFER_SIZE", cfg.Gateway.WriteBufferSize)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
