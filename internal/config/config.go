// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every runtime setting the server reads.
type Config struct {
	Port         int    `envconfig:"PORT" default:"8080"`
	GoogleAPIKey string `envconfig:"GOOGLE_API_KEY"`
	HFAPIKey     string `envconfig:"HF_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	StorageDir   string `envconfig:"STORAGE_DIR" default:"presentations_storage"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads .env if present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}
