// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. A .env file in the working directory (loaded into the environment)
//  2. A YAML file:  CONFIG_PATH=/path/to/config.yaml  or  --config=...
//  3. Environment variables with built-in defaults
//
// Unlike a server, an admin console must be runnable with zero setup, so
// the YAML file is optional: when no path is given, cleanenv reads the
// environment alone and every field falls back to its env-default tag.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden by the
// corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// APIBaseURL is the base path of the students/payments REST API,
	// e.g. "http://localhost:8000/api". Every request path is appended
	// to it verbatim.
	APIBaseURL string `yaml:"api_base_url" env:"API_BASE_URL" env-default:"http://localhost:8000/api"`

	// PageSize is the fixed number of rows per table page.
	PageSize int `yaml:"page_size" env:"PAGE_SIZE" env-default:"10"`

	// HTTPTimeout bounds every single API call. There are no retries,
	// so this is also the longest the console can appear stuck.
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
}

// MustLoad reads, validates, and returns the application config.
//
// The name follows the Go convention: "Must" functions are allowed to
// fatal on failure, so callers never check an error — if this returns,
// the config is valid.
func MustLoad() *Config {
	// A local .env is a convenience for development; a missing file is
	// not an error.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	var cfg Config

	// No config file is fine — environment plus defaults fully describe
	// a working setup pointing at http://localhost:8000/api.
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err.Error())
		}
		return &cfg
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return &cfg
}
