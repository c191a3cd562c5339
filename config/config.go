// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// HTTP Server
	Port        int
	CORSOrigins []string

	// Database. ":memory:" keeps everything in process.
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// SeedFile is an optional YAML snapshot loaded into an empty store on
	// startup.
	SeedFile string
}

// Load reads FARM_* variables. A .env file in the working directory is
// applied if present; pass a path to require a specific one.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	port, err := getEnvInt("FARM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid FARM_PORT: %w", err)
	}

	return &Config{
		Port:        port,
		CORSOrigins: splitList(getEnv("FARM_CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		DBPath:      getEnv("FARM_DB_PATH", "farm.db"),
		LogLevel:    getEnv("FARM_LOG_LEVEL", "info"),
		LogFormat:   getEnv("FARM_LOG_FORMAT", "text"),
		SeedFile:    os.Getenv("FARM_SEED_FILE"),
	}, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}
	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("seed file '%s' is not readable: %v", c.SeedFile, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// NewLogger builds the process logger from the config. Call after Validate.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return log
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
