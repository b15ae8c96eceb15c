package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Extraction ExtractionConfig
	Interop    InteropConfig
	Database   DatabaseConfig
}

// ServerConfig holds HTTP API configuration
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// ExtractionConfig holds extraction endpoint configuration
type ExtractionConfig struct {
	BaseURL        string
	Timeout        time.Duration
	ForceMapReduce bool
}

// InteropConfig holds context-bus adapter configuration.
// Mode is "mock" (no bus) or "loopback" (in-process bus).
type InteropConfig struct {
	AppID          string
	Mode           string
	PublishTimeout time.Duration
}

// DatabaseConfig holds staging-store configuration.
// Driver is "pgx" for Postgres or "sqlite" for the embedded store.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8090"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Extraction: ExtractionConfig{
			BaseURL:        getEnv("EXTRACTION_URL", "http://127.0.0.1:8000"),
			Timeout:        getEnvAsDuration("EXTRACTION_TIMEOUT", 90*time.Second),
			ForceMapReduce: getEnvAsBool("EXTRACTION_FORCE_MAP_REDUCE", false),
		},
		Interop: InteropConfig{
			AppID:          getEnv("INTEROP_APP_ID", "creditnexus"),
			Mode:           getEnv("INTEROP_MODE", "mock"),
			PublishTimeout: getEnvAsDuration("INTEROP_PUBLISH_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DB_URL", "file:creditnexus.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Extraction.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "EXTRACTION_URL is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Database.Driver != "pgx" && c.Database.Driver != "sqlite" {
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be pgx or sqlite", ErrInvalidInput)
	}
	if c.Interop.Mode != "mock" && c.Interop.Mode != "loopback" {
		return NewAppError("CONFIG_ERROR", "INTEROP_MODE must be mock or loopback", ErrInvalidInput)
	}
	return nil
}
