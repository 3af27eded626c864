package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Primary   PrimaryProviderConfig
	Extractor ExtractorServiceConfig
	Local     LocalProviderConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN         string
	DialTimeout time.Duration
}

// ServerConfig holds the HTTP surface configuration
type ServerConfig struct {
	Addr           string
	MaxUploadBytes int64
}

// PrimaryProviderConfig configures the primary vision/text provider.
type PrimaryProviderConfig struct {
	Endpoint    string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
}

// ExtractorServiceConfig configures the secondary remote extraction service.
type ExtractorServiceConfig struct {
	Endpoints []string
	Timeout   time.Duration
}

// LocalProviderConfig configures the tertiary local provider.
type LocalProviderConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:         getEnv("DB_URL", "file:proposals.db"),
			DialTimeout: getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":8080"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 10)) * 1024 * 1024,
		},
		Primary: PrimaryProviderConfig{
			Endpoint:    getEnv("GEMINI_ENDPOINT", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.0-flash-001"),
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
			MaxRetries:  getEnvAsInt("GEMINI_MAX_RETRIES", 3),
		},
		Extractor: ExtractorServiceConfig{
			Endpoints: extractorEndpoints(),
			Timeout:   getEnvAsDuration("EXTRACTOR_TIMEOUT", 90*time.Second),
		},
		Local: LocalProviderConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
	}
}

// extractorEndpoints resolves secondary-service candidates: env-configured
// first, then the localhost fallbacks, deduplicated in order.
func extractorEndpoints() []string {
	candidates := make([]string, 0, 4)
	if v := os.Getenv("EXTRACTOR_URLS"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimRight(strings.TrimSpace(part), "/")
			if part != "" {
				candidates = append(candidates, part)
			}
		}
	}
	candidates = append(candidates, "http://127.0.0.1:8000", "http://localhost:8000")

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// Validate validates the loaded configuration. Provider credentials may be
// empty: the cascade degrades through its stages without them.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	if len(c.Extractor.Endpoints) == 0 {
		return NewAppError("CONFIG_ERROR", "no extractor endpoint candidates", ErrInvalidInput)
	}
	return nil
}
