// Package config provides configuration for the console and gateway.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the client configuration.
type Config struct {
	// Backend settings
	APIBaseURL      string
	ArtifactBaseURL string
	RequestTimeout  time.Duration

	// Session defaults
	DefaultUserID  string
	DefaultAppName string

	// Health probe settings
	ProbeInterval time.Duration
	ProbeAttempts int

	// Submission retry settings
	MaxRetries       int
	MaxRetryDuration time.Duration

	// Gateway settings
	HTTPPort     int
	PingInterval time.Duration
	WriteTimeout time.Duration
	ReadTimeout  time.Duration

	// Local storage
	DatabaseURL string
	ArtifactDir string

	// Input limits
	MaxMessageLength int
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		APIBaseURL:       getEnv("API_BASE_URL", "http://localhost:8000"),
		ArtifactBaseURL:  getEnv("ARTIFACT_BASE_URL", "http://localhost:8001"),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 120000)) * time.Millisecond,
		DefaultUserID:    getEnv("DEFAULT_USER_ID", "u_999"),
		DefaultAppName:   getEnv("DEFAULT_APP_NAME", "trends_and_insights_agent"),
		ProbeInterval:    time.Duration(getEnvInt("PROBE_INTERVAL_MS", 2000)) * time.Millisecond,
		ProbeAttempts:    getEnvInt("PROBE_ATTEMPTS", 60),
		MaxRetries:       getEnvInt("MAX_RETRIES", 10),
		MaxRetryDuration: time.Duration(getEnvInt("MAX_RETRY_DURATION_MS", 120000)) * time.Millisecond,
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		PingInterval:     time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:     time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:      time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		DatabaseURL:      getEnv("DATABASE_URL", "file:console.db?cache=shared&mode=rwc"),
		ArtifactDir:      getEnv("ARTIFACT_DIR", "artifacts"),
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 10000),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
