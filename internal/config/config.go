package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	// BarberBook API
	APIBaseURL     string
	HTTPTimeout    time.Duration
	BookingWindow  int // days of candidate dates offered for booking
	ChatPoll       time.Duration
	DirectoryTTL   time.Duration
	MetricsEnabled bool

	// Stub API server (local development)
	StubPort      string
	StubJWTSecret string
	StubTokenTTL  time.Duration
	StubDayStart  int // first bookable hour, 24h clock
	StubDayEnd    int // last bookable hour, exclusive
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),

		APIBaseURL:     getEnv("BARBERBOOK_API_URL", "https://barber-app-backend.vercel.app/api"),
		HTTPTimeout:    getEnvAsDuration("BARBERBOOK_HTTP_TIMEOUT", 15*time.Second),
		BookingWindow:  getEnvAsInt("BOOKING_WINDOW_DAYS", 14),
		ChatPoll:       getEnvAsDuration("CHAT_POLL_INTERVAL", 5*time.Second),
		DirectoryTTL:   getEnvAsDuration("DIRECTORY_CACHE_TTL", 2*time.Minute),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),

		StubPort:      getEnv("STUB_PORT", "8080"),
		StubJWTSecret: getEnv("STUB_JWT_SECRET", "dev-only-secret"),
		StubTokenTTL:  getEnvAsDuration("STUB_TOKEN_TTL", 24*time.Hour),
		StubDayStart:  getEnvAsInt("STUB_DAY_START", 9),
		StubDayEnd:    getEnvAsInt("STUB_DAY_END", 18),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
