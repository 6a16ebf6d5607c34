package config

import (
	"os"
	"strconv"
	"time"

	"lasertrack/extractor"
)

// Settings holds the service configuration loaded from the environment.
type Settings struct {
	Host           string
	Port           string
	DatabaseURL    string
	AllowedOrigins string
	APIKey         string // single static key; empty disables the check
	HintsFile      string

	CheckSchedule  string // cron spec for the full price sweep
	RetryInterval  time.Duration
	FetchTimeout   time.Duration
	MaxWorkers     int
	HistoryWindow  int // recent entries handed to the verifier

	Resolver extractor.ResolverConfig
	Verifier extractor.VerifierConfig
}

// LoadSettings reads the service configuration from environment variables,
// falling back to defaults suitable for local development.
func LoadSettings() *Settings {
	return &Settings{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		APIKey:         os.Getenv("API_KEY"),
		HintsFile:      getEnv("HINTS_FILE", "configs/hints.yaml"),

		CheckSchedule: getEnv("CHECK_SCHEDULE", "0 0 */12 * * *"),
		RetryInterval: getEnvDuration("RETRY_INTERVAL", 5*time.Minute),
		FetchTimeout:  getEnvDuration("FETCH_TIMEOUT", 45*time.Second),
		MaxWorkers:    getEnvInt("MAX_WORKERS", 5),
		HistoryWindow: getEnvInt("HISTORY_WINDOW", 5),

		Resolver: extractor.ResolverConfig{
			OutlierMultiple:   getEnvFloat("RESOLVER_OUTLIER_MULTIPLE", 10),
			MinPlausiblePrice: getEnvFloat("RESOLVER_MIN_PRICE", 1),
		},
		Verifier: extractor.VerifierConfig{
			LowChangeThreshold:    getEnvFloat("VERIFIER_LOW_THRESHOLD", 0.02),
			ModerateChangeCeiling: getEnvFloat("VERIFIER_MODERATE_CEILING", 0.50),
			HardRejectCeiling:     getEnvFloat("VERIFIER_HARD_CEILING", 0.90),
			ConfidenceFloor:       getEnvFloat("VERIFIER_CONFIDENCE_FLOOR", 0.70),
			RescaleFactors:        []int64{10},
		},
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
