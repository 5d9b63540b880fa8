package main

import (
	"os"
	"time"
)

type config struct {
	APIBaseURL string // Required: base URL of the Fleetsure API
	StorePath  string // Keyring database path (default: ./fleetsess.db)
	StoreKind  string // Keyring driver (sqlite, bolt, memory) (default: sqlite)
	SealKey    string // Hex-encoded 32-byte key; when set, values are encrypted at rest

	GracePeriod      time.Duration // Login grace period (default: 10s)
	VerifyRetryDelay time.Duration // Background verification retry delay (default: 5s)

	Env       string // Environment (dev, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: text)
}

func loadConfig() config {
	return config{
		APIBaseURL:       os.Getenv("FLEETSURE_API_URL"),
		StorePath:        getEnvOrDefault("FLEETSURE_STORE_PATH", "fleetsess.db"),
		StoreKind:        getEnvOrDefault("FLEETSURE_STORE", "sqlite"),
		SealKey:          os.Getenv("FLEETSURE_SEAL_KEY"),
		GracePeriod:      getEnvDurationOrDefault("FLEETSURE_GRACE_PERIOD", 10*time.Second),
		VerifyRetryDelay: getEnvDurationOrDefault("FLEETSURE_VERIFY_RETRY_DELAY", 5*time.Second),
		Env:              getEnvOrDefault("ENV", "dev"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
