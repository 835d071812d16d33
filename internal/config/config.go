// Package config collects the environment-driven settings of the service.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the runtime settings of the service
type Config struct {
	Port     string
	BasePath string

	// Session token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	JWTSecret       []byte

	// Subscription lifecycle
	ExpiringThresholdDays int
	AutoRenewWindow       time.Duration
	DefaultRenewDays      int

	// Maintenance sweep
	SweepInterval   time.Duration
	SweepSecretHash string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads settings from the environment, applying defaults
func Load() *Config {
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		jwtSecret = []byte("default-secret-key-change-in-production")
		logrus.Warn("JWT_SECRET not set, using insecure default")
	}

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		BasePath:              getEnv("BASE_PATH", "/api/v1"),
		AccessTokenTTL:        getEnvAsDuration("ACCESS_TOKEN_TTL", time.Hour),
		RefreshTokenTTL:       getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		JWTSecret:             jwtSecret,
		ExpiringThresholdDays: getEnvAsInt("EXPIRING_THRESHOLD_DAYS", 7),
		AutoRenewWindow:       getEnvAsDuration("AUTO_RENEW_WINDOW", 24*time.Hour),
		DefaultRenewDays:      getEnvAsInt("DEFAULT_RENEW_DAYS", 30),
		SweepInterval:         getEnvAsDuration("SWEEP_INTERVAL", 24*time.Hour),
		SweepSecretHash:       os.Getenv("SWEEP_SECRET_HASH"),
		RateLimitRequests:     getEnvAsInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:       getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
	}

	logrus.Infof("Access token TTL: %s", cfg.AccessTokenTTL)
	logrus.Infof("Refresh token TTL: %s", cfg.RefreshTokenTTL)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, fmt.Sprintf("%d", defaultValue))
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if ttl := os.Getenv(key); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			return parsed
		}
	}
	return defaultValue
}
