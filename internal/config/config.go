// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/janisto/idcard-onboarding/internal/platform/logging"
)

const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

type Config struct {
	// Application
	Port     string
	AppEnv   string
	LogLevel string

	// Firebase
	FirebaseProjectID string
	CredentialsFile   string

	// Storage
	ProfileStore    string // "firestore" or "memory"
	RedisURL        string // empty disables the profile cache
	ProfileCacheTTL time.Duration

	// HTTP
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	ShutdownTimeout    time.Duration
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:     envString("PORT", "8080"),
		AppEnv:   envString("APP_ENV", "development"),
		LogLevel: strings.ToLower(envString("LOG_LEVEL", "info")),

		FirebaseProjectID: envString("FIREBASE_PROJECT_ID", "demo-test-project"),
		CredentialsFile:   envString("GOOGLE_APPLICATION_CREDENTIALS", ""),

		ProfileStore:    strings.ToLower(envString("PROFILE_STORE", StoreFirestore)),
		RedisURL:        envString("REDIS_URL", ""),
		ProfileCacheTTL: envDuration("PROFILE_CACHE_TTL", 24*time.Hour),

		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitRPS:       envFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     envInt("RATE_LIMIT_BURST", 20),
		ShutdownTimeout:    envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ProfileStore != StoreFirestore && c.ProfileStore != StoreMemory {
		return fmt.Errorf("PROFILE_STORE must be %q or %q, got %q", StoreFirestore, StoreMemory, c.ProfileStore)
	}
	if c.IsProduction() && c.ProfileStore == StoreMemory {
		return errors.New("PROFILE_STORE=memory is not allowed in production")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// RateLimitEnabled is false when RATE_LIMIT_RPS is 0.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		warnInvalid(key, v, def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		warnInvalid(key, v, def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		warnInvalid(key, v, def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping empty entries.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func warnInvalid(key, value string, def any) {
	logging.Logger().Warn("config invalid value, using default",
		zap.String("key", key),
		zap.String("value", value),
		zap.Any("default", def),
	)
}
