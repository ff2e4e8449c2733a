// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-in-production"

// Version is the build version, set with -ldflags "-X .../internal/config.Version=...".
var Version = "dev"

// Store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Storage
	StoreBackend string
	DatabaseURL  string
	MongoURI     string
	MongoDB      string
	SeedFile     string

	// Security
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPM   int
	AdminEmail     string
	AdminPassword  string

	// Events; empty uses the in-process hub
	RedisURL string

	// Dashboard
	Timezone                *time.Location
	SessionTTL              time.Duration
	StrictStatusTransitions bool

	// Activity digest
	DigestRebuildInterval time.Duration

	SentryDSN string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	tzName := getEnv("TIMEZONE", "UTC")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		MongoURI:     getEnv("MONGO_URI", ""),
		MongoDB:      getEnv("MONGO_DB", "reports"),
		SeedFile:     getEnv("SEED_FILE", ""),

		JWTSecret:      getEnv("JWT_SECRET", devJWTSecret),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 120),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminPassword:  getEnv("ADMIN_PASSWORD", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		Timezone:                tz,
		SessionTTL:              time.Duration(getEnvInt("SESSION_TTL_MINUTES", 60)) * time.Minute,
		StrictStatusTransitions: getEnvBool("STRICT_STATUS_TRANSITIONS", false),

		DigestRebuildInterval: time.Duration(getEnvInt("DIGEST_REBUILD_INTERVAL", 5)) * time.Minute,

		SentryDSN: getEnv("SENTRY_DSN", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}
	if c.DigestRebuildInterval <= 0 {
		return fmt.Errorf("DIGEST_REBUILD_INTERVAL must be positive")
	}

	// Validate required fields in production
	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
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
