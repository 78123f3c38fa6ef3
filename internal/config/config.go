package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string // debug, info, warn, error

	// Server
	ServerAddr string

	// Storage
	StorageDriver string // "postgres" or "memory"
	DatabaseURL   string

	// Redis (optional; active rule cache and rate limiter storage)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RuleCacheTTL  time.Duration

	// OIDC bearer token verification for admin routes
	OIDCIssuer   string
	OIDCClientID string

	// Shared secret the host application sends on submissions
	IngestAPIKey string

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Requests per minute per client IP; 0 disables the limiter
	RateLimitPerMinute int

	// Optional YAML file with risk policy overrides and keyword seeds
	ConfigFile string

	// Risk
	RiskSweepSchedule    string // cron spec, empty disables the sweep
	RiskSnapshotsEnabled bool
	RiskBatchConcurrency int

	// Email alerts
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	SMTPFromName    string
	SMTPTLS         string   // "none", "tls", "starttls"
	AlertRecipients []string // env: ALERT_RECIPIENTS, comma-separated
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ServerAddr: getEnv("SERVER_ADDR", ":3000"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		DatabaseURL:   getEnv("DATABASE_URL", "postgres://localhost:5432/modengine?sslmode=disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RuleCacheTTL:  getEnvDuration("RULE_CACHE_TTL", 5*time.Minute),

		OIDCIssuer:   getEnv("OIDC_ISSUER", ""),
		OIDCClientID: getEnv("OIDC_CLIENT_ID", ""),

		IngestAPIKey: getEnv("INGEST_API_KEY", ""),

		CORSOrigins:        getEnv("CORS_ORIGINS", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		ConfigFile: getEnv("CONFIG_FILE", "config.yaml"),

		RiskSweepSchedule:    getEnv("RISK_SWEEP_SCHEDULE", "@every 1h"),
		RiskSnapshotsEnabled: getEnv("RISK_SNAPSHOTS_ENABLED", "") != "",
		RiskBatchConcurrency: getEnvInt("RISK_BATCH_CONCURRENCY", 8),

		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnvInt("SMTP_PORT", 587),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:        getEnv("SMTP_FROM", ""),
		SMTPFromName:    getEnv("SMTP_FROM_NAME", "Moderation Engine"),
		SMTPTLS:         strings.ToLower(getEnv("SMTP_TLS", "starttls")),
		AlertRecipients: splitList(getEnv("ALERT_RECIPIENTS", "")),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
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

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if SMTP is configured and there is someone to alert.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != "" && len(c.AlertRecipients) > 0
}

// IsRedisEnabled returns true if a Redis address is configured.
func (c *Config) IsRedisEnabled() bool {
	return c.RedisAddr != ""
}

// IsOIDCEnabled returns true if admin tokens should be verified against an issuer.
func (c *Config) IsOIDCEnabled() bool {
	return c.OIDCIssuer != ""
}
