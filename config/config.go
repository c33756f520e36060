package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Template usage recording modes.
const (
	UsageModeDirect = "direct"
	UsageModeQueue  = "queue"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AWS       AWSConfig
	Stripe    StripeConfig
	Templates TemplatesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/events?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the cover image bucket.
// Storage is disabled when CoversBucket is empty.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	CoversBucket         string
	PresignExpireMinutes int
}

// StripeConfig holds the payout provider key. Payout status sync is disabled when SecretKey is empty.
type StripeConfig struct {
	SecretKey string
}

// TemplatesConfig controls how template usage increments are applied.
type TemplatesConfig struct {
	UsageMode         string // "direct" (async DB update) or "queue" (Redis job, applied by cmd/worker)
	UsageTimeoutMilli int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "events"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			CoversBucket:         getEnv("AWS_S3_COVERS_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		},
		Templates: TemplatesConfig{
			UsageMode:         strings.ToLower(getEnv("TEMPLATE_USAGE_MODE", UsageModeDirect)),
			UsageTimeoutMilli: getEnvInt("TEMPLATE_USAGE_TIMEOUT_MS", 2000),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Templates.UsageMode {
	case UsageModeDirect, UsageModeQueue:
	default:
		return fmt.Errorf("invalid TEMPLATE_USAGE_MODE %q (want %q or %q)", c.Templates.UsageMode, UsageModeDirect, UsageModeQueue)
	}
	if c.JWT.ExpireHours <= 0 {
		return fmt.Errorf("JWT_EXPIRE_HOURS must be positive")
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
