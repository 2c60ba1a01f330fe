package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=controlos port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

var (
	ErrJWTSecretMissing  = errors.New("JWT_SECRET is required")
	ErrJWTSecretTooShort = errors.New("JWT_SECRET must be at least 32 characters")
	ErrInvalidRedisDB    = errors.New("REDIS_DB must be a valid integer")
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel    string
	LogFilePath string

	// Advisor is optional; an empty URL disables shift suggestions.
	AdvisorURL     string
	AdvisorAPIKey  string
	AdvisorTimeout time.Duration

	MaxUploadMB int
}

// Load reads a .env file when one exists and then the process environment.
func Load() (*Config, error) {
	// .env is optional, production sets real env vars
	_ = godotenv.Load()

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, ErrInvalidRedisDB
		}
		redisDB = parsed
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        redisDB,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFilePath:    getEnv("LOG_FILE_PATH", ""),
		AdvisorURL:     getEnv("ADVISOR_URL", ""),
		AdvisorAPIKey:  getEnv("ADVISOR_API_KEY", ""),
		AdvisorTimeout: getEnvDuration("ADVISOR_TIMEOUT", 30*time.Second),
		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrJWTSecretMissing
	}
	if len(c.JWTSecret) < 32 {
		return ErrJWTSecretTooShort
	}
	return nil
}

// Warnings lists settings still on their development defaults.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.DatabaseDSN == defaultDSN {
		warnings = append(warnings, "DATABASE_DSN is using the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		warnings = append(warnings, "CORS_ALLOWED_ORIGINS is using the default value, set your own domain for production")
	}
	return warnings
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return def
}
