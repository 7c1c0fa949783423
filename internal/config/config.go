package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-wide application configuration, loaded once at
// startup and treated as immutable thereafter.
type Config struct {
	Environment string
	Version     string
	API         APIConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	Reconcile   ReconcileConfig
}

// APIConfig contains HTTP server configuration.
type APIConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	RateLimit      int
}

// DatabaseConfig contains the PostgreSQL connection string and pool sizing.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig contains the Redis connection string used by the rate
// limiter, the status check and the worker queue.
type RedisConfig struct {
	URL string
}

// JWTConfig contains JWT signing configuration.
type JWTConfig struct {
	Secret             string
	Algorithm          string
	ExpirationMinutes  int
}

// LogConfig contains structured-logging configuration.
type LogConfig struct {
	Level string
}

// ReconcileConfig controls the scheduled reconciliation sweep.
type ReconcileConfig struct {
	Enabled   bool
	Interval  string
	SourceURL string
	SourceRPS float64
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
}

// knownWeakJWTSecrets rejects the sort of default placeholder a developer
// forgets to change before deploying.
var knownWeakJWTSecrets = map[string]bool{
	"secret":                           true,
	"changeme":                         true,
	"your-secret-key":                  true,
	"your-secret-key-change-in-production": true,
	"development":                     true,
	"test":                             true,
}

// Load reads configuration from environment variables, layering a `.env`
// file (if present) under the real process environment, then validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		Version:     getEnv("VERSION", "1.0.0"),
		API: APIConfig{
			Host:           getEnv("HOST", "0.0.0.0"),
			Port:           getEnvAsInt("PORT", 8080),
			ReadTimeout:    time.Duration(getEnvAsInt("API_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout:   time.Duration(getEnvAsInt("API_WRITE_TIMEOUT", 30)) * time.Second,
			AllowedOrigins: getEnvAsSlice("ALLOW_ORIGINS", []string{"http://localhost:3000"}),
			RateLimit:      getEnvAsInt("API_RATE_LIMIT", 100),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			Algorithm:         getEnv("JWT_ALGORITHM", "HS256"),
			ExpirationMinutes: getEnvAsInt("JWT_EXPIRATION_MINUTES", 60),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Reconcile: ReconcileConfig{
			Enabled:   getEnvAsBool("RECONCILE_SWEEP_ENABLED", false),
			Interval:  getEnv("RECONCILE_SWEEP_INTERVAL", "@daily"),
			SourceURL: getEnv("RECONCILE_SOURCE_URL", ""),
			SourceRPS: getEnvAsFloat("RECONCILE_SOURCE_RPS", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the fail-fast startup rules: a reachable-looking
// database URL, a strong signing secret, and a recognised log level.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	} else if _, err := url.Parse(c.Database.URL); err != nil {
		errs = append(errs, fmt.Sprintf("DATABASE_URL is not a valid URL: %v", err))
	}

	if len(c.JWT.Secret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 bytes")
	} else if knownWeakJWTSecrets[strings.ToLower(c.JWT.Secret)] {
		errs = append(errs, "JWT_SECRET must not be a well-known default value")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL %q is not one of debug|info|warn|error|fatal", c.Log.Level))
	}

	if c.Environment == "production" && c.Redis.URL == "" {
		errs = append(errs, "REDIS_URL is required in production")
	}

	if c.Reconcile.Enabled && c.Reconcile.SourceURL == "" {
		errs = append(errs, "RECONCILE_SOURCE_URL is required when the reconciliation sweep is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// IsDevelopment reports whether the process is running in development mode.
func (c *Config) IsDevelopment() bool { return c.Environment == "development" }

// IsProduction reports whether the process is running in production mode.
func (c *Config) IsProduction() bool { return c.Environment == "production" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
