package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tair/rfid-textile/pkg/cache"
	"github.com/tair/rfid-textile/pkg/database"
)

// Config holds the lots service configuration
type Config struct {
	ServiceName    string
	Environment    string
	LogLevel       string
	HTTPPort       string
	RequestTimeout time.Duration

	Database database.Config

	TracingEnabled bool
	JaegerEndpoint string

	KafkaBrokers []string
	KafkaGroupID string

	Redis          cache.Config
	WorkerCacheTTL time.Duration

	AuthEnabled bool
	JWTSecret   string

	ReaderRateLimit  int
	ReaderRateWindow time.Duration
	TrustedProxies   []string

	DailyTargetLots int
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "lots-service"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPPort:       getEnv("HTTP_PORT", "5000"),
		RequestTimeout: getEnvDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),

		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "textile"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Schema:   getEnv("DB_SCHEMA", "rfid_system"),
		},

		TracingEnabled: getEnvBool("TRACING_ENABLED", true),
		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "lots-service"),

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		WorkerCacheTTL: getEnvDuration("WORKER_CACHE_TTL", 5*time.Minute),

		AuthEnabled: getEnvBool("AUTH_ENABLED", true),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		ReaderRateLimit:  getEnvInt("READER_RATE_LIMIT", 120),
		ReaderRateWindow: getEnvDuration("READER_RATE_WINDOW", time.Minute),
		TrustedProxies:   splitList(getEnv("TRUSTED_PROXIES", "")),

		DailyTargetLots: getEnvInt("DAILY_TARGET_LOTS", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
