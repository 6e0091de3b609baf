package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Auth Config
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"saferoute"`

	// Incident lifecycle
	SweepInterval            time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
	DefaultQueryRadiusMeters float64       `env:"DEFAULT_QUERY_RADIUS_METERS" envDefault:"1000"`

	// Realtime. SOS_RATE_LIMIT=0 выключает ограничитель trigger_sos
	CORSOrigins  []string      `env:"CORS_ORIGINS"`
	SOSRateLimit time.Duration `env:"SOS_RATE_LIMIT" envDefault:"0"`
	SOSRateBurst int           `env:"SOS_RATE_BURST" envDefault:"3"`

	// Webhook Config
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		HTTPPort:                 getEnv("HTTP_PORT", "8080"),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		RedisAddr:                getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:                os.Getenv("REDIS_PASSWORD"),
		RedisDB:                  getEnvAsInt("REDIS_DB", 0),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		JWTIssuer:                getEnv("JWT_ISSUER", "saferoute"),
		SweepInterval:            getEnvAsDuration("SWEEP_INTERVAL", time.Hour),
		DefaultQueryRadiusMeters: getEnvAsFloat("DEFAULT_QUERY_RADIUS_METERS", 1000),
		CORSOrigins:              getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		SOSRateLimit:             getEnvAsDuration("SOS_RATE_LIMIT", 0),
		SOSRateBurst:             getEnvAsInt("SOS_RATE_BURST", 3),
		WebhookURL:               os.Getenv("WEBHOOK_URL"),
		WebhookSecret:            os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:           getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:        getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:         getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// getEnvAsList разбирает список через запятую
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	items := strings.Split(value, ",")
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}
	return items
}
