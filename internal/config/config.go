package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string

	// 0 - без ограничения
	MaxOpenConns int
}

type Config struct {
	HTTPAddr       string
	Storage        string
	JWTSecret      string
	TokenTTL       time.Duration
	MetricsEnabled bool
	WSWriteTimeout time.Duration
	DB             DBConfig
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		slog.Debug(".env file not found")
	}
}

// Load читает конфигурацию сервера из окружения.
// Данные БД нужны только для postgres-хранилища, поэтому там значения по умолчанию.
func Load() *Config {
	return &Config{
		HTTPAddr:       GetEnvDefault("HTTP_ADDR", ":8080"),
		Storage:        GetEnvDefault("STORAGE", "memory"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       GetDuration("TOKEN_TTL", 72*time.Hour),
		MetricsEnabled: GetBool("METRICS_ENABLED", true),
		WSWriteTimeout: GetDuration("WS_WRITE_TIMEOUT", 10*time.Second),
		DB: DBConfig{
			Host:     GetEnvDefault("DB_HOST", "localhost"),
			User:     GetEnvDefault("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     GetEnvDefault("DB_NAME", "forum"),
			Port:     GetEnvDefault("DB_PORT", "5432"),
			SSLMode:  GetEnvDefault("DB_SSLMODE", "disable"),

			MaxOpenConns: GetInt("DB_MAX_OPEN_CONNS", 10),
		},
	}
}

func GetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		slog.Error("environment variable is not set", "key", key)
		os.Exit(1)
	}
	return value
}

func GetEnvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

func GetDuration(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "err", err, "default", def)
		return def
	}
	return d
}

func GetInt(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid int, using default", "key", key, "err", err, "default", def)
		return def
	}
	return n
}

func GetBool(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("invalid bool, using default", "key", key, "err", err, "default", def)
		return def
	}
	return b
}
