package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Environment   string
	LogLevel      string
	HTTPAddr      string
	DBDSN         string
	StorageDriver string
	MigrationsDir string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr     string
	NATSURL       string
	TelegramToken string

	FollowRequestTTL time.Duration
	SendRatePerSec   float64
	SendBurst        int
	SuggestionsLimit int
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из произвольного источника переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Environment:   getenv("ENV"),
		LogLevel:      getenv("LOG_LEVEL"),
		HTTPAddr:      getenv("HTTP_ADDR"),
		DBDSN:         getenv("DB_DSN"),
		StorageDriver: getenv("STORAGE_DRIVER"),
		MigrationsDir: getenv("MIGRATIONS_DIR"),
		JWTSecret:     getenv("JWT_SECRET"),
		RedisAddr:     getenv("REDIS_ADDR"),
		NATSURL:       getenv("NATS_URL"),
		TelegramToken: getenv("TELEGRAM_TOKEN"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = StorageDriverPostgres
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}

	var err error
	if cfg.JWTTTL, err = durationVar(getenv, "JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FollowRequestTTL, err = durationVar(getenv, "FOLLOW_REQUEST_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SendRatePerSec, err = floatVar(getenv, "SEND_RATE_PER_SEC", 5); err != nil {
		return nil, err
	}
	if cfg.SendBurst, err = intVar(getenv, "SEND_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.SuggestionsLimit, err = intVar(getenv, "SUGGESTIONS_LIMIT", 50); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func floatVar(getenv func(string) string, key string, def float64) (float64, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}
