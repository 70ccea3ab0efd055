package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Telegram  TelegramConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
}

type TelegramConfig struct {
	Token         string
	ProviderToken string
	Currency      string
	ImageDir      string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type KafkaConfig struct {
	Brokers  []string
	MockMode bool
}

type RedisConfig struct {
	Addr string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RateLimitConfig struct {
	MaxCalls int
	Window   time.Duration
}

func Load() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:         os.Getenv("TELEGRAM_TOKEN"),
			ProviderToken: os.Getenv("PAYMENT_PROVIDER_TOKEN"),
			Currency:      getEnv("CURRENCY", "EUR"),
			ImageDir:      getEnv("IMAGE_DIR", "event_images"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "3306"),
			Username:     getEnv("DB_USER", "root"),
			Password:     os.Getenv("DB_PASSWORD"),
			Database:     getEnv("DB_NAME", "event_payments"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:  strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			MockMode: getEnvBool("KAFKA_MOCK", true),
		},
		Redis: RedisConfig{
			Addr: os.Getenv("REDIS_ADDR"),
		},
		Server: ServerConfig{
			Port:         getEnv("ADMIN_PORT", ":8086"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			MaxCalls: getEnvInt("RATE_LIMIT_MAX_CALLS", 40),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
