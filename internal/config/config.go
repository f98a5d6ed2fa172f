package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	MetricsAddr     string
	DatabaseURL     string
	KafkaBrokers    []string
	EventTopic      string
	EventSigningKey string
	EventWorkers    int
	RequestTimeout  time.Duration
}

// Load reads configuration from the environment, after loading a .env file if
// one is present. Every value has a default; DATABASE_URL and KAFKA_BROKERS
// default to empty, which selects the in-memory store and the log-only event
// publisher.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9090"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		KafkaBrokers:    splitList(getEnv("KAFKA_BROKERS", "")),
		EventTopic:      getEnv("EVENT_TOPIC", "balance_updated"),
		EventSigningKey: getEnv("EVENT_SIGNING_KEY", ""),
		EventWorkers:    getEnvInt("EVENT_WORKERS", 3),
		RequestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
