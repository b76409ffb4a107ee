package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	AllowedOrigins []string
	MaxBodyBytes   int64
	RateLimit      int
	RateWindow     time.Duration

	TracingEnabled bool
	OTELEndpoint   string
}

func Load() Config {
	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,

		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		RateLimit:      getEnvInt("RATE_LIMIT", 30),
		RateWindow:     time.Duration(getEnvInt("RATE_WINDOW_SECONDS", 60)) * time.Second,

		TracingEnabled: getEnv("OTEL_ENABLED", "") == "true",
		OTELEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	// a full DSN wins over the individual parts
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "storefront")
	pass := getEnv("DB_PASSWORD", "storefront")
	name := getEnv("DB_NAME", "storefront")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)

		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
