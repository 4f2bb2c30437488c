package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки приложения, загружаемые из переменных окружения.
type Config struct {
	// HTTP сервер
	Port           string
	GinMode        string
	AllowedOrigins []string

	// База данных
	DatabaseURL    string
	MigrationsPath string

	// JWT
	JWTAccessSecret  string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	// Redis (кэширование списков работ). Пустая строка отключает кэш.
	RedisAddr     string
	RedisPassword string

	// SMTP (письма с кодами подтверждения). Пустой host отключает почту.
	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUser     string
	SMTPPassword string

	// Firebase Cloud Messaging. Пустой путь отключает push-уведомления.
	FirebaseCredentials string

	// Rate limiting
	RateLimitRequests int64
	RateLimitWindow   time.Duration

	Environment string
}

// Load загружает конфигурацию из .env файла и переменных окружения.
func Load() (*Config, error) {
	// .env опционален: в проде переменные задаются окружением
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		DatabaseURL:    getDatabaseURL(),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),

		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", "dev-access-secret"),
		JWTRefreshSecret: getEnv("JWT_REFRESH_SECRET", "dev-refresh-secret"),
		AccessTokenTTL:   mustParseDuration(getEnv("ACCESS_TOKEN_TTL", "15m")),
		RefreshTokenTTL:  mustParseDuration(getEnv("REFRESH_TOKEN_TTL", "720h")),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     int(mustParseInt64(getEnv("SMTP_PORT", "587"))),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@doers.app"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		RateLimitRequests: mustParseInt64(getEnv("RATE_LIMIT_REQUESTS", "10")),
		RateLimitWindow:   mustParseDuration(getEnv("RATE_LIMIT_WINDOW", "1m")),

		Environment: getEnv("ENVIRONMENT", "development"),
	}

	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.Environment == "production" {
		if cfg.JWTAccessSecret == "dev-access-secret" || cfg.JWTRefreshSecret == "dev-refresh-secret" {
			return nil, fmt.Errorf("config: в production необходимо задать JWT_ACCESS_SECRET и JWT_REFRESH_SECRET")
		}
	}

	return cfg, nil
}

// getDatabaseURL собирает DSN из отдельных переменных, если DATABASE_URL не задан.
func getDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "123")
	name := getEnv("DB_NAME", "doers")
	sslmode := getEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, name, sslmode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustParseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func mustParseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 10
	}
	return n
}
