package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	LogLevel       string
	LogFormat      string
	Port           string
	Timezone       string
	JWTSecret      string

	RedisURL string

	RateLimitRPS   int
	RateLimitBurst int

	NaverClientID     string
	NaverClientSecret string
	NaverShopURL      string
	CaptionServerURL  string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	TelegramToken string

	SettlementFormURL string
	FrontendBaseURL   string
	AutoEventSpec     string
	CORSOrigins       string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		MigrationsPath:    getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("LOG_FORMAT", "text"),
		Port:              getEnvOrDefault("PORT", "8080"),
		Timezone:          getEnvOrDefault("TIMEZONE", "Asia/Seoul"),
		RedisURL:          os.Getenv("REDIS_URL"),
		NaverClientID:     os.Getenv("NAVER_CLIENT_ID"),
		NaverClientSecret: os.Getenv("NAVER_CLIENT_SECRET"),
		NaverShopURL:      getEnvOrDefault("NAVER_SHOP_URL", "https://openapi.naver.com/v1/search/shop.json"),
		CaptionServerURL:  getEnvOrDefault("CAPTION_SERVER_URL", "http://localhost:5000"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          getEnvOrDefault("S3_REGION", "ap-northeast-2"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPUsername:      os.Getenv("SMTP_USERNAME"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		MailFrom:          getEnvOrDefault("MAIL_FROM", "no-reply@moamoa.app"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		SettlementFormURL: os.Getenv("SETTLEMENT_GOOGLE_FORM_URL"),
		FrontendBaseURL:   getEnvOrDefault("FRONTEND_BASE_URL", "https://moamoa.app"),
		AutoEventSpec:     getEnvOrDefault("AUTO_EVENT_SPEC", "0 0 * * *"),
		CORSOrigins:       getEnvOrDefault("CORS_ORIGIN", "http://localhost:3000"),
	}

	var err error
	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.JWTSecret = os.Getenv("JWT_SECRET"); cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if cfg.RateLimitRPS, err = getIntOrDefault("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getIntOrDefault("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getIntOrDefault("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.S3UseSSL = getEnvOrDefault("S3_USE_SSL", "true") == "true"

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location returns the configured time zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}
