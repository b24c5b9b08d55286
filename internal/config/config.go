package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL string

	ShopifyStoreDomain   string
	ShopifyAccessToken   string
	ShopifyWebhookSecret string
	ShopifyTimeout       time.Duration

	CronSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string

	AppURL string

	StudentEmailSuffixes []string
	BlacklistedDomains   []string

	RedisAddr     string
	RedisPassword string

	VerifyRateLimitPerMin int
	ReconcileSchedule     string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPPort:              getEnv("HTTP_PORT", "8080"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		ShopifyStoreDomain:    os.Getenv("SHOPIFY_STORE_DOMAIN"),
		ShopifyAccessToken:    os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyWebhookSecret:  os.Getenv("SHOPIFY_WEBHOOK_SECRET"),
		CronSecret:            os.Getenv("CRON_SECRET"),
		SMTPHost:              os.Getenv("SMTP_HOST"),
		SMTPPort:              getEnvInt("SMTP_PORT", 587),
		SMTPUser:              os.Getenv("SMTP_USER"),
		SMTPPassword:          os.Getenv("SMTP_PASSWORD"),
		FromEmail:             getEnv("FROM_EMAIL", "verify@edubook.at"),
		AppURL:                strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),
		StudentEmailSuffixes:  splitCSV(getEnv("STUDENT_EMAIL_SUFFIXES", ".edu,.ac.at,.at")),
		BlacklistedDomains:    splitCSV(getEnv("BLACKLISTED_DOMAINS", "gmx.at")),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		VerifyRateLimitPerMin: getEnvInt("VERIFY_RATE_LIMIT_PER_MIN", 30),
		ReconcileSchedule:     os.Getenv("RECONCILE_SCHEDULE"),
	}

	timeout, err := time.ParseDuration(getEnv("SHOPIFY_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse SHOPIFY_TIMEOUT: %w", err)
	}
	cfg.ShopifyTimeout = timeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.ShopifyStoreDomain == "" {
		errs = append(errs, "SHOPIFY_STORE_DOMAIN is required")
	}
	if c.ShopifyAccessToken == "" {
		errs = append(errs, "SHOPIFY_ACCESS_TOKEN is required")
	}
	if len(c.ShopifyWebhookSecret) < 16 {
		errs = append(errs, "SHOPIFY_WEBHOOK_SECRET must be at least 16 chars")
	}
	if len(c.CronSecret) < 16 {
		errs = append(errs, "CRON_SECRET must be at least 16 chars")
	}
	if c.AppURL == "" {
		errs = append(errs, "APP_URL is required")
	}
	if len(c.StudentEmailSuffixes) == 0 {
		errs = append(errs, "STUDENT_EMAIL_SUFFIXES must not be empty")
	}
	if c.ShopifyTimeout <= 0 || c.ShopifyTimeout > time.Minute {
		errs = append(errs, "SHOPIFY_TIMEOUT must be between 1s and 1m")
	}
	if c.VerifyRateLimitPerMin <= 0 {
		errs = append(errs, "VERIFY_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.SMTPHost != "" && (c.SMTPPort <= 0 || c.SMTPPort > 65535) {
		errs = append(errs, "SMTP_PORT must be a valid port")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.ToLower(strings.TrimSpace(p))
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
