package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"commerce-core/common/database"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	Env             string
	Postgres        database.Config
	KafkaBrokers    string
	Currency        string
	GatewayTimeout  time.Duration
	StripeSecretKey string
	PayPalBaseURL   string
	PayPalClientID  string
	PayPalSecret    string
	OrderServiceURL string
	ValidateAmounts bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8084"),
		Env:  getEnv("APP_ENV", "development"),
		Postgres: database.Config{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
		Currency:        getEnv("PAYMENT_CURRENCY", "usd"),
		GatewayTimeout:  getDuration("GATEWAY_TIMEOUT", 30*time.Second),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		PayPalBaseURL:   getEnv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
		PayPalClientID:  os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:    os.Getenv("PAYPAL_SECRET"),
		OrderServiceURL: os.Getenv("ORDER_SERVICE_URL"),
		ValidateAmounts: getBool("VALIDATE_PAYMENT_AMOUNTS", false),
	}

	if cfg.Postgres.User == "" || cfg.Postgres.Password == "" || cfg.Postgres.DBName == "" || cfg.Postgres.Host == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
