package config

import (
	"fmt"
	"os"

	"commerce-core/common/database"
	"commerce-core/order-service/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port          string
	Env           string
	Postgres      database.Config
	KafkaBrokers  string
	CheckoutTopic string
	ConsumerGroup string
	Pricing       models.Pricing
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8083"),
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
		KafkaBrokers:  getEnv("KAFKA_BROKERS", "localhost:9092"),
		CheckoutTopic: getEnv("CHECKOUT_TOPIC", "checkout.requested"),
		ConsumerGroup: getEnv("CONSUMER_GROUP", "order-service-group"),
		Pricing: models.Pricing{
			TaxRate:               mustDecimal(getEnv("TAX_RATE", "0.10")),
			FlatShippingFee:       mustDecimal(getEnv("FLAT_SHIPPING_FEE", "10.00")),
			FreeShippingThreshold: mustDecimal(getEnv("FREE_SHIPPING_THRESHOLD", "100.00")),
		},
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

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("invalid decimal %q: %v", s, err))
	}
	return d
}
