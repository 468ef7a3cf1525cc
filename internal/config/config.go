package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Port             string
	DBConn           string
	LogLevel         string
	JWTSecret        string
	StipendDailyRate decimal.Decimal
	SavingsCeiling   decimal.Decimal
	ReconcileCron    string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5432 user=postgres password=postgres dbname=vsla sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		ReconcileCron: getEnv("RECONCILE_CRON", "@every 1h"),
	}

	rate, err := decimal.NewFromString(getEnv("STIPEND_DAILY_RATE", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid STIPEND_DAILY_RATE: %w", err)
	}
	cfg.StipendDailyRate = rate

	ceiling, err := decimal.NewFromString(getEnv("SAVINGS_CEILING", "50000"))
	if err != nil {
		return nil, fmt.Errorf("invalid SAVINGS_CEILING: %w", err)
	}
	cfg.SavingsCeiling = ceiling

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if !cfg.StipendDailyRate.IsPositive() {
		return nil, fmt.Errorf("STIPEND_DAILY_RATE must be positive")
	}
	if !cfg.SavingsCeiling.IsPositive() {
		return nil, fmt.Errorf("SAVINGS_CEILING must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
