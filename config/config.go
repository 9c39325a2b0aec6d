package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/phillip/event-ledger-go/logger"
)

type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	Transactions   bool
	JWTSecret      string
	CORSOrigin     string
	Currency       string
	CurrencySymbol string
	SweepInterval  time.Duration
	NotifyTimeout  time.Duration

	// ZeptoMail
	ZeptoAPIURL string
	ZeptoAPIKey string
	EmailFrom   string

	// Cloudinary
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	LogLevel  string
	LogFormat string
	LogOutput string

	// MongoClient is set once the connection is open.
	MongoClient *mongo.Client
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		MongoURI:            getEnv("MONGO_URI", ""),
		DBName:              getEnv("DB_NAME", "event_ledger"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		CORSOrigin:          getEnv("CORS_ORIGIN", "*"),
		Currency:            getEnv("CURRENCY", "INR"),
		CurrencySymbol:      getEnv("CURRENCY_SYMBOL", "₹"),
		ZeptoAPIURL:         getEnv("ZEPTO_API_URL", ""),
		ZeptoAPIKey:         getEnv("ZEPTO_API_KEY", ""),
		EmailFrom:           getEnv("EMAIL_FROM", ""),
		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogOutput:           getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if cfg.Transactions, err = strconv.ParseBool(getEnv("MONGO_TRANSACTIONS", "false")); err != nil {
		return nil, fmt.Errorf("MONGO_TRANSACTIONS: %w", err)
	}
	if cfg.SweepInterval, err = time.ParseDuration(getEnv("SWEEP_INTERVAL", "1h")); err != nil {
		return nil, fmt.Errorf("SWEEP_INTERVAL: %w", err)
	}
	if cfg.NotifyTimeout, err = time.ParseDuration(getEnv("NOTIFY_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("NOTIFY_TIMEOUT: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("SWEEP_INTERVAL cannot be negative")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive")
	}
	return nil
}

// RequireJWT is checked by commands that serve authenticated requests.
func (c *Config) RequireJWT() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func (c *Config) MailConfigured() bool {
	return c.ZeptoAPIURL != "" && c.ZeptoAPIKey != "" && c.EmailFrom != ""
}

func (c *Config) CloudinaryConfigured() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
