// internal/config/config.go
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/trailblaize/outreach-backend/internal/model"
)

// Config holds all configuration for the application. It is built once in
// main and passed by dependency injection; scheduling code never reads the
// environment directly.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	AMQPURL     string
	LogLevel    string
	LogFormat   string // "console" or "json"

	Gateway  GatewayConfig
	Outreach OutreachConfig
}

// GatewayConfig holds messaging-gateway API settings.
type GatewayConfig struct {
	BaseURL        string
	APIToken       string
	TimeoutSeconds int
}

// OutreachConfig holds engine tunables.
type OutreachConfig struct {
	// DefaultClassification is applied to inbound text no rule matches.
	// The source treats unmatched replies as an implicit positive so the
	// sequence never stalls; operators with a different risk tolerance can
	// set it to "question" instead.
	DefaultClassification model.Classification

	SenderName string
	SignupLink string
}

// Load reads configuration from the environment, attempting a .env file first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, relying on OS environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AMQPURL:     os.Getenv("AMQP_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),
		Gateway: GatewayConfig{
			BaseURL:        getEnv("LINQ_BASE_URL", "https://api.linqapp.com/api/partner/v3"),
			APIToken:       os.Getenv("LINQ_API_TOKEN"),
			TimeoutSeconds: getEnvInt("LINQ_TIMEOUT_SECONDS", 15),
		},
		Outreach: OutreachConfig{
			DefaultClassification: model.Classification(getEnv("DEFAULT_CLASSIFICATION", string(model.ClassConfirmed))),
			SenderName:            getEnv("OUTREACH_SENDER_NAME", "Owen"),
			SignupLink:            os.Getenv("OUTREACH_SIGNUP_LINK"),
		},
	}

	return cfg, nil
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
