package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "development"
	EnvProd  = "production"
)

type Config struct {
	Env         string
	Port        string
	PostgresURL string
	FrontendURL string
	TimeZone    string

	JWTSecret      string
	AccessTokenTTL time.Duration

	Stripe    StripeConfig
	Pricing   MembershipPricing
	Kafka     KafkaConfig
	RedisAddr string

	ResetTokenTTL time.Duration
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string
	Currency       string
	MaxAttempts    int
}

// MembershipPricing holds membership prices in minor units.
type MembershipPricing struct {
	Monthly  int64
	Annual   int64
	Lifetime int64
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ENV", EnvLocal)
	v.SetDefault("PORT", "8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("PAYMENT_CURRENCY", "usd")
	v.SetDefault("GATEWAY_MAX_ATTEMPTS", 3)
	v.SetDefault("MEMBERSHIP_PRICE_MONTHLY", 1000)
	v.SetDefault("MEMBERSHIP_PRICE_ANNUAL", 10000)
	v.SetDefault("MEMBERSHIP_PRICE_LIFETIME", 50000)
	v.SetDefault("KAFKA_TOPIC", "alumni.events")
	v.SetDefault("RESET_TOKEN_TTL", "15m")

	cfg := &Config{
		Env:            v.GetString("ENV"),
		Port:           v.GetString("PORT"),
		PostgresURL:    v.GetString("POSTGRES_URL"),
		FrontendURL:    v.GetString("FRONTEND_URL"),
		TimeZone:       v.GetString("TIMEZONE"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AccessTokenTTL: v.GetDuration("ACCESS_TOKEN_TTL"),
		Stripe: StripeConfig{
			SecretKey:      v.GetString("STRIPE_SECRET_KEY"),
			PublishableKey: v.GetString("STRIPE_PUBLISHABLE_KEY"),
			WebhookSecret:  v.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:       strings.ToLower(v.GetString("PAYMENT_CURRENCY")),
			MaxAttempts:    v.GetInt("GATEWAY_MAX_ATTEMPTS"),
		},
		Pricing: MembershipPricing{
			Monthly:  v.GetInt64("MEMBERSHIP_PRICE_MONTHLY"),
			Annual:   v.GetInt64("MEMBERSHIP_PRICE_ANNUAL"),
			Lifetime: v.GetInt64("MEMBERSHIP_PRICE_LIFETIME"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		RedisAddr:     v.GetString("REDIS_ADDR"),
		ResetTokenTTL: v.GetDuration("RESET_TOKEN_TTL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.PostgresURL == "" {
		errs = append(errs, errors.New("POSTGRES_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// Location is the zone whose calendar decides what "today" is for
// membership dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
