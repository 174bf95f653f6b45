package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Env      string `mapstructure:"ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`

	JWTSecret string `mapstructure:"JWT_SECRET"`
	RedisURL  string `mapstructure:"REDIS_URL"`

	RabbitMQURL   string `mapstructure:"RABBITMQ_URL"`
	AuditExchange string `mapstructure:"AUDIT_EXCHANGE"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	RazorpayKey           string `mapstructure:"RAZORPAY_KEY"`
	RazorpaySecret        string `mapstructure:"RAZORPAY_SECRET"`
	RazorpayWebhookSecret string `mapstructure:"RAZORPAY_WEBHOOK_SECRET"`

	PlansFile string `mapstructure:"PLANS_FILE"`

	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize    int           `mapstructure:"OUTBOX_BATCH_SIZE"`
	OutboxMaxAttempts  int           `mapstructure:"OUTBOX_MAX_ATTEMPTS"`
	OutboxRetention    time.Duration `mapstructure:"OUTBOX_RETENTION"`
	OutboxPruneCron    string        `mapstructure:"OUTBOX_PRUNE_SCHEDULE"`
	OrphanReportCron   string        `mapstructure:"ORPHAN_REPORT_SCHEDULE"`
}

var envKeys = []string{
	"ENV", "PORT", "LOG_LEVEL",
	"STORE_DRIVER", "DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"JWT_SECRET", "REDIS_URL", "RABBITMQ_URL", "AUDIT_EXCHANGE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
	"RAZORPAY_KEY", "RAZORPAY_SECRET", "RAZORPAY_WEBHOOK_SECRET",
	"PLANS_FILE",
	"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_ATTEMPTS", "OUTBOX_RETENTION",
	"OUTBOX_PRUNE_SCHEDULE", "ORPHAN_REPORT_SCHEDULE",
}

// LoadConfig loads configuration from a .env file (if present) and the environment
func LoadConfig() (*Config, error) {
	// A missing .env is fine in containers; the environment is authoritative.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "linksphere")
	v.SetDefault("AUDIT_EXCHANGE", "linksphere.audit")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("OUTBOX_POLL_INTERVAL", "2s")
	v.SetDefault("OUTBOX_BATCH_SIZE", 50)
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 10)
	v.SetDefault("OUTBOX_RETENTION", "168h")
	v.SetDefault("OUTBOX_PRUNE_SCHEDULE", "0 3 * * *")
	v.SetDefault("ORPHAN_REPORT_SCHEDULE", "0 4 * * *")
	v.AutomaticEnv()

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	var problems []string

	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" && c.DBName == "" {
			problems = append(problems, "DATABASE_URL or DB_NAME is required")
		}
	case StoreMemory:
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER must be %q or %q", StorePostgres, StoreMemory))
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.OutboxMaxAttempts < 1 {
		problems = append(problems, "OUTBOX_MAX_ATTEMPTS must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
