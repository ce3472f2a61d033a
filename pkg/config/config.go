package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. All environment
// variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// AdminToken guards the manual reminder trigger and ingestion endpoints.
	AdminToken string

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Mail
	Mail MailConfig

	// Extraction
	Extraction ExtractionConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration. Redis is optional: with it disabled
// the API serves uncached and the trigger endpoint is not rate limited.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// MailConfig holds the notification transport configuration. Provider is one
// of "mailgun", "smtp" or "log".
type MailConfig struct {
	Provider string

	MailgunDomain string
	MailgunAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	SenderEmail string
	SenderName  string

	// Outbound send throttle (messages per second).
	SendsPerSecond float64
}

// ExtractionConfig holds the document extraction API configuration.
type ExtractionConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// SchedulerConfig holds the reminder scan schedule.
type SchedulerConfig struct {
	// Cron expression with a seconds field, e.g. "0 0 8 * * *".
	ScanSchedule string
}

// Load reads configuration from environment variables. Only this function
// calls os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port:       getEnv("PORT", "8085"),
		Env:        getEnv("ENV", "development"),
		AdminToken: getEnv("ADMIN_AUTH_TOKEN", ""),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Mail: MailConfig{
			Provider:       getEnv("MAIL_PROVIDER", "log"),
			MailgunDomain:  getEnv("MAILGUN_DOMAIN", ""),
			MailgunAPIKey:  getEnv("MAILGUN_API_KEY", ""),
			SMTPHost:       getEnv("SMTP_HOST", ""),
			SMTPPort:       getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:       getEnv("SMTP_USER", ""),
			SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
			SenderEmail:    getEnv("MAIL_SENDER", ""),
			SenderName:     getEnv("MAIL_SENDER_NAME", "Trade Finance Compliance"),
			SendsPerSecond: getEnvAsFloat("MAIL_SENDS_PER_SECOND", 2),
		},

		Extraction: ExtractionConfig{
			APIKey:  getEnv("EXTRACTION_API_KEY", ""),
			Model:   getEnv("EXTRACTION_MODEL", "gpt-4o-mini"),
			BaseURL: getEnv("EXTRACTION_BASE_URL", ""),
		},

		Scheduler: SchedulerConfig{
			ScanSchedule: getEnv("REMINDER_SCAN_SCHEDULE", "0 0 8 * * *"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required configuration values. Missing store or notifier
// configuration is fatal: the engine refuses to start rather than run a scan
// that would partially operate.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Mail.Provider {
	case "mailgun", "smtp", "log":
	default:
		return fmt.Errorf("MAIL_PROVIDER must be one of: mailgun, smtp, log")
	}

	if c.Env == "production" && c.AdminToken == "" {
		return fmt.Errorf("ADMIN_AUTH_TOKEN is required in production")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
