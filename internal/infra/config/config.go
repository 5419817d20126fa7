package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken           string
	DatabaseURL             string
	DBMaxOpenConns          int
	DBMaxIdleConns          int
	DBConnMaxLifetime       time.Duration
	RedisURL                string // empty keeps chat states in memory
	LogLevel                string
	Environment             string
	SearchDebounce          time.Duration
	SearchLimit             int
	SessionTTL              time.Duration
	CronSpecPendingReminder string
	CronSpecSessionSweep    string
	PendingReminderAfter    time.Duration
	MigrateOnStart          bool
}

func defaults(v *viper.Viper) {
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SEARCH_DEBOUNCE", "300ms")
	v.SetDefault("SEARCH_LIMIT", 50)
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("CRON_SPEC_PENDING_REMINDER", "0 9 * * *") // 9 AM daily
	v.SetDefault("CRON_SPEC_SESSION_SWEEP", "30 3 * * *")   // 3:30 AM daily
	v.SetDefault("PENDING_REMINDER_AFTER", "24h")
	v.SetDefault("MIGRATE_ON_START", true)
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	cfg := &AppConfig{
		TelegramToken:           v.GetString("TELEGRAM_TOKEN"),
		DatabaseURL:             v.GetString("DATABASE_URL"),
		DBMaxOpenConns:          v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:          v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetime:       v.GetDuration("DB_CONN_MAX_LIFETIME"),
		RedisURL:                v.GetString("REDIS_URL"),
		LogLevel:                strings.ToLower(v.GetString("LOG_LEVEL")),
		Environment:             strings.ToLower(v.GetString("ENVIRONMENT")),
		SearchDebounce:          v.GetDuration("SEARCH_DEBOUNCE"),
		SearchLimit:             v.GetInt("SEARCH_LIMIT"),
		SessionTTL:              v.GetDuration("SESSION_TTL"),
		CronSpecPendingReminder: v.GetString("CRON_SPEC_PENDING_REMINDER"),
		CronSpecSessionSweep:    v.GetString("CRON_SPEC_SESSION_SWEEP"),
		PendingReminderAfter:    v.GetDuration("PENDING_REMINDER_AFTER"),
		MigrateOnStart:          v.GetBool("MIGRATE_ON_START"),
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.SearchDebounce <= 0 {
		return nil, fmt.Errorf("invalid SEARCH_DEBOUNCE %q", v.GetString("SEARCH_DEBOUNCE"))
	}
	if cfg.SearchLimit <= 0 {
		return nil, fmt.Errorf("invalid SEARCH_LIMIT %q", v.GetString("SEARCH_LIMIT"))
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL %q", v.GetString("SESSION_TTL"))
	}
	if cfg.PendingReminderAfter <= 0 {
		return nil, fmt.Errorf("invalid PENDING_REMINDER_AFTER %q", v.GetString("PENDING_REMINDER_AFTER"))
	}

	return cfg, nil
}
