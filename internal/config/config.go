package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	MigrationsPath  string
	SessionDuration time.Duration
	JWTSecret       string
	Debug           bool

	// Book metadata lookup
	BooksAPIURL        string
	BooksLookupTimeout time.Duration

	// Optional redis for cross-instance locking
	RedisAddr     string
	RedisPassword string

	// OAuth
	GoogleClientID       string
	GoogleClientSecret   string
	OAuthRedirectBaseURL string

	// Email (Amazon SES)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// Cron spec for the nightly achievement sweep
	ReconcileSchedule string
}

// Load reads configuration from environment variables (and an optional
// CONFIG_FILE) with sensible defaults
func Load() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Warning: failed to read config file %s: %v", file, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DB_PATH", "./bookbuddy.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATIONS_PATH", "")
	v.SetDefault("SESSION_DURATION", 30*24*time.Hour)
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("DEBUG", false)
	v.SetDefault("BOOKS_API_URL", "https://www.googleapis.com/books/v1")
	v.SetDefault("BOOKS_LOOKUP_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("OAUTH_REDIRECT_BASE_URL", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SES_FROM_EMAIL", "")
	v.SetDefault("SES_FROM_NAME", "BookBuddy")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("RECONCILE_SCHEDULE", "0 3 * * *")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		ServerPort:           v.GetString("PORT"),
		DatabaseType:         v.GetString("DB_TYPE"),
		DatabasePath:         v.GetString("DB_PATH"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		MigrationsPath:       v.GetString("MIGRATIONS_PATH"),
		SessionDuration:      v.GetDuration("SESSION_DURATION"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		Debug:                v.GetBool("DEBUG"),
		BooksAPIURL:          v.GetString("BOOKS_API_URL"),
		BooksLookupTimeout:   v.GetDuration("BOOKS_LOOKUP_TIMEOUT"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		GoogleClientID:       v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   v.GetString("GOOGLE_CLIENT_SECRET"),
		OAuthRedirectBaseURL: v.GetString("OAUTH_REDIRECT_BASE_URL"),
		AWSRegion:            v.GetString("AWS_REGION"),
		SESFromEmail:         v.GetString("SES_FROM_EMAIL"),
		SESFromName:          v.GetString("SES_FROM_NAME"),
		AppBaseURL:           v.GetString("APP_BASE_URL"),
		ReconcileSchedule:    v.GetString("RECONCILE_SCHEDULE"),
	}
}
