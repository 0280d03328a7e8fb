package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/eastatwest/restaurant-app/utils"
)

const (
	StoreSQLite   = "sqlite"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
	StoreHosted   = "hosted"
)

type Config struct {
	Port    string
	GinMode string

	// Store selects the reservation backend: sqlite, mysql, postgres or hosted.
	Store       string
	DatabaseDSN string
	// OutboxDSN is the local sqlite file holding the notification outbox when
	// reservations live in the hosted backend.
	OutboxDSN string

	Backend    BackendConfig
	Email      EmailConfig
	Dispatcher DispatcherConfig

	CORSOrigins      []string
	TrustedProxies   []string
	RequestTimeout   time.Duration
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
}

type BackendConfig struct {
	URL         string
	AnonKey     string
	JWTSecret   string
	HostPattern string
}

type EmailConfig struct {
	APIKey  string
	From    string
	BaseURL string
	Timeout time.Duration
}

type DispatcherConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// Load reads the configuration from the environment. The .env file, if any,
// is loaded by main before this runs.
func Load() *Config {
	return &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		GinMode:     getEnvOrDefault("GIN_MODE", "debug"),
		Store:       strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreSQLite)),
		DatabaseDSN: getEnvOrDefault("DATABASE_DSN", "eastatwest.db"),
		OutboxDSN:   getEnvOrDefault("OUTBOX_DSN", "outbox.db"),
		Backend: BackendConfig{
			URL:         os.Getenv("BACKEND_URL"),
			AnonKey:     os.Getenv("BACKEND_ANON_KEY"),
			JWTSecret:   os.Getenv("BACKEND_JWT_SECRET"),
			HostPattern: getEnvOrDefault("BACKEND_HOST_PATTERN", "supabase"),
		},
		Email: EmailConfig{
			APIKey:  os.Getenv("RESEND_API_KEY"),
			From:    getEnvOrDefault("EMAIL_FROM", "East At West <reservations@eastatwest.com>"),
			BaseURL: getEnvOrDefault("RESEND_BASE_URL", "https://api.resend.com"),
			Timeout: getEnvAsSecondsOrDefault("EMAIL_TIMEOUT_SECONDS", 30),
		},
		Dispatcher: DispatcherConfig{
			Interval:    getEnvAsSecondsOrDefault("DISPATCH_INTERVAL_SECONDS", 15),
			BatchSize:   getEnvAsIntOrDefault("DISPATCH_BATCH_SIZE", 20),
			MaxAttempts: getEnvAsIntOrDefault("DISPATCH_MAX_ATTEMPTS", 5),
		},
		CORSOrigins:      getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8081", "http://localhost:19006"}),
		TrustedProxies:   getEnvAsListOrDefault("TRUSTED_PROXIES", []string{"127.0.0.1"}),
		RequestTimeout:   getEnvAsSecondsOrDefault("REQUEST_TIMEOUT_SECONDS", 10),
		SubmitRateLimit:  getEnvAsIntOrDefault("RESERVATION_RATE_LIMIT", 5),
		SubmitRateWindow: getEnvAsSecondsOrDefault("RESERVATION_RATE_WINDOW_SECONDS", 60),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	utils.InfoLogger.Debugf("Environment variable %s is not set, using default value", key)
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
		utils.InfoLogger.Warnf("Environment variable %s=%q is not a positive integer, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvAsSecondsOrDefault(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsIntOrDefault(key, defaultSeconds)) * time.Second
}

func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
