package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Calendar sync modes.
const (
	CalendarSyncAsync = "async"
	CalendarSyncSync  = "sync"
)

// Calendar store backends.
const (
	CalendarStoreBadger = "badger"
	CalendarStoreVault  = "vault"
)

// Config holds all application configuration.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	DatabaseURL   string
	RunMigrations bool

	AllowedOrigins []string

	// Google OAuth client used to exchange authorization codes
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	GoogleHTTPTimeout  time.Duration

	// Calendar list persistence
	CalendarSyncMode   string
	CalendarStore      string
	CalendarBadgerDir  string
	CalendarVaultMount string
	CalendarWorkers    int
	CalendarQueueSize  int
	CalendarJobTimeout time.Duration

	// Vault Configuration
	VaultAddr  string
	VaultToken string

	GCPProjectID  string
	EventsTopicID string
}

// Load loads configuration from environment variables and Vault secrets.
// Priority: 1) Environment variables, 2) Vault secrets at /vault/secrets
// Waits up to 120 seconds for required variables to appear in Vault.
func Load() (*Config, error) {
	loader := NewVaultLoader()

	databaseURL, err := loadDatabaseURL(loader)
	if err != nil {
		return nil, err
	}

	googleClientID, err := loader.LoadEnv("GOOGLE_CLIENT_ID", true)
	if err != nil {
		return nil, fmt.Errorf("failed to load GOOGLE_CLIENT_ID: %w", err)
	}

	googleClientSecret, err := loader.LoadEnv("GOOGLE_CLIENT_SECRET", true)
	if err != nil {
		return nil, fmt.Errorf("failed to load GOOGLE_CLIENT_SECRET: %w", err)
	}

	calendarStore := strings.ToLower(loader.LoadEnvWithDefault("CALENDAR_STORE", CalendarStoreBadger))

	var vaultToken string
	if calendarStore == CalendarStoreVault {
		vaultToken, err = loader.LoadEnv("VAULT_TOKEN", true)
		if err != nil {
			return nil, fmt.Errorf("failed to load VAULT_TOKEN: %w", err)
		}
	}

	cfg := &Config{
		Port:         loader.LoadEnvWithDefault("PORT", "8000"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,

		DatabaseURL:   databaseURL,
		RunMigrations: loader.LoadBoolWithDefault("RUN_MIGRATIONS", true),

		AllowedOrigins: parseAllowedOrigins(loader.LoadEnvWithDefault("ALLOWED_ORIGINS", "")),

		GoogleClientID:     googleClientID,
		GoogleClientSecret: googleClientSecret,
		// "postmessage" is what Google Identity Services popups use as redirect_uri
		GoogleRedirectURL: loader.LoadEnvWithDefault("GOOGLE_REDIRECT_URL", "postmessage"),
		GoogleHTTPTimeout: loader.LoadDurationWithDefault("GOOGLE_HTTP_TIMEOUT", 10*time.Second),

		CalendarSyncMode:   strings.ToLower(loader.LoadEnvWithDefault("CALENDAR_SYNC_MODE", CalendarSyncAsync)),
		CalendarStore:      calendarStore,
		CalendarBadgerDir:  loader.LoadEnvWithDefault("CALENDAR_BADGER_DIR", "data/calendar"),
		CalendarVaultMount: loader.LoadEnvWithDefault("CALENDAR_VAULT_MOUNT", "lookback"),
		CalendarWorkers:    loader.LoadIntWithDefault("CALENDAR_WORKERS", 4),
		CalendarQueueSize:  loader.LoadIntWithDefault("CALENDAR_QUEUE_SIZE", 256),
		CalendarJobTimeout: loader.LoadDurationWithDefault("CALENDAR_JOB_TIMEOUT", 30*time.Second),

		VaultAddr:  loader.LoadEnvWithDefault("VAULT_ADDR", "http://vault:8200"),
		VaultToken: vaultToken,

		GCPProjectID:  loader.LoadEnvWithDefault("GCP_PROJECT_ID", ""),
		EventsTopicID: loader.LoadEnvWithDefault("EVENTS_TOPIC_ID", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDatabaseURL prefers DATABASE_URL and otherwise assembles a DSN from the
// MARIADB_* variables, reading the password from MARIADB_PASSWORD_FILE.
func loadDatabaseURL(loader *VaultLoader) (string, error) {
	if url, _ := loader.LoadEnv("DATABASE_URL", false); url != "" {
		return url, nil
	}

	passwordFile := os.Getenv("MARIADB_PASSWORD_FILE")
	if passwordFile == "" {
		return "", fmt.Errorf("DATABASE_URL or MARIADB_PASSWORD_FILE is required")
	}
	password, err := os.ReadFile(passwordFile)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", passwordFile, err)
	}
	if strings.TrimSpace(string(password)) == "" {
		return "", fmt.Errorf("%s is empty", passwordFile)
	}

	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		getEnv("MARIADB_USER", "lookback"),
		strings.TrimSpace(string(password)),
		getEnv("MARIADB_HOST", "mariadb:3306"),
		getEnv("MARIADB_DATABASE", "lookback"),
	), nil
}

// Validate checks that required configuration is present.
func (cfg *Config) Validate() error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	if cfg.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}
	switch cfg.CalendarSyncMode {
	case CalendarSyncAsync, CalendarSyncSync:
	default:
		return fmt.Errorf("CALENDAR_SYNC_MODE must be %q or %q, got %q", CalendarSyncAsync, CalendarSyncSync, cfg.CalendarSyncMode)
	}
	switch cfg.CalendarStore {
	case CalendarStoreBadger:
		if cfg.CalendarBadgerDir == "" {
			return fmt.Errorf("CALENDAR_BADGER_DIR is required for the badger store")
		}
	case CalendarStoreVault:
		if cfg.VaultToken == "" {
			return fmt.Errorf("VAULT_TOKEN is required for the vault store")
		}
	default:
		return fmt.Errorf("CALENDAR_STORE must be %q or %q, got %q", CalendarStoreBadger, CalendarStoreVault, cfg.CalendarStore)
	}
	if cfg.CalendarSyncMode == CalendarSyncAsync && (cfg.CalendarWorkers < 1 || cfg.CalendarQueueSize < 1) {
		return fmt.Errorf("CALENDAR_WORKERS and CALENDAR_QUEUE_SIZE must be positive")
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseAllowedOrigins parses ALLOWED_ORIGINS or returns the frontend defaults.
// Format: comma-separated list of origins (e.g., "https://lookback.kr,http://localhost:3000").
func parseAllowedOrigins(originsEnv string) []string {
	if originsEnv != "" {
		origins := strings.Split(originsEnv, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		return origins
	}

	return []string{
		"https://lookback.kr",
		"http://localhost:3000",
	}
}
