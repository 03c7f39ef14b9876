package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins string

	// Remote database
	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBTimeZone  string

	JWTSecret string

	// Device storage
	StorageDriver string
	StoragePath   string
	SnapshotKey   string
	LegacyKey     string

	// Backups
	BackupDir  string
	BackupCron string

	// Reports
	ForecastWindowDays int

	// Extension orders
	OrderWebhookURL    string
	OrderWebhookSecret string

	MenuCacheTTL time.Duration

	// Logging
	LogMode  string
	LogLevel string
	LogFile  string
}

// CronParser accepts an optional seconds field and descriptors like @daily.
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

var validStorageDrivers = []string{"bolt", "file"}

var validLogModes = []string{"development", "production"}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "3000"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "komagene"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBTimeZone:  getEnv("DB_TIMEZONE", "Europe/Istanbul"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		StorageDriver: getEnv("STORAGE_DRIVER", "bolt"),
		StoragePath:   getEnv("STORAGE_PATH", "./data/komagene.db"),
		SnapshotKey:   getEnv("SNAPSHOT_KEY", "komagene-storage"),
		LegacyKey:     getEnv("LEGACY_KEY", "gunkasa-data"),

		BackupDir:  getEnv("BACKUP_DIR", "./data/backups"),
		BackupCron: getEnv("BACKUP_CRON", "@daily"),

		ForecastWindowDays: getEnvInt("FORECAST_WINDOW_DAYS", 14),

		OrderWebhookURL:    getEnv("ORDER_WEBHOOK_URL", ""),
		OrderWebhookSecret: getEnv("ORDER_WEBHOOK_SECRET", ""),

		MenuCacheTTL: getEnvDuration("MENU_CACHE_TTL", time.Minute),

		LogMode:  getEnv("LOG_MODE", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// Validate returns every problem in one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !contains(validStorageDrivers, c.StorageDriver) {
		errors = append(errors, fmt.Sprintf("invalid storage driver '%s': must be one of %v", c.StorageDriver, validStorageDrivers))
	}
	if c.StoragePath == "" {
		errors = append(errors, "storage path cannot be empty")
	}
	if c.SnapshotKey == "" {
		errors = append(errors, "snapshot key cannot be empty")
	}
	if c.SnapshotKey != "" && c.SnapshotKey == c.LegacyKey {
		errors = append(errors, fmt.Sprintf("snapshot key and legacy key must differ, both are '%s'", c.SnapshotKey))
	}

	if c.DatabaseURL == "" && c.DBHost == "" {
		errors = append(errors, "either DATABASE_URL or DB_HOST must be provided")
	}
	if c.DBTimeZone != "" {
		if _, err := time.LoadLocation(c.DBTimeZone); err != nil {
			errors = append(errors, fmt.Sprintf("invalid database time zone '%s': %v", c.DBTimeZone, err))
		}
	}

	if c.BackupCron != "" {
		if c.BackupDir == "" {
			errors = append(errors, "backup directory cannot be empty when a backup schedule is set")
		} else if err := ensureDir(c.BackupDir); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create backup directory '%s': %v", c.BackupDir, err))
		}
		if _, err := CronParser.Parse(c.BackupCron); err != nil {
			errors = append(errors, fmt.Sprintf("invalid backup schedule '%s': %v", c.BackupCron, err))
		}
	}

	if c.ForecastWindowDays < 2 {
		errors = append(errors, fmt.Sprintf("invalid forecast window %d: must be at least 2 days", c.ForecastWindowDays))
	} else if c.ForecastWindowDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid forecast window %d: must be at most 365 days", c.ForecastWindowDays))
	}

	if c.OrderWebhookURL != "" && !strings.HasPrefix(c.OrderWebhookURL, "http://") && !strings.HasPrefix(c.OrderWebhookURL, "https://") {
		errors = append(errors, fmt.Sprintf("invalid order webhook URL '%s': must start with http:// or https://", c.OrderWebhookURL))
	}

	if c.MenuCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid menu cache TTL %v: must not be negative", c.MenuCacheTTL))
	}

	if !contains(validLogModes, c.LogMode) {
		errors = append(errors, fmt.Sprintf("invalid log mode '%s': must be one of %v", c.LogMode, validLogModes))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// StorageDir is the directory holding device storage.
func (c *Config) StorageDir() string {
	if c.StorageDriver == "file" {
		return c.StoragePath
	}
	return filepath.Dir(c.StoragePath)
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
