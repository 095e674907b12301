package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	// Telegram
	BotToken string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Application
	AppEnv   string
	LogLevel string
	Workers  int

	// Friendship
	FriendshipNamespace         string
	FriendshipTypeName          string
	FriendshipRequireAcceptance bool

	// Rate Limiting
	FriendRequestLimit         int
	FriendRequestWindowMinutes int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		BotToken:   getEnv("BOT_TOKEN", ""),
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "friendly"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "friendly_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "friendly.db"),

		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Workers:  getEnvInt("BOT_WORKERS", 8),

		FriendshipNamespace:         getEnv("FRIENDSHIP_NAMESPACE", "social"),
		FriendshipTypeName:          getEnv("FRIENDSHIP_TYPE_NAME", "Friendship"),
		FriendshipRequireAcceptance: getEnvBool("FRIENDSHIP_REQUIRE_ACCEPTANCE", true),

		FriendRequestLimit:         getEnvInt("FRIEND_REQUEST_LIMIT", 10),
		FriendRequestWindowMinutes: getEnvInt("FRIEND_REQUEST_WINDOW_MINUTES", 60),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	if c.FriendshipTypeName == "" {
		return fmt.Errorf("FRIENDSHIP_TYPE_NAME is required")
	}
	if c.FriendRequestLimit < 1 {
		return fmt.Errorf("FRIEND_REQUEST_LIMIT must be positive")
	}
	if c.FriendRequestWindowMinutes < 1 {
		return fmt.Errorf("FRIEND_REQUEST_WINDOW_MINUTES must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("BOT_WORKERS must be positive")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBDriver == DriverSQLite {
		return fmt.Errorf("DB_DRIVER sqlite is not supported in production")
	}
	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.DBPassword == "your_db_password_change_this" {
		return fmt.Errorf("DB_PASSWORD must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// GetFriendRequestWindow is the period FriendRequestLimit applies to.
func (c *Config) GetFriendRequestWindow() time.Duration {
	return time.Duration(c.FriendRequestWindowMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
