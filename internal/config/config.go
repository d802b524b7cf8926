// Package config provides configuration for the application
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	Store    StoreConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port               int
	RateLimitPerMinute int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// StoreConfig holds course content store settings
type StoreConfig struct {
	// Timeout bounds every store operation
	Timeout time.Duration
	// LessonFetchConcurrency bounds the parallel lesson reads of a course content fetch
	LessonFetchConcurrency int
}

// Load reads configuration from an optional .env file and environment variables
func Load() (*Config, error) {
	// The .env file is optional; a missing file falls through to the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{}

	// Database configuration
	cfg.Database.Driver = getenv("DB_DRIVER", DriverMySQL)
	switch cfg.Database.Driver {
	case DriverMySQL:
		if err := loadMySQL(&cfg.Database); err != nil {
			return nil, err
		}
	case DriverSQLite:
		cfg.Database.SQLitePath = os.Getenv("SQLITE_PATH")
		if cfg.Database.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: %q", cfg.Database.Driver)
	}

	// Server configuration
	serverPort, err := strconv.Atoi(getenv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	rateLimit, err := strconv.Atoi(getenv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil || rateLimit <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %q", os.Getenv("RATE_LIMIT_PER_MINUTE"))
	}
	cfg.Server.RateLimitPerMinute = rateLimit

	// Logging configuration
	cfg.Logging.Level = getenv("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// Store configuration
	timeout, err := time.ParseDuration(getenv("STORE_TIMEOUT", "5s"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %q", os.Getenv("STORE_TIMEOUT"))
	}
	cfg.Store.Timeout = timeout

	concurrency, err := strconv.Atoi(getenv("LESSON_FETCH_CONCURRENCY", "4"))
	if err != nil || concurrency <= 0 {
		return nil, fmt.Errorf("invalid LESSON_FETCH_CONCURRENCY: %q", os.Getenv("LESSON_FETCH_CONCURRENCY"))
	}
	cfg.Store.LessonFetchConcurrency = concurrency

	return cfg, nil
}

func loadMySQL(db *DatabaseConfig) error {
	db.Host = os.Getenv("DB_HOST")
	if db.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	db.Port = dbPort

	db.User = os.Getenv("DB_USER")
	if db.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	db.Password = os.Getenv("DB_PASSWORD")
	if db.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}

	db.DBName = os.Getenv("DB_NAME")
	if db.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	return nil
}

// parseOrigins splits a comma-separated origin list, defaulting to all origins
func parseOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// DSN returns the database connection string for the configured driver
func (c *Config) DSN() string {
	if c.Database.Driver == DriverSQLite {
		return SQLiteDSN(c.Database.SQLitePath)
	}
	if c.Database.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// SQLiteDSN returns a modernc.org/sqlite DSN for path.
// Write transactions take the database lock at BEGIN so concurrent saves queue on the busy timeout.
func SQLiteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
}
