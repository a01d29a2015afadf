// ABOUTME: Configuration loader for the rss-reader client
// ABOUTME: Loads settings from environment variables and an optional .env file

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	// Server
	ServerURL   string        // fallback when no server URL has been persisted
	HTTPTimeout time.Duration // per-request timeout (default 30s)

	// Retry policy for GET requests
	Retries    int           // attempts, default 3
	RetryDelay time.Duration // base linear backoff, default 200ms

	// Local state
	ConfigDir   string // session file and debug log location
	Store       string // file, memory, redis (default: file)
	RedisAddr   string
	RedisDB     int
	RedisPrefix string

	// Behaviour
	DeleteConcurrency int  // parallel feed removals (default 4)
	ExitOnEmpty       bool // selection leaves multi-select when emptied by toggling
	LogToStderr       bool
}

// LoadDotEnv loads variables from a .env file in the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerURL:   strings.TrimRight(os.Getenv("RSS_READER_SERVER_URL"), "/"),
		HTTPTimeout: time.Duration(getEnvInt("RSS_READER_HTTP_TIMEOUT", 30)) * time.Second,

		Retries:    getEnvInt("RSS_READER_RETRIES", 3),
		RetryDelay: time.Duration(getEnvInt("RSS_READER_RETRY_DELAY_MS", 200)) * time.Millisecond,

		ConfigDir:   getEnv("RSS_READER_CONFIG_DIR", DefaultConfigDir()),
		Store:       strings.ToLower(getEnv("RSS_READER_STORE", StoreFile)),
		RedisAddr:   getEnv("RSS_READER_REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("RSS_READER_REDIS_DB", 0),
		RedisPrefix: getEnv("RSS_READER_REDIS_PREFIX", "rss-reader:"),

		DeleteConcurrency: getEnvInt("RSS_READER_DELETE_CONCURRENCY", 4),
		ExitOnEmpty:       getEnvBool("RSS_READER_EXIT_ON_EMPTY", false),
		LogToStderr:       getEnvBool("RSS_READER_LOG_STDERR", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("RSS_READER_STORE must be one of file, memory, redis, got %q", c.Store)
	}
	if c.Store == StoreFile && c.ConfigDir == "" {
		return fmt.Errorf("RSS_READER_CONFIG_DIR is required when no home directory is available")
	}
	if c.Retries < 1 || c.Retries > 10 {
		return fmt.Errorf("RSS_READER_RETRIES must be between 1 and 10, got %d", c.Retries)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("RSS_READER_RETRY_DELAY_MS must not be negative")
	}
	if c.DeleteConcurrency < 1 {
		return fmt.Errorf("RSS_READER_DELETE_CONCURRENCY must be at least 1, got %d", c.DeleteConcurrency)
	}
	if c.ServerURL != "" && !strings.Contains(c.ServerURL, "://") {
		c.ServerURL = ensureScheme(c.ServerURL)
	}
	return nil
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rss-reader")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rss-reader")
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

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}

// EnsureScheme is exported for user-entered server URLs
func EnsureScheme(url string) string {
	return strings.TrimRight(ensureScheme(strings.TrimSpace(url)), "/")
}
