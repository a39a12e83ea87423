package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string
	PostgresURL  string

	// Exchange rates proxy
	RatesURL      string
	RatesTimeout  time.Duration
	RatesCacheTTL time.Duration

	// Request limits
	RateLimitPerMinute int

	// Pagination
	PageSizeDefault int
	PageSizeMax     int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spendlog.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		RatesURL:      getEnv("RATES_URL", "https://api.exchangerate.host/latest"),
		RatesTimeout:  getEnvDuration("RATES_TIMEOUT", 3*time.Second),
		RatesCacheTTL: getEnvDuration("RATES_CACHE_TTL", 5*time.Minute),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		PageSizeDefault: getEnvInt("PAGE_SIZE_DEFAULT", 50),
		PageSizeMax:     getEnvInt("PAGE_SIZE_MAX", 200),
	}
}

// Validate checks the configuration and returns every violation at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" {
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		} else if parsedURL, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid postgres URL '%s': %v", c.PostgresURL, err))
		} else if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid postgres URL scheme '%s': must be 'postgres' or 'postgresql'", parsedURL.Scheme))
		}
	}

	if c.RatesURL == "" {
		errors = append(errors, "rates URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.RatesURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid rates URL '%s': %v", c.RatesURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid rates URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.RatesTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid rates timeout %v: must be at least 100ms", c.RatesTimeout))
	} else if c.RatesTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rates timeout %v: must be at most 1 minute", c.RatesTimeout))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if c.PageSizeDefault < 1 {
		errors = append(errors, fmt.Sprintf("invalid default page size %d: must be at least 1", c.PageSizeDefault))
	}
	if c.PageSizeMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid max page size %d: must be at least 1", c.PageSizeMax))
	}
	if c.PageSizeDefault >= 1 && c.PageSizeMax >= 1 && c.PageSizeDefault > c.PageSizeMax {
		errors = append(errors, fmt.Sprintf("default page size %d exceeds max page size %d", c.PageSizeDefault, c.PageSizeMax))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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
