package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:               "8080",
		DataBackend:        "memory",
		SQLiteDBPath:       "./data/spendlog.db",
		RatesURL:           "https://api.exchangerate.host/latest",
		RatesTimeout:       3 * time.Second,
		RatesCacheTTL:      5 * time.Minute,
		RateLimitPerMinute: 60,
		PageSizeDefault:    50,
		PageSizeMax:        200,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
	}
	if cfg.RatesTimeout != 3*time.Second {
		t.Errorf("RatesTimeout = %v, want 3s", cfg.RatesTimeout)
	}
	if cfg.RatesCacheTTL != 5*time.Minute {
		t.Errorf("RatesCacheTTL = %v, want 5m", cfg.RatesCacheTTL)
	}
	if cfg.PageSizeDefault != 50 || cfg.PageSizeMax != 200 {
		t.Errorf("page sizes = %d/%d, want 50/200", cfg.PageSizeDefault, cfg.PageSizeMax)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("RATES_TIMEOUT", "500ms")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "10")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q, want sqlite", cfg.DataBackend)
	}
	if cfg.RatesTimeout != 500*time.Millisecond {
		t.Errorf("RatesTimeout = %v, want 500ms", cfg.RatesTimeout)
	}
	if cfg.RateLimitPerMinute != 10 {
		t.Errorf("RateLimitPerMinute = %d, want 10", cfg.RateLimitPerMinute)
	}
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
	t.Setenv("RATES_TIMEOUT", "soon")

	cfg := Load()

	if cfg.RateLimitPerMinute != 60 {
		t.Errorf("RateLimitPerMinute = %d, want default 60", cfg.RateLimitPerMinute)
	}
	if cfg.RatesTimeout != 3*time.Second {
		t.Errorf("RatesTimeout = %v, want default 3s", cfg.RatesTimeout)
	}
}

func TestValidateValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "non numeric port",
			mutate:  func(c *Config) { c.Port = "http" },
			wantSub: "invalid port 'http'",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Port = "70000" },
			wantSub: "must be between 1 and 65535",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.DataBackend = "redis" },
			wantSub: "invalid data backend 'redis'",
		},
		{
			name: "postgres without url",
			mutate: func(c *Config) {
				c.DataBackend = "postgres"
				c.PostgresURL = ""
			},
			wantSub: "POSTGRES_URL is required",
		},
		{
			name: "postgres wrong scheme",
			mutate: func(c *Config) {
				c.DataBackend = "postgres"
				c.PostgresURL = "mysql://localhost/spendlog"
			},
			wantSub: "must be 'postgres' or 'postgresql'",
		},
		{
			name:    "empty rates url",
			mutate:  func(c *Config) { c.RatesURL = "" },
			wantSub: "rates URL cannot be empty",
		},
		{
			name:    "rates timeout too small",
			mutate:  func(c *Config) { c.RatesTimeout = 10 * time.Millisecond },
			wantSub: "must be at least 100ms",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RateLimitPerMinute = 0 },
			wantSub: "invalid rate limit 0",
		},
		{
			name: "default page size above max",
			mutate: func(c *Config) {
				c.PageSizeDefault = 300
				c.PageSizeMax = 200
			},
			wantSub: "default page size 300 exceeds max page size 200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "nope"
	cfg.DataBackend = "redis"
	cfg.RateLimitPerMinute = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, sub := range []string{"invalid port", "invalid data backend", "invalid rate limit"} {
		if !strings.Contains(err.Error(), sub) {
			t.Errorf("error missing %q: %v", sub, err)
		}
	}
}
