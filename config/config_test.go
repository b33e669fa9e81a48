package config

import (
	"strings"
	"testing"
	"time"
)

// setValidEnv sets a minimal valid environment for Load
func setValidEnv(t *testing.T) {
	t.Helper()
	for _, key := range GetEnvVars() {
		t.Setenv(key, "")
	}
	t.Setenv("API_BASE_URL", "http://127.0.0.1:9000")
}

func TestLoadValidConfig(t *testing.T) {
	setValidEnv(t)
	t.Setenv("PORT", "8002")
	t.Setenv("ADDRESS", "127.0.0.1")
	t.Setenv("ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("DEFAULT_PAGE_SIZE", "10")
	t.Setenv("SESSION_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Expected env prod, got %s", cfg.Env)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("Expected fetch timeout 5s, got %s", cfg.FetchTimeout)
	}
	if cfg.DefaultPageSize != 10 {
		t.Errorf("Expected default page size 10, got %d", cfg.DefaultPageSize)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("Expected session TTL 1h, got %s", cfg.SessionTTL)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected default env dev, got %s", cfg.Env)
	}
	if cfg.LogDir != "logs" {
		t.Errorf("Expected default log dir logs, got %s", cfg.LogDir)
	}
	if cfg.DefaultPageSize != 5 {
		t.Errorf("Expected default page size 5, got %d", cfg.DefaultPageSize)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("Expected default fetch timeout 30s, got %s", cfg.FetchTimeout)
	}
	if cfg.SessionTTL != 30*time.Minute || cfg.SessionSweepInterval != 5*time.Minute {
		t.Errorf("Unexpected session defaults: ttl %s sweep %s", cfg.SessionTTL, cfg.SessionSweepInterval)
	}
	if cfg.MaxSessions != 1000 {
		t.Errorf("Expected default max sessions 1000, got %d", cfg.MaxSessions)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	testCases := []struct {
		key      string
		value    string
		expected string
	}{
		{"PORT", "abc", "PORT must be a valid number"},
		{"PORT", "0", "PORT must be between 1 and 65535"},
		{"PORT", "65536", "PORT must be between 1 and 65535"},
		{"PORT", "80", "PORT 80 is privileged"},
		{"ADDRESS", "invalid", "ADDRESS must be a valid IP address"},
		{"ADDRESS", "8.8.8.8", "is a public IP"},
		{"ENV", "invalid", "ENV must be one of"},
		{"LOG_LEVEL", "invalid", "LOG_LEVEL must be one of"},
		{"MAX_REQUEST_BODY", "-1", "MAX_REQUEST_BODY must be positive"},
		{"LOG_RETENTION_WEEKS", "60", "too large (max 52 weeks)"},
		{"MAX_LOG_FILE_SIZE", "10", "too small (min 1MB)"},
		{"API_BASE_URL", "ftp://example.com", "must use http or https"},
		{"API_BASE_URL", "http://", "must include a host"},
		{"API_BASE_URL", "http://example.com/?x=1", "cannot contain a query"},
		{"FETCH_TIMEOUT", "soon", "must be a duration"},
		{"FETCH_TIMEOUT", "-1s", "FETCH_TIMEOUT must be positive"},
		{"DEFAULT_PAGE_SIZE", "7", "invalid page size"},
		{"SESSION_TTL", "0s", "SESSION_TTL must be positive"},
		{"MAX_SESSIONS", "0", "MAX_SESSIONS"},
	}

	for _, tc := range testCases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			setValidEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s, got nil", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %q", tc.expected, err.Error())
			}
		})
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	setValidEnv(t)
	t.Setenv("API_BASE_URL", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "API_BASE_URL is required") {
		t.Errorf("Expected missing API_BASE_URL error, got %v", err)
	}
}

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		input    string
		expected Environment
		hasError bool
	}{
		{"dev", EnvDevelopment, false},
		{"development", EnvDevelopment, false},
		{"staging", EnvStaging, false},
		{"prod", EnvProduction, false},
		{"production", EnvProduction, false},
		{"test", EnvTest, false},
		{"invalid", EnvDevelopment, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			env, err := ParseEnvironment(tt.input)
			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for %s, got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for %s: %v", tt.input, err)
			}
			if env != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, env)
			}
		})
	}
}

func TestEnvironmentString(t *testing.T) {
	tests := []struct {
		env      Environment
		expected string
	}{
		{EnvDevelopment, "dev"},
		{EnvStaging, "staging"},
		{EnvProduction, "prod"},
		{EnvTest, "test"},
	}

	for _, tt := range tests {
		if got := tt.env.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}
