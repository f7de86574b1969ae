package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_NAME", "tracker")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db")

	cfg := FromEnv()

	if cfg.DBPort != "5432" {
		t.Errorf("DBPort = %q, want default %q", cfg.DBPort, "5432")
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, want default %q", cfg.DBSSLMode, "disable")
	}
	if cfg.Interval != 5*time.Minute {
		t.Errorf("Interval = %v, want default %v", cfg.Interval, 5*time.Minute)
	}
	if cfg.ServerID != "" {
		t.Errorf("ServerID = %q, want empty", cfg.ServerID)
	}
	if !cfg.Complete() {
		t.Error("Complete() = false, want true with all required variables set")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_NAME", "tracker")
	t.Setenv("DB_USER", "collector")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "10.0.0.5")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("SPEEDTEST_SERVER_ID", "12345")
	t.Setenv("MEASUREMENT_INTERVAL", "30s")

	cfg := FromEnv()

	if cfg.DBPort != "5433" {
		t.Errorf("DBPort = %q, want %q", cfg.DBPort, "5433")
	}
	if cfg.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, want %q", cfg.DBSSLMode, "require")
	}
	if cfg.ServerID != "12345" {
		t.Errorf("ServerID = %q, want %q", cfg.ServerID, "12345")
	}
	if cfg.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want %v", cfg.Interval, 30*time.Second)
	}
}

func TestFromEnvInvalidInterval(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Not a duration", "every-5-minutes"},
		{"Zero", "0s"},
		{"Negative", "-30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MEASUREMENT_INTERVAL", tt.value)

			cfg := FromEnv()
			if cfg.Interval != 5*time.Minute {
				t.Errorf("Interval = %v, want fallback %v", cfg.Interval, 5*time.Minute)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	base := Config{
		DBName:     "tracker",
		DBUser:     "postgres",
		DBPassword: "secret",
		DBHost:     "db",
		DBPort:     "5432",
	}

	tests := []struct {
		name  string
		unset func(cfg *Config)
		want  bool
	}{
		{"All present", func(cfg *Config) {}, true},
		{"Missing name", func(cfg *Config) { cfg.DBName = "" }, false},
		{"Missing user", func(cfg *Config) { cfg.DBUser = "" }, false},
		{"Missing password", func(cfg *Config) { cfg.DBPassword = "" }, false},
		{"Missing host", func(cfg *Config) { cfg.DBHost = "" }, false},
		{"Missing port", func(cfg *Config) { cfg.DBPort = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.unset(&cfg)
			if got := cfg.Complete(); got != tt.want {
				t.Errorf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRedactedOmitsPassword(t *testing.T) {
	cfg := Config{
		DBName:     "tracker",
		DBUser:     "postgres",
		DBPassword: "hunter2",
		DBHost:     "db",
		DBPort:     "5432",
	}

	got := cfg.Redacted()
	if strings.Contains(got, "hunter2") {
		t.Errorf("Redacted() = %q, must not contain the password", got)
	}
	if !strings.Contains(got, "postgres@db:5432/tracker") {
		t.Errorf("Redacted() = %q, want user, host, port and database name", got)
	}
}
