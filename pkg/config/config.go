package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultInterval = 5 * time.Minute

// Config holds the collector settings, read from the environment once at
// startup and never mutated afterwards. Completeness of the database
// parameters is checked lazily by the sink before each write, not here,
// so a misconfigured collector keeps measuring and logs why it is not
// storing anything.
type Config struct {
	DBName     string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBSSLMode  string

	// ServerID pins every measurement to one speedtest server so that
	// results are comparable across cycles. Empty means let the CLI pick.
	ServerID string

	Interval time.Duration
}

// FromEnv builds the configuration from environment variables. A .env file
// in the working directory is loaded first as a convenience for local runs;
// variables already set in the environment take precedence.
func FromEnv() *Config {
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded environment from .env file")
	}

	v := viper.New()
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("MEASUREMENT_INTERVAL", defaultInterval)

	for _, key := range []string{
		"DB_NAME",
		"DB_USER",
		"DB_PASSWORD",
		"DB_HOST",
		"DB_PORT",
		"DB_SSLMODE",
		"SPEEDTEST_SERVER_ID",
		"MEASUREMENT_INTERVAL",
	} {
		v.BindEnv(key)
	}

	interval := v.GetDuration("MEASUREMENT_INTERVAL")
	if interval <= 0 {
		slog.Warn("Invalid MEASUREMENT_INTERVAL, using default",
			"value", v.GetString("MEASUREMENT_INTERVAL"),
			"default", defaultInterval)
		interval = defaultInterval
	}

	return &Config{
		DBName:     v.GetString("DB_NAME"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		ServerID:   v.GetString("SPEEDTEST_SERVER_ID"),
		Interval:   interval,
	}
}

// Complete reports whether every parameter required for a database write is
// present.
func (c *Config) Complete() bool {
	return c.DBName != "" &&
		c.DBUser != "" &&
		c.DBPassword != "" &&
		c.DBHost != "" &&
		c.DBPort != ""
}

// Redacted returns the connection target for logging, without the password.
func (c *Config) Redacted() string {
	return fmt.Sprintf("%s@%s:%s/%s", c.DBUser, c.DBHost, c.DBPort, c.DBName)
}
