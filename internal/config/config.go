// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Store     StoreConfig
	Household HouseholdConfig
	Server    ServerConfig
	Providers ProvidersConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds local data configuration.
type DataConfig struct {
	// Path is where the csv files or the sqlite database live.
	Path string
}

// StoreConfig selects and configures the tabular backend.
type StoreConfig struct {
	Backend string // csv, sqlite or sheets (default: csv)

	// Sheets backend only.
	SpreadsheetID   string
	CredentialsFile string
}

// HouseholdConfig describes who reads.
type HouseholdConfig struct {
	// Readers are the children tracked per book, in display order.
	Readers []string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string
}

// ProvidersConfig holds book metadata provider settings.
type ProvidersConfig struct {
	GoogleBooksURL    string
	GoogleBooksAPIKey string // Optional
	OpenLibraryURL    string
	Timeout           time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("readnest", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for local data files")
	backend := fs.String("store", "", "Store backend (csv, sqlite, sheets)")
	spreadsheetID := fs.String("spreadsheet-id", "", "Google Sheets spreadsheet id")
	credentials := fs.String("credentials", "", "Path to a Google service account JSON file")
	readers := fs.String("readers", "", "Comma separated reader names")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	providerTimeout := fs.String("provider-timeout", "", "Metadata provider timeout (default: 10s)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env files are fine; godotenv never overrides variables already set.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			Path: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(getConfigValue(*backend, "STORE_BACKEND", BackendCSV)),
			SpreadsheetID:   getConfigValue(*spreadsheetID, "SHEETS_SPREADSHEET_ID", ""),
			CredentialsFile: getConfigValue(*credentials, "GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		Household: HouseholdConfig{
			Readers: splitList(getConfigValue(*readers, "READERS", "Reader")),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue("", "CORS_ORIGINS", "*")),
		},
		Providers: ProvidersConfig{
			GoogleBooksURL:    getConfigValue("", "GOOGLE_BOOKS_URL", "https://www.googleapis.com/books/v1"),
			GoogleBooksAPIKey: getConfigValue("", "GOOGLE_BOOKS_API_KEY", ""),
			OpenLibraryURL:    getConfigValue("", "OPEN_LIBRARY_URL", "https://openlibrary.org"),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Providers.Timeout, err = getDurationConfigValue(*providerTimeout, "PROVIDER_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Store.CredentialsFile != "" {
		if cfg.Store.CredentialsFile, err = expandPath(cfg.Store.CredentialsFile, ""); err != nil {
			return nil, fmt.Errorf("invalid credentials path: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Store.Backend {
	case BackendCSV, BackendSQLite:
		if c.Data.Path == "" {
			return errors.New("data path cannot be empty after expansion")
		}
	case BackendSheets:
		if c.Store.SpreadsheetID == "" {
			return errors.New("SHEETS_SPREADSHEET_ID is required for the sheets backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be csv, sqlite, or sheets)", c.Store.Backend)
	}

	if len(c.Household.Readers) == 0 {
		return errors.New("at least one reader is required")
	}
	seen := make(map[string]bool, len(c.Household.Readers))
	for _, r := range c.Household.Readers {
		key := strings.ToLower(r)
		if seen[key] {
			return fmt.Errorf("duplicate reader: %s", r)
		}
		seen[key] = true
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults to ~/ReadNest.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Data.Path, filepath.Join(homeDir, "ReadNest"))
	if err != nil {
		return err
	}
	c.Data.Path = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envKey != "" {
		if envValue := os.Getenv(envKey); envValue != "" {
			return envValue
		}
	}
	return defaultValue
}

func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	s := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), s, err)
	}
	return d, nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return slices.Clip(out)
}
