// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the engine configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Backend BackendConfig
	Store   StoreConfig
	Sync    SyncConfig
	Control ControlConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// BackendConfig holds remote backend configuration.
type BackendConfig struct {
	// BaseURL is the root of the backend API, e.g. https://api.lumie.app.
	BaseURL string
	// OwnerID scopes every fetched collection to one account.
	OwnerID string
	// TokenPath is the file the authentication collaborator writes the
	// bearer token to. The engine watches it for changes.
	TokenPath string
	// Timeout bounds each outbound request (default: 30s).
	Timeout time.Duration
	// RequestsPerSecond caps outbound request rate per collection (default: 10).
	RequestsPerSecond float64
}

// StoreConfig holds local cache configuration.
type StoreConfig struct {
	// BasePath is the directory holding the SQLite cache (default: ~/Lumie).
	BasePath string
}

// SyncConfig holds sync scheduling configuration.
type SyncConfig struct {
	// MinInterval is the minimum gap between accepted refresh triggers
	// (default: 2s).
	MinInterval time.Duration
	// RefreshInterval drives the periodic background refresh
	// (default: 15m; 0 disables it).
	RefreshInterval time.Duration
}

// ControlConfig holds the local control API configuration.
type ControlConfig struct {
	Port         string        // Control port (default: 7584)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	baseURL := flag.String("base-url", "", "Backend API base URL")
	ownerID := flag.String("owner-id", "", "Account identifier owning the synced collections")
	tokenPath := flag.String("token-path", "", "Path to the bearer token file")
	storePath := flag.String("store-path", "", "Base path for the local cache")

	// Sync flags
	minInterval := flag.String("min-sync-interval", "", "Minimum gap between refresh triggers (default: 2s)")
	refreshInterval := flag.String("refresh-interval", "", "Periodic background refresh interval (default: 15m, 0 disables)")

	// Backend flags
	httpTimeout := flag.String("http-timeout", "", "Outbound request timeout (default: 30s)")
	requestsPerSecond := flag.Float64("requests-per-second", 0, "Outbound request rate cap per collection (default: 10)")

	// Control flags
	controlPort := flag.String("control-port", "", "Local control API port (default: 7584)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Backend: BackendConfig{
			BaseURL:           getConfigValue(*baseURL, "BACKEND_BASE_URL", ""),
			OwnerID:           getConfigValue(*ownerID, "OWNER_ID", ""),
			TokenPath:         getConfigValue(*tokenPath, "TOKEN_PATH", ""),
			RequestsPerSecond: getFloatConfigValue(*requestsPerSecond, "REQUESTS_PER_SECOND", 10),
		},
		Store: StoreConfig{
			BasePath: getConfigValue(*storePath, "STORE_PATH", ""),
		},
		Control: ControlConfig{
			Port: getConfigValue(*controlPort, "CONTROL_PORT", "7584"),
		},
	}

	// Parse sync intervals.
	minIntervalStr := getConfigValue(*minInterval, "MIN_SYNC_INTERVAL", "2s")
	minIntervalDuration, err := time.ParseDuration(minIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid min sync interval %q: %w", minIntervalStr, err)
	}
	cfg.Sync.MinInterval = minIntervalDuration

	refreshIntervalStr := getConfigValue(*refreshInterval, "REFRESH_INTERVAL", "15m")
	refreshIntervalDuration, err := time.ParseDuration(refreshIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh interval %q: %w", refreshIntervalStr, err)
	}
	cfg.Sync.RefreshInterval = refreshIntervalDuration

	// Parse backend timeout.
	httpTimeoutStr := getConfigValue(*httpTimeout, "HTTP_TIMEOUT", "30s")
	httpTimeoutDuration, err := time.ParseDuration(httpTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid http timeout %q: %w", httpTimeoutStr, err)
	}
	cfg.Backend.Timeout = httpTimeoutDuration

	// Parse control server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "CONTROL_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Control.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "CONTROL_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Control.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "CONTROL_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Control.IdleTimeout = idleTimeoutDuration

	// Expand and validate filesystem paths.
	if err := cfg.expandStorePath(); err != nil {
		return nil, fmt.Errorf("invalid store path: %w", err)
	}
	if err := cfg.expandTokenPath(); err != nil {
		return nil, fmt.Errorf("invalid token path: %w", err)
	}

	// Validate configuration.
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

	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL is required")
	}
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid backend base URL: %s", c.Backend.BaseURL)
	}

	if c.Backend.OwnerID == "" {
		return errors.New("OWNER_ID is required")
	}

	if c.Backend.TokenPath == "" {
		return errors.New("TOKEN_PATH is required")
	}

	if c.Backend.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive, got %v", c.Backend.RequestsPerSecond)
	}

	if c.Sync.MinInterval < 0 {
		return fmt.Errorf("min sync interval must not be negative, got %v", c.Sync.MinInterval)
	}

	if c.Store.BasePath == "" {
		return errors.New("store base path cannot be empty after expansion")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStorePath expands ~ and makes the path absolute.
func (c *Config) expandStorePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Lumie")

	expanded, err := expandPath(c.Store.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Store.BasePath = expanded
	return nil
}

// expandTokenPath expands ~ and makes the path absolute.
func (c *Config) expandTokenPath() error {
	if c.Backend.TokenPath == "" {
		return nil
	}

	expanded, err := expandPath(c.Backend.TokenPath, "")
	if err != nil {
		return err
	}
	c.Backend.TokenPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue float64, envKey string, defaultValue float64) float64 {
	if flagValue != 0 {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		var result float64
		if _, err := fmt.Sscanf(envValue, "%g", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
