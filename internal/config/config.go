// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Store     StoreConfig
	Transcode TranscodeConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StoreConfig holds the embedded key/value store configuration.
type StoreConfig struct {
	// Path is the directory badger uses for its data files.
	Path string
}

// TranscodePolicy gates whether priority-0 queue entries are eligible to be popped.
type TranscodePolicy string

const (
	PolicyIfRequested TranscodePolicy = "if_requested"
	PolicyAlways      TranscodePolicy = "always"
)

// TranscodeConfig holds audio transcoding configuration.
type TranscodeConfig struct {
	// TranscodesDir is the flat directory holding content-addressed output files (default: {store path}/transcodes).
	TranscodesDir string
	// InitialPolicy is the admission policy the work queue starts with (default: if_requested).
	InitialPolicy TranscodePolicy
	// WorkerCount is the number of fixed worker goroutines (default: 8).
	WorkerCount int
	// BitrateBPS is the constant target Opus bitrate in bits per second (default: 128000).
	BitrateBPS int
	// TargetSampleRateHz is the fixed output sample rate (default: 48000).
	TargetSampleRateHz int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	storePath := flag.String("store-path", "", "Directory for the embedded key/value store")

	transcodesDir := flag.String("transcodes-dir", "", "Directory for content-addressed transcode output")
	initialPolicy := flag.String("initial-policy", "", "Initial queue admission policy (if_requested, always)")
	workerCount := flag.String("worker-count", "", "Number of transcode worker goroutines (default: 8)")
	bitrate := flag.String("transcode-bitrate-bps", "", "Target Opus bitrate in bits/sec (default: 128000)")
	sampleRate := flag.String("target-sample-rate-hz", "", "Fixed output sample rate (default: 48000)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Path: getConfigValue(*storePath, "STORE_PATH", ""),
		},
		Transcode: TranscodeConfig{
			TranscodesDir:      getConfigValue(*transcodesDir, "TRANSCODES_DIR", ""),
			InitialPolicy:      TranscodePolicy(getConfigValue(*initialPolicy, "INITIAL_POLICY", string(PolicyIfRequested))),
			WorkerCount:        getIntConfigValue(*workerCount, "WORKER_COUNT", 8),
			BitrateBPS:         getIntConfigValue(*bitrate, "TRANSCODE_BITRATE_BPS", 128000),
			TargetSampleRateHz: getIntConfigValue(*sampleRate, "TARGET_SAMPLE_RATE_HZ", 48000),
		},
	}

	if err := cfg.expandStorePath(); err != nil {
		return nil, fmt.Errorf("invalid store path: %w", err)
	}

	if err := cfg.expandTranscodesDir(); err != nil {
		return nil, fmt.Errorf("invalid transcodes dir: %w", err)
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

	switch c.Transcode.InitialPolicy {
	case PolicyIfRequested, PolicyAlways:
	default:
		return fmt.Errorf("invalid initial policy: %s (must be if_requested or always)", c.Transcode.InitialPolicy)
	}

	if c.Transcode.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Transcode.WorkerCount)
	}

	if c.Store.Path == "" {
		return errors.New("store path cannot be empty after expansion")
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

// expandStorePath expands ~ and makes the path absolute, defaulting under the user's home directory.
func (c *Config) expandStorePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, ".musicopy", "store")

	expanded, err := expandPath(c.Store.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Store.Path = expanded
	return nil
}

// expandTranscodesDir expands ~ and makes the path absolute.
// Defaults to {store path}/transcodes if not specified.
func (c *Config) expandTranscodesDir() error {
	defaultPath := filepath.Join(c.Store.Path, "transcodes")

	expanded, err := expandPath(c.Transcode.TranscodesDir, defaultPath)
	if err != nil {
		return err
	}
	c.Transcode.TranscodesDir = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
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

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
