// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Planner PlannerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
// The database, preview cache and search index all live under BasePath.
type DataConfig struct {
	BasePath string
}

// DatabasePath returns the SQLite database file path.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "classdesk.db")
}

// CachePath returns the directory of the preview cache.
func (d DataConfig) CachePath() string {
	return filepath.Join(d.BasePath, "cache", "previews")
}

// IndexPath returns the directory of the book search index.
func (d DataConfig) IndexPath() string {
	return filepath.Join(d.BasePath, "search", "books.bleve")
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port           string        // Server port (default: 8080)
	ReadTimeout    time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout   time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout    time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins []string      // CORS origins (default: *)
	RateLimitRPS   float64       // Requests per second per client IP (default: 20)
	RateLimitBurst int           // Burst size (default: 40)
}

// PlannerConfig holds lesson planning defaults.
type PlannerConfig struct {
	// DefaultSlotsPerDay is used for owners created without a slot count (default: 1)
	DefaultSlotsPerDay int
	// AlignFirstWeek extends the first month of a run back to the preceding Sunday (default: true)
	AlignFirstWeek bool
	// LookaheadMonths caps how far an extend request searches for class days (default: 24)
	LookaheadMonths int
	// PreviewTTL is how long a generated preview can be saved without regenerating (default: 30m)
	PreviewTTL time.Duration
	// Timezone decides what "today" is for the school (default: Local)
	Timezone string
	// TieBreak orders allocations of equal priority: "insertion" or "book" (default: insertion)
	TieBreak string
}

// Location resolves the configured time zone.
func (p PlannerConfig) Location() (*time.Location, error) {
	if p.Timezone == "" || strings.EqualFold(p.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(p.Timezone)
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
	dataPath := flag.String("data-path", "", "Base path for the database, cache and search index")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := flag.String("cors-origins", "", "Comma separated CORS origins (default: *)")
	rateLimit := flag.String("rate-limit", "", "Requests per second per client (default: 20)")
	rateBurst := flag.String("rate-burst", "", "Rate limit burst (default: 40)")

	// Planner flags
	slotsPerDay := flag.String("slots-per-day", "", "Default periods per class day (default: 1)")
	alignFirstWeek := flag.String("align-first-week", "", "Start the first planned month on the preceding Sunday (default: true)")
	lookahead := flag.String("lookahead-months", "", "Months an extend request may search (default: 24)")
	previewTTL := flag.String("preview-ttl", "", "How long previews stay saveable (default: 30m)")
	timezone := flag.String("timezone", "", "School time zone (default: Local)")
	tieBreak := flag.String("tie-break", "", "Order of equal-priority books: insertion or book (default: insertion)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "CORS_ORIGINS", "*")),
			RateLimitRPS:   getFloatConfigValue(*rateLimit, "RATE_LIMIT_RPS", 20),
			RateLimitBurst: getIntConfigValue(*rateBurst, "RATE_LIMIT_BURST", 40),
		},
		Planner: PlannerConfig{
			DefaultSlotsPerDay: getIntConfigValue(*slotsPerDay, "PLANNER_SLOTS_PER_DAY", 1),
			AlignFirstWeek:     getBoolConfigValue(*alignFirstWeek, "PLANNER_ALIGN_FIRST_WEEK", true),
			LookaheadMonths:    getIntConfigValue(*lookahead, "PLANNER_LOOKAHEAD_MONTHS", 24),
			Timezone:           getConfigValue(*timezone, "TZ", "Local"),
			TieBreak:           strings.ToLower(getConfigValue(*tieBreak, "PLANNER_TIE_BREAK", "insertion")),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.Planner.PreviewTTL, err = getDurationConfigValue(*previewTTL, "PLANNER_PREVIEW_TTL", "30m"); err != nil {
		return nil, fmt.Errorf("invalid preview ttl: %w", err)
	}

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
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

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Planner.DefaultSlotsPerDay < 1 {
		return fmt.Errorf("invalid default slots per day: %d (must be at least 1)", c.Planner.DefaultSlotsPerDay)
	}
	if c.Planner.LookaheadMonths < 1 || c.Planner.LookaheadMonths > 120 {
		return fmt.Errorf("invalid lookahead months: %d (must be between 1 and 120)", c.Planner.LookaheadMonths)
	}
	if c.Planner.PreviewTTL <= 0 {
		return errors.New("preview ttl must be positive")
	}
	if c.Planner.TieBreak != "insertion" && c.Planner.TieBreak != "book" {
		return fmt.Errorf("invalid tie break: %s (must be insertion or book)", c.Planner.TieBreak)
	}
	if _, err := c.Planner.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Planner.Timezone, err)
	}

	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst < 1 {
		return errors.New("rate limit and burst must be positive")
	}

	return nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
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

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/ClassDesk/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ClassDesk", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable (including values loaded from .env).
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", envKey, strValue, err)
	}
	return d, nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
