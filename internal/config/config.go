// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Storage  StorageConfig
	Sounds   SoundsConfig
	Playback PlaybackConfig
	History  HistoryConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json, pretty, or empty for auto-detect
}

// ServerConfig holds the control API server configuration.
type ServerConfig struct {
	Name            string
	Host            string        // Bind address (default: 127.0.0.1, loopback only)
	Port            string        // Server port (default: 7733)
	ReadTimeout     time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout    time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout     time.Duration // HTTP idle timeout (default: 60s)
	ShutdownTimeout time.Duration // Graceful shutdown window (default: 10s)
	AdvertiseMDNS   bool          // Advertise via mDNS/Zeroconf (default: true)
}

// StorageConfig holds on-disk state locations. Everything lives under DataDir.
type StorageConfig struct {
	DataDir     string // Root for all daemon state (default: ~/.earcon)
	PrefsPath   string // Badger preference store (derived: {data}/prefs)
	HistoryPath string // SQLite playback ledger (derived: {data}/history.db)
	SearchPath  string // Bleve catalog index (derived: {data}/search)
}

// SoundsConfig holds cue source locations.
type SoundsConfig struct {
	// PackDir is the custom sound pack directory (default: {data}/packs).
	PackDir string
	// SystemDir is the OS sound library root. Empty means the platform default.
	SystemDir string
	// Watch enables hot reload of the pack directory (default: true).
	Watch bool
}

// PlaybackConfig holds the cue flood guard settings.
type PlaybackConfig struct {
	// Rate is the sustained cues-per-second ceiling (default: 5).
	Rate int
	// Burst is the number of cues allowed back-to-back (default: 10).
	Burst int
}

// HistoryConfig holds playback ledger retention.
type HistoryConfig struct {
	// Retention is how long ledger rows are kept (default: 720h).
	Retention time.Duration
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
	logFormat := flag.String("log-format", "", "Log format (json, pretty; default auto)")
	serverName := flag.String("server-name", "", "Name advertised for this daemon")
	serverHost := flag.String("host", "", "Bind address (default: 127.0.0.1)")
	serverPort := flag.String("port", "", "Server port (default: 7733)")
	dataDir := flag.String("data", "", "Directory for daemon state (default: ~/.earcon)")
	packDir := flag.String("packs", "", "Custom sound pack directory (default: {data}/packs)")
	systemDir := flag.String("system-sounds", "", "OS sound library root (default: platform-specific)")
	watch := flag.String("watch", "", "Hot-reload the pack directory (default: true)")
	advertiseMDNS := flag.String("mdns", "", "Advertise via mDNS/Zeroconf (default: true)")
	playRate := flag.String("play-rate", "", "Sustained cues per second (default: 5)")
	playBurst := flag.String("play-burst", "", "Cue burst allowance (default: 10)")
	historyRetention := flag.String("history-retention", "", "Playback ledger retention (default: 720h)")

	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	shutdownTimeout := flag.String("shutdown-timeout", "", "Graceful shutdown window (default: 10s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "EARCON_ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "EARCON_LOG_LEVEL", "info"),
			Format: getConfigValue(*logFormat, "EARCON_LOG_FORMAT", ""),
		},
		Server: ServerConfig{
			Name:          getConfigValue(*serverName, "EARCON_SERVER_NAME", "Earcon"),
			Host:          getConfigValue(*serverHost, "EARCON_HOST", "127.0.0.1"),
			Port:          getConfigValue(*serverPort, "EARCON_PORT", "7733"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "EARCON_MDNS", true),
		},
		Storage: StorageConfig{
			DataDir: getConfigValue(*dataDir, "EARCON_DATA_DIR", ""),
		},
		Sounds: SoundsConfig{
			PackDir:   getConfigValue(*packDir, "EARCON_PACK_DIR", ""),
			SystemDir: getConfigValue(*systemDir, "EARCON_SYSTEM_SOUND_DIR", ""),
			Watch:     getBoolConfigValue(*watch, "EARCON_WATCH", true),
		},
		Playback: PlaybackConfig{
			Rate:  getIntConfigValue(*playRate, "EARCON_PLAY_RATE", 5),
			Burst: getIntConfigValue(*playBurst, "EARCON_PLAY_BURST", 10),
		},
	}

	// Parse durations.
	retentionStr := getConfigValue(*historyRetention, "EARCON_HISTORY_RETENTION", "720h")
	retention, err := time.ParseDuration(retentionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid history retention %q: %w", retentionStr, err)
	}
	cfg.History.Retention = retention

	readTimeoutStr := getConfigValue(*readTimeout, "EARCON_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "EARCON_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "EARCON_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	shutdownTimeoutStr := getConfigValue(*shutdownTimeout, "EARCON_SHUTDOWN_TIMEOUT", "10s")
	shutdownTimeoutDuration, err := time.ParseDuration(shutdownTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout %q: %w", shutdownTimeoutStr, err)
	}
	cfg.Server.ShutdownTimeout = shutdownTimeoutDuration

	// Expand and derive storage paths.
	if err := cfg.expandStoragePaths(); err != nil {
		return nil, fmt.Errorf("invalid data dir: %w", err)
	}

	// Expand sound locations.
	if err := cfg.expandSoundPaths(); err != nil {
		return nil, fmt.Errorf("invalid sound path: %w", err)
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
		return errors.New("EARCON_ENV is required")
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

	if c.Storage.DataDir == "" {
		return errors.New("data dir cannot be empty after expansion")
	}

	if c.Playback.Rate <= 0 {
		return fmt.Errorf("play rate must be positive, got %d", c.Playback.Rate)
	}
	if c.Playback.Burst <= 0 {
		return fmt.Errorf("play burst must be positive, got %d", c.Playback.Burst)
	}

	// SystemDir may legitimately not exist; the resolver treats that as
	// "no system sounds on this host".

	return nil
}

// DefaultSystemSoundDir returns the platform's OS sound library root.
func DefaultSystemSoundDir() string {
	switch runtime.GOOS {
	case "darwin":
		return "/System/Library/Sounds"
	case "windows":
		return `C:\Windows\Media`
	default:
		return "/usr/share/sounds"
	}
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

// expandStoragePaths expands DataDir and derives the per-store paths.
func (c *Config) expandStoragePaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultDir := filepath.Join(homeDir, ".earcon")

	expanded, err := expandPath(c.Storage.DataDir, defaultDir)
	if err != nil {
		return err
	}
	c.Storage.DataDir = expanded
	c.Storage.PrefsPath = filepath.Join(expanded, "prefs")
	c.Storage.HistoryPath = filepath.Join(expanded, "history.db")
	c.Storage.SearchPath = filepath.Join(expanded, "search")
	return nil
}

// expandSoundPaths expands the pack dir (defaults to {data}/packs) and fills
// in the platform system sound dir when unset.
func (c *Config) expandSoundPaths() error {
	defaultPacks := filepath.Join(c.Storage.DataDir, "packs")

	expanded, err := expandPath(c.Sounds.PackDir, defaultPacks)
	if err != nil {
		return err
	}
	c.Sounds.PackDir = expanded

	if c.Sounds.SystemDir == "" {
		c.Sounds.SystemDir = DefaultSystemSoundDir()
	} else {
		expanded, err := expandPath(c.Sounds.SystemDir, "")
		if err != nil {
			return err
		}
		c.Sounds.SystemDir = expanded
	}

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
