// Package config provides application configuration management with support
// for command-line flags, environment variables, .env files and a YAML file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Logger    LoggerConfig    `yaml:"logger"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `yaml:"environment"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name           string        `yaml:"name"`
	Port           string        `yaml:"port"`            // default: 8080
	ReadTimeout    time.Duration `yaml:"read_timeout"`    // default: 15s
	WriteTimeout   time.Duration `yaml:"write_timeout"`   // default: 15s, SSE and websocket routes are exempt
	IdleTimeout    time.Duration `yaml:"idle_timeout"`    // default: 60s
	MaxConnections int           `yaml:"max_connections"` // 0 means unlimited
	AllowedOrigins []string      `yaml:"allowed_origins"`
	AdvertiseMDNS  bool          `yaml:"advertise_mdns"`
}

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// StorageConfig selects the position store backend.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	DataPath string `yaml:"data_path"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// AccessTokenKey is the hex PASETO v4 key. When empty, a key is loaded
	// from or generated into the data path.
	AccessTokenKey      string        `yaml:"access_token_key"`
	AccessTokenDuration time.Duration `yaml:"access_token_duration"`
}

// RealtimeConfig tunes the broadcaster and presence tracker.
type RealtimeConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	CursorTTL         time.Duration `yaml:"cursor_ttl"`
	QueueSize         int           `yaml:"queue_size"`
	SessionBuffer     int           `yaml:"session_buffer"`
}

// RedisConfig enables the cross-instance relay when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// Enabled reports whether the relay should run.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// RateLimitConfig configures the per-IP limiter on mutating routes.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Interval time.Duration `yaml:"interval"`
	Burst    int           `yaml:"burst"`
}

// LoadConfig loads configuration from the process arguments. See Load.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. YAML config file (--config or CONFIG_FILE).
// 5. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("kanban-server", flag.ContinueOnError)

	configFile := fs.String("config", "", "Path to YAML config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	// Server flags
	serverName := fs.String("server-name", "", "Name for the server")
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	maxConnections := fs.String("max-connections", "", "Maximum concurrent connections (default: unlimited)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma-separated CORS and websocket origins")
	advertiseMDNS := fs.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: false)")

	// Storage flags
	driver := fs.String("storage-driver", "", "Position store backend: sqlite or badger (default: sqlite)")
	dataPath := fs.String("data-path", "", "Directory for the database and auth key")

	// Auth flags
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")

	// Realtime flags
	heartbeat := fs.String("heartbeat-interval", "", "SSE and websocket heartbeat interval (default: 30s)")
	cursorTTL := fs.String("cursor-ttl", "", "Idle time before a cursor is hidden (default: 5s)")

	// Redis flags
	redisAddr := fs.String("redis-addr", "", "Redis address for the cross-instance relay")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	file := &Config{}
	if path := getConfigValue(*configFile, "CONFIG_FILE", ""); path != "" {
		var err error
		if file, err = loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", or(file.App.Environment, "development")),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", or(file.Logger.Level, "info")),
		},
		Server: ServerConfig{
			Name:           getConfigValue(*serverName, "SERVER_NAME", or(file.Server.Name, "Kanban Server")),
			Port:           getConfigValue(*serverPort, "SERVER_PORT", or(file.Server.Port, "8080")),
			MaxConnections: getIntConfigValue(*maxConnections, "SERVER_MAX_CONNECTIONS", file.Server.MaxConnections),
			AllowedOrigins: getListConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", file.Server.AllowedOrigins),
			AdvertiseMDNS:  getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", file.Server.AdvertiseMDNS),
		},
		Storage: StorageConfig{
			Driver:   getConfigValue(*driver, "STORAGE_DRIVER", or(file.Storage.Driver, DriverSQLite)),
			DataPath: getConfigValue(*dataPath, "DATA_PATH", file.Storage.DataPath),
		},
		Auth: AuthConfig{
			AccessTokenKey: getConfigValue("", "ACCESS_TOKEN_KEY", file.Auth.AccessTokenKey),
		},
		Realtime: RealtimeConfig{
			QueueSize:     getIntConfigValue("", "REALTIME_QUEUE_SIZE", orInt(file.Realtime.QueueSize, 1000)),
			SessionBuffer: getIntConfigValue("", "REALTIME_SESSION_BUFFER", orInt(file.Realtime.SessionBuffer, 100)),
		},
		Redis: RedisConfig{
			Addr:     getConfigValue(*redisAddr, "REDIS_ADDR", file.Redis.Addr),
			Password: getConfigValue("", "REDIS_PASSWORD", file.Redis.Password),
			DB:       getIntConfigValue("", "REDIS_DB", file.Redis.DB),
			Channel:  getConfigValue("", "REDIS_CHANNEL", or(file.Redis.Channel, "kanban:events")),
		},
		RateLimit: RateLimitConfig{
			Requests: getIntConfigValue("", "RATE_LIMIT_REQUESTS", orInt(file.RateLimit.Requests, 100)),
			Burst:    getIntConfigValue("", "RATE_LIMIT_BURST", orInt(file.RateLimit.Burst, 20)),
		},
	}

	durations := []struct {
		dst   *time.Duration
		flag  string
		env   string
		file  time.Duration
		def   string
		label string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", file.Server.ReadTimeout, "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", file.Server.WriteTimeout, "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", file.Server.IdleTimeout, "60s", "idle timeout"},
		{&cfg.Auth.AccessTokenDuration, *accessTokenDuration, "ACCESS_TOKEN_DURATION", file.Auth.AccessTokenDuration, "24h", "access token duration"},
		{&cfg.Realtime.HeartbeatInterval, *heartbeat, "HEARTBEAT_INTERVAL", file.Realtime.HeartbeatInterval, "30s", "heartbeat interval"},
		{&cfg.Realtime.CursorTTL, *cursorTTL, "CURSOR_TTL", file.Realtime.CursorTTL, "5s", "cursor ttl"},
		{&cfg.RateLimit.Interval, "", "RATE_LIMIT_INTERVAL", file.RateLimit.Interval, "1m", "rate limit interval"},
	}
	for _, d := range durations {
		def := d.def
		if d.file > 0 {
			def = d.file.String()
		}
		raw := getConfigValue(d.flag, d.env, def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.label, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
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

	switch c.Storage.Driver {
	case DriverSQLite, DriverBadger:
	default:
		return fmt.Errorf("invalid storage driver: %s (must be sqlite or badger)", c.Storage.Driver)
	}
	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Server.MaxConnections < 0 {
		return errors.New("max connections cannot be negative")
	}
	if c.Realtime.QueueSize <= 0 || c.Realtime.SessionBuffer <= 0 {
		return errors.New("realtime queue size and session buffer must be positive")
	}
	if c.Realtime.HeartbeatInterval <= 0 || c.Realtime.CursorTTL <= 0 {
		return errors.New("heartbeat interval and cursor ttl must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Interval <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit requests, interval and burst must be positive")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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

// expandDataPath defaults the data path to ~/Kanban/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, "Kanban", "data"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// loadYAML reads a config file. Its values act as defaults for every other
// source.
func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
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

// getListConfigValue splits a comma-separated flag or env var.
func getListConfigValue(flagValue, envKey string, defaultValue []string) []string {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars already set take precedence over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
