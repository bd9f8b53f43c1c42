package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{Driver: DriverSQLite, DataPath: "/some/path"},
		Realtime: RealtimeConfig{
			HeartbeatInterval: 30 * time.Second,
			CursorTTL:         5 * time.Second,
			QueueSize:         1000,
			SessionBuffer:     100,
		},
		RateLimit: RateLimitConfig{Requests: 100, Interval: time.Minute, Burst: 20},
	}
}

// isolate points every source at an empty directory so the developer's own
// environment cannot leak into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "SERVER_PORT", "STORAGE_DRIVER", "DATA_PATH", "CONFIG_FILE",
		"REDIS_ADDR", "ACCESS_TOKEN_KEY", "ALLOWED_ORIGINS", "CURSOR_TTL",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"empty data path", func(c *Config) { c.Storage.DataPath = "" }},
		{"negative connections", func(c *Config) { c.Server.MaxConnections = -1 }},
		{"zero queue", func(c *Config) { c.Realtime.QueueSize = 0 }},
		{"zero cursor ttl", func(c *Config) { c.Realtime.CursorTTL = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.True(t, filepath.IsAbs(cfg.Storage.DataPath))
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 5*time.Second, cfg.Realtime.CursorTTL)
	assert.Equal(t, 1000, cfg.Realtime.QueueSize)
	assert.Equal(t, "kanban:events", cfg.Redis.Channel)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)

	yamlPath := filepath.Join(dir, "kanban.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
server:
  port: "7000"
  allowed_origins: ["https://board.example.com"]
storage:
  driver: badger
realtime:
  cursor_ttl: 10s
  queue_size: 50
redis:
  addr: localhost:6379
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=7100\n# comment\nLOG_LEVEL='debug'\n"), 0o600))
	t.Setenv("CURSOR_TTL", "")

	cfg, err := Load([]string{"--config", yamlPath, "--data-path", "data"})
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Server.Port, ".env beats the YAML file")
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.Equal(t, []string{"https://board.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.Realtime.CursorTTL)
	assert.Equal(t, 50, cfg.Realtime.QueueSize)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.DataPath)

	cfg, err = Load([]string{"--config", yamlPath, "--port", "9000", "--storage-driver", "sqlite"})
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port, "flags beat everything")
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
}

func TestLoad_InvalidDuration(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--read-timeout", "soon"})
	assert.ErrorContains(t, err, "invalid read timeout")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	isolate(t)
	_, err := Load([]string{"--config", "missing.yaml"})
	assert.ErrorContains(t, err, "read config file")
}

func TestGetListConfigValue(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, getListConfigValue(" a, ,b ", "", nil))
	assert.Equal(t, []string{"x"}, getListConfigValue("", "", []string{"x"}))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/kanban", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "kanban"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)
}
