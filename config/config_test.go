package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadJSONConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "9000", "JWTSecret": "s3cret", "AdminUsernames": ["root", "dm"]},
		"database": {"Driver": "sqlite", "SQLitePath": "/tmp/hub.db"},
		"redis": {"Enabled": false, "RedisPort": 6390},
		"log": {"Level": "debug", "Compress": true},
		"site": {"NoticeTitle": "Welcome"}
	}`), 0o600))

	c := AppConfig{RedisEnabled: true}
	require.NoError(t, loadJSONConfig(path, &c))

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "s3cret", c.JWTSecret)
	assert.Equal(t, []string{"root", "dm"}, c.AdminUsernames)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "/tmp/hub.db", c.SQLitePath)
	assert.False(t, c.RedisEnabled)
	assert.Equal(t, 6390, c.RedisPort)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
	assert.Equal(t, "Welcome", c.NoticeTitle)
}

func TestLoadJSONConfigMissingAndInvalid(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "absent.json"), &c))

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app":`), 0o600))
	assert.Error(t, loadJSONConfig(path, &c))
}

func TestDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "7000")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("ADMIN_USERNAMES", " root , ,dm")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	c := AppConfig{RedisEnabled: true, LogLevel: "warn"}
	applyDefaults(&c)
	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, 72, c.JWTTTLHours)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "/metrics", c.MetricsPath)
	assert.Equal(t, "warn", c.LogLevel)

	applyEnvOverrides(&c)
	assert.Equal(t, "7000", c.AppPort)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.False(t, c.RedisEnabled)
	assert.Equal(t, []string{"root", "dm"}, c.AdminUsernames)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
}

func TestToGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, toGormLogLevel("debug"))
	assert.Equal(t, logger.Warn, toGormLogLevel("info"))
	assert.Equal(t, logger.Warn, toGormLogLevel(""))
	assert.Equal(t, logger.Error, toGormLogLevel("error"))
	assert.Equal(t, logger.Silent, toGormLogLevel("silent"))
}

func TestOpenDialector(t *testing.T) {
	d, err := openDialector(AppConfig{DBDriver: "mysql", DBUser: "u", DBHost: "h", DBPort: "1", DBName: "n"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	d, err = openDialector(AppConfig{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "x", "hub.db")})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = openDialector(AppConfig{DBDriver: "oracle"})
	assert.Error(t, err)
}
