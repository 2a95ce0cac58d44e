package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[mainConfig]
appName = "support"
port = 9000
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "support", cfg.MainConfig.AppName)
	assert.Equal(t, 9000, cfg.MainConfig.Port)
	assert.Equal(t, "mysql", cfg.MysqlConfig.Driver)
	assert.Equal(t, "channel", cfg.KafkaConfig.MessageMode)
	assert.Equal(t, "admin", cfg.ChatConfig.AdminSentinelId)
	assert.Equal(t, 1000, cfg.ChatConfig.MessageMaxLength)
	assert.Equal(t, 50, cfg.ChatConfig.MessagePageSize)
	assert.Equal(t, 20, cfg.ChatConfig.ConversationPageSize)
	assert.Equal(t, "authToken", cfg.JWTConfig.CookieName)
	assert.NotEmpty(t, cfg.CorsConfig.AllowOrigins)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[mysqlConfig]
driver = "mysql"
host = "db.internal"

[kafkaConfig]
messageMode = "channel"
`)
	t.Setenv(EnvPrefix+"DB_DRIVER", "postgres")
	t.Setenv(EnvPrefix+"MESSAGE_MODE", "redis")
	t.Setenv(EnvPrefix+"CORS_ORIGINS", "https://shop.example.com,https://admin.example.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.MysqlConfig.Driver)
	assert.Equal(t, "db.internal", cfg.MysqlConfig.Host)
	assert.Equal(t, "redis", cfg.KafkaConfig.MessageMode)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CorsConfig.AllowOrigins)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
