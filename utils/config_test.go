package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.BotToken)
	assert.Equal(t, int32(10), cfg.DBMaxConn)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.SessionMaxAge)
	assert.Equal(t, "0 */5 * * * *", cfg.SessionSweepSpec)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, "heist", cfg.MetricsNamespace)
	assert.False(t, cfg.HasDatabase())
	assert.False(t, cfg.HasRedis())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://heist@localhost/heist")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DB_MAX_CONN", "25")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_MAX_AGE", "5m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.HasDatabase())
	assert.True(t, cfg.HasRedis())
	assert.Equal(t, int32(25), cfg.DBMaxConn)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.SessionMaxAge)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"level", "LOG_LEVEL", "loud"},
		{"pool", "DB_MAX_CONN", "0"},
		{"guild", "GUILD_ID", "my-guild"},
		{"port", "PORT", "http"},
		{"duration", "LOCK_TTL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
