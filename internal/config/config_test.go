package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MATCHMAKING_INTERVAL", "READY_TIMEOUT", "WS_MESSAGE_RATE", "REDIS_URL", "DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "25560", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.MatchmakingInterval)
	assert.Equal(t, 30*time.Second, cfg.ReadyTimeout)
	assert.Equal(t, int64(20), cfg.WSMessageRate)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, 2, cfg.DBMaxIdleConns)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MATCHMAKING_INTERVAL", "250ms")
	t.Setenv("READY_TIMEOUT", "not-a-duration")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.MatchmakingInterval)
	assert.Equal(t, 30*time.Second, cfg.ReadyTimeout, "invalid value falls back to default")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
