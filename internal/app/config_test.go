package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("MEMBERSHIP_SECRET", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CSRF_SECRET", "csrf")
	t.Setenv("MEMBERSHIP_SECRET", "open-sesame")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "@every 1h", cfg.SessionPruneCron)
	assert.Equal(t, "open-sesame", cfg.MembershipSecret)
	assert.Equal(t, 3, cfg.Redis().DB)
	assert.False(t, cfg.IsProduction())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel(&Config{LogLevel: "debug"}).String())
	assert.Equal(t, "WARN", parseLevel(&Config{LogLevel: "Warning"}).String())
	assert.Equal(t, "INFO", parseLevel(nil).String())
}
