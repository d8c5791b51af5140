package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("SESSION_BACKEND", "")
	t.Setenv("COURSE_CATALOG", "")
	t.Setenv("OLLAMA_API", "")
	t.Setenv("CHAT_UPSTREAM_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.App.Addr())
	assert.Equal(t, StoreBackendFile, cfg.Store.Backend)
	assert.Equal(t, SessionBackendMemory, cfg.Auth.SessionBackend)
	assert.Equal(t, "http://localhost:11434/api/chat", cfg.Chat.UpstreamURL)
	assert.Equal(t, DefaultCourseCatalog, cfg.Catalog.Courses)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL())
	assert.Equal(t, 2*time.Minute, cfg.Chat.ReadTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("PORT", "8081")
	t.Setenv("OLLAMA_API", "http://llm:11434/api/chat")
	t.Setenv("COURSE_CATALOG", "Go | Rust ||")
	t.Setenv("CHAT_TEMPERATURE", "0.2")
	t.Setenv("SESSION_BACKEND", "REDIS")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.App.Port)
	assert.Equal(t, "http://llm:11434/api/chat", cfg.Chat.UpstreamURL)
	assert.Equal(t, []string{"Go", "Rust"}, cfg.Catalog.Courses)
	assert.InDelta(t, 0.2, cfg.Chat.Temperature, 1e-9)
	assert.Equal(t, SessionBackendRedis, cfg.Auth.SessionBackend)
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	t.Setenv("STORE_BACKEND", "s3")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE_BACKEND", "file")
	t.Setenv("SESSION_BACKEND", "memcached")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("CHAT_TOP_P", "high")
	_, err = Load()
	assert.Error(t, err)
}
