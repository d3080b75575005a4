package config_test

import (
	"testing"

	"telemed-chat-be/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "4000", cfg.App.Port)
	assert.True(t, cfg.Chat.AllowCancelledChat, "cancelled appointments chat by default")
	assert.Equal(t, 5, cfg.Chat.AuthorizeTimeoutSeconds)
	assert.Equal(t, "CHAT_MESSAGE_PERSISTED", cfg.Chat.EventTopic)
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("CHAT_ALLOW_CANCELLED", "false")
	t.Setenv("CHAT_AUTHORIZE_TIMEOUT_SECONDS", "2")
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/chat")

	cfg := config.Load()
	assert.Equal(t, "9000", cfg.App.Port)
	assert.False(t, cfg.Chat.AllowCancelledChat)
	assert.Equal(t, 2, cfg.Chat.AuthorizeTimeoutSeconds)
	assert.Equal(t, "postgres://localhost/chat", cfg.Database.Connection)
}

func TestLoadIgnoresMalformedOverrides(t *testing.T) {
	t.Setenv("CHAT_AUTHORIZE_TIMEOUT_SECONDS", "soon")
	t.Setenv("CHAT_ALLOW_CANCELLED", "maybe")

	cfg := config.Load()
	assert.Equal(t, 5, cfg.Chat.AuthorizeTimeoutSeconds)
	assert.True(t, cfg.Chat.AllowCancelledChat)
}
