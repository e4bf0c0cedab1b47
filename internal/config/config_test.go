package config_test

import (
	"linkbrief/internal/config"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"GROQ_API_KEY": " key "})
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.GroqAPIKey)
	assert.Equal(t, "https://api.groq.com/openai/v1/", cfg.LLMBaseURL)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLMModel)
	assert.Equal(t, int64(1024), cfg.LLMMaxTokens)
	assert.Equal(t, ":8501", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, []string{"en"}, cfg.YouTubeLanguages)
	assert.True(t, cfg.YouTubeVideoInfo)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadFromMissingAPIKey(t *testing.T) {
	_, err := config.LoadFrom(map[string]string{})
	require.Error(t, err)

	key, ok := config.MissingVar(err)
	assert.True(t, ok)
	assert.Equal(t, "GROQ_API_KEY", key)
}

func TestLoadFromEmptyAPIKey(t *testing.T) {
	for _, value := range []string{"", "   "} {
		_, err := config.LoadFrom(map[string]string{"GROQ_API_KEY": value})
		require.Error(t, err)

		key, ok := config.MissingVar(err)
		assert.True(t, ok, "value %q", value)
		assert.Equal(t, "GROQ_API_KEY", key)
	}
}

func TestLoadFromInvalidValueIsNotMissingVar(t *testing.T) {
	tests := map[string]string{
		"LOG_LEVEL":     "LOUD",
		"ALLOWED_USERS": "1,abc",
		"FETCH_TIMEOUT": "soon",
	}

	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadFrom(map[string]string{"GROQ_API_KEY": "key", name: value})
			require.Error(t, err)

			_, ok := config.MissingVar(err)
			assert.False(t, ok)
		})
	}
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"GROQ_API_KEY":       "key",
		"YOUTUBE_LANGUAGES":  "de, en ,",
		"YOUTUBE_VIDEO_INFO": "false",
		"LOG_LEVEL":          "DEBUG",
		"TELEGRAM_TOKEN":     "123:abc",
		"ALLOWED_USERS":      "1,2",
		"FETCH_TIMEOUT":      "5s",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"de", "en"}, cfg.YouTubeLanguages)
	assert.False(t, cfg.YouTubeVideoInfo)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, []int64{1, 2}, cfg.AllowedUsers)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
}
