package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "LLM_PROVIDER", "GROQ_API_KEY", "GROQ_BASE_URL", "GROQ_MODEL", "GROQ_ENABLED_TOOLS",
	"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_BASE_URL", "ARK_REGION", "Model",
	"LLM_TEMPERATURE", "LLM_TOP_P", "LLM_MAX_TOKENS", "LLM_STREAM", "LLM_TIMEOUT", "HISTORY_LIMIT",
	"TRAVELER_CSV", "STORE_DRIVER", "SQLITE_DSN", "REDIS_URL", "SESSION_TTL", "SESSION_COOKIE",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ORIGINS", "SANITIZE_HTML",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 2.0, cfg.Server.RateLimitRPS)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, "travelchat_session", cfg.Server.SessionCookie)
	assert.True(t, cfg.Server.SanitizeHTML)

	assert.Equal(t, ProviderGroq, cfg.AI.Provider)
	assert.Equal(t, "groq/compound", cfg.AI.GroqModel)
	assert.Equal(t, []string{"web_search", "code_interpreter", "visit_website"}, cfg.AI.GroqEnabledTools)
	assert.Equal(t, 1.0, *cfg.AI.Temperature)
	assert.Equal(t, 1.0, *cfg.AI.TopP)
	assert.Equal(t, 1024, *cfg.AI.MaxTokens)
	assert.True(t, cfg.AI.StreamResponse)
	assert.Equal(t, 10, cfg.AI.HistoryLimit)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.False(t, cfg.AI.Enabled())

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Store.SessionTTL)
	assert.Equal(t, "TravelPreference.csv", cfg.Traveler.CSVPath)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:8080")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("LLM_TEMPERATURE", "0.4")
	t.Setenv("LLM_STREAM", "false")
	t.Setenv("HISTORY_LIMIT", "4")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SANITIZE_HTML", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Server.SanitizeHTML)
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, 0.4, *cfg.AI.Temperature)
	assert.False(t, cfg.AI.StreamResponse)
	assert.Equal(t, 4, cfg.AI.HistoryLimit)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
}

func TestProviderFallsBackToArk(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARK_API_KEY", "ark-key")
	t.Setenv("Model", "doubao-pro")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "50 00"},
		{"LLM_PROVIDER", "openai"},
		{"STORE_DRIVER", "postgres"},
		{"LLM_TEMPERATURE", "warm"},
		{"LLM_STREAM", "maybe"},
		{"SESSION_TTL", "tomorrow"},
		{"RATE_LIMIT_BURST", "many"},
		{"HISTORY_LIMIT", "0"},
		{"HISTORY_LIMIT", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewChatModelRequiresCredentials(t *testing.T) {
	_, err := AIConfig{Provider: ProviderGroq, GroqModel: "groq/compound"}.NewChatModel(context.Background())
	assert.Error(t, err)
}

func TestNewChatModelGroq(t *testing.T) {
	temp := 0.5
	m, err := AIConfig{
		Provider:    ProviderGroq,
		GroqAPIKey:  "gsk_test",
		GroqModel:   "groq/compound",
		GroqBaseURL: "http://localhost:1",
		Temperature: &temp,
	}.NewChatModel(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, m)
}
