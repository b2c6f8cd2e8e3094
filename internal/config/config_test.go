package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8000" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8000")
	}
	if cfg.MetricsNamespace != "recall" {
		t.Fatalf("MetricsNamespace = %q, want %q", cfg.MetricsNamespace, "recall")
	}
	if cfg.EmbeddingDim != 1536 {
		t.Fatalf("EmbeddingDim = %d, want 1536", cfg.EmbeddingDim)
	}
	if cfg.DailyRequestLimit != 200 {
		t.Fatalf("DailyRequestLimit = %d, want 200", cfg.DailyRequestLimit)
	}
	if cfg.RateTableMaxEntries != 1000 {
		t.Fatalf("RateTableMaxEntries = %d, want 1000", cfg.RateTableMaxEntries)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 15s", cfg.ShutdownTimeout)
	}
	if cfg.OpenAIAPIKey != "" {
		t.Fatalf("OpenAIAPIKey = %q, want empty default", cfg.OpenAIAPIKey)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9191")
	t.Setenv("OPENAI_API_KEY", " sk-test \n")
	t.Setenv("RECALL_CHAT_MODEL", "gpt-4o")
	t.Setenv("RATE_LIMIT_DAILY", "50")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9191" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("OpenAIAPIKey = %q, want trimmed value", cfg.OpenAIAPIKey)
	}
	if cfg.ChatModel != "gpt-4o" {
		t.Fatalf("ChatModel = %q", cfg.ChatModel)
	}
	if cfg.DailyRequestLimit != 50 {
		t.Fatalf("DailyRequestLimit = %d", cfg.DailyRequestLimit)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"MEMORY_EMBEDDING_DIM":   "0",
		"RATE_LIMIT_DAILY":       "-1",
		"RATE_LIMIT_MAX_ENTRIES": "0",
		"APP_SHUTDOWN_TIMEOUT":   "soon",
		"APP_ALLOW_ANY_ORIGIN":   "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() accepted %s=%s", key, value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ENVIRONMENT",
		"APP_ALLOW_ANY_ORIGIN",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"RECALL_CHAT_MODEL",
		"RECALL_EMBEDDING_MODEL",
		"DATABASE_URL",
		"MEMORY_EMBEDDING_DIM",
		"RATE_LIMIT_DAILY",
		"RATE_LIMIT_MAX_ENTRIES",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
