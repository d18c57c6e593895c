package config

import (
	"testing"
	"time"
)

func clearPipelineEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "DATABASE_URL", "LLM_PROVIDER",
		"GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "OPENAI_MODEL",
		"CHUNK_SIZE", "CHUNK_OVERLAP", "RETRIEVAL_TOP_K", "RANKING_ENABLED",
		"QUERY_EXPANSION_ENABLED", "QUERY_EXPANSION_COUNT", "QUERY_EXPANSION_TEMPERATURE",
		"SYNTHESIS_CONTEXT_LIMIT", "SYNTHESIS_TEMPERATURE", "SYNTHESIS_CITATIONS_ENABLED",
		"CRITIQUE_ENABLED", "CRITIQUE_THRESHOLD", "MAX_IMPROVEMENT_ATTEMPTS",
		"LLM_TIMEOUT_MS", "LLM_MAX_RETRIES", "CACHE_ENABLED",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Provider != ProviderGemini {
		t.Errorf("expected default provider gemini, got %s", cfg.Provider)
	}
	if cfg.ChunkSize != 1200 || cfg.ChunkOverlap != 200 {
		t.Errorf("unexpected chunking defaults: size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TopK != 5 {
		t.Errorf("expected default top K 5, got %d", cfg.TopK)
	}
	if cfg.CritiqueThreshold != 0.7 || cfg.MaxImprovementAttempts != 2 {
		t.Errorf("unexpected critique defaults: threshold=%v attempts=%d", cfg.CritiqueThreshold, cfg.MaxImprovementAttempts)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Errorf("expected default timeout 60s, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected default retries 3, got %d", cfg.MaxRetries)
	}
	if cfg.CacheEnabled {
		t.Error("cache should be off by default")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CHUNK_SIZE", "800")
	t.Setenv("CRITIQUE_THRESHOLD", "0.9")
	t.Setenv("LLM_TIMEOUT_MS", "5000")
	t.Setenv("CACHE_ENABLED", "true")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider != ProviderOpenAI {
		t.Errorf("expected provider openai, got %s", cfg.Provider)
	}
	if cfg.ChunkSize != 800 {
		t.Errorf("expected chunk size 800, got %d", cfg.ChunkSize)
	}
	if cfg.CritiqueThreshold != 0.9 {
		t.Errorf("expected threshold 0.9, got %v", cfg.CritiqueThreshold)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.RequestTimeout)
	}
	if !cfg.CacheEnabled {
		t.Error("expected cache enabled")
	}
}

func TestLoadFromEnv_MissingProviderKey(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("LLM_PROVIDER", "gemini")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error when the active provider's API key is missing")
	}

	clearPipelineEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is missing")
	}
}

func TestLoadFromEnv_UnknownProvider(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("LLM_PROVIDER", "mistral")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadFromEnv_MalformedNumbersFallBack(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CHUNK_SIZE", "not-a-number")
	t.Setenv("CRITIQUE_THRESHOLD", "high")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkSize != 1200 {
		t.Errorf("expected fallback chunk size, got %d", cfg.ChunkSize)
	}
	if cfg.CritiqueThreshold != 0.7 {
		t.Errorf("expected fallback threshold, got %v", cfg.CritiqueThreshold)
	}
}

func TestLoadFromEnv_InvalidRangesRejected(t *testing.T) {
	clearPipelineEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CHUNK_SIZE", "-10")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for negative chunk size")
	}

	clearPipelineEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("CRITIQUE_THRESHOLD", "1.5")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for out-of-range threshold")
	}
}
