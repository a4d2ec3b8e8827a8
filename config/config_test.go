package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicerag/types"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o", cfg.LLMModel)
	assert.Equal(t, "alloy", cfg.TTSVoice)
	assert.Equal(t, 10*time.Minute, cfg.EmbedCacheTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "100")
	t.Setenv("CHUNK_OVERLAP", "10")
	t.Setenv("VECTOR_STORE", "memory")
	t.Setenv("HTTP_TIMEOUT", "5s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, types.ChunkConfig{ChunkSize: 100, ChunkOverlap: 10}, cfg.ChunkConfig())
	assert.Equal(t, "memory", cfg.VectorStore)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestFromEnvRejectsOverlapNotBelowChunkSize(t *testing.T) {
	for _, overlap := range []string{"100", "150"} {
		t.Setenv("CHUNK_SIZE", "100")
		t.Setenv("CHUNK_OVERLAP", overlap)

		_, err := FromEnv()
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidChunkConfig), overlap)
	}
}

func TestFromEnvBadNumber(t *testing.T) {
	t.Setenv("TOP_K", "five")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOP_K")
}

func TestFromEnvUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLMProvider")
}

func TestFromEnvProviderDefaults(t *testing.T) {
	tests := map[string]struct {
		model string
		dim   int
		llm   string
	}{
		"openai": {"text-embedding-3-small", 1536, "gpt-4o"},
		"ollama": {"nomic-embed-text", 768, "llama3.1"},
		"gemini": {"text-embedding-004", 768, "gemini-2.0-flash"},
	}
	for provider, want := range tests {
		t.Run(provider, func(t *testing.T) {
			t.Setenv("EMBEDDING_PROVIDER", provider)
			t.Setenv("LLM_PROVIDER", provider)

			cfg, err := FromEnv()
			require.NoError(t, err)
			assert.Equal(t, want.model, cfg.EmbeddingModel)
			assert.Equal(t, want.dim, cfg.EmbeddingDim)
			assert.Equal(t, want.llm, cfg.LLMModel)
		})
	}
}

func TestFromEnvMixedProvidersAndOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "gemini")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("EMBEDDING_DIM", "3072")
	t.Setenv("EMBEDDING_MODEL", "gemini-embedding-001")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "gemini-embedding-001", cfg.EmbeddingModel)
	assert.Equal(t, 3072, cfg.EmbeddingDim)
	assert.Equal(t, "llama3.1", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.MetricInterval)
}
