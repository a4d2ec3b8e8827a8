package model

import (
	"context"
	"fmt"
	"net/http"

	"voicerag/config"
)

// Providers bundles the external model clients selected by config.
type Providers struct {
	Embedder    Embedder
	Generator   Generator
	Transcriber Transcriber
	Synthesizer Synthesizer
}

func NewProviders(ctx context.Context, cfg *config.Config) (*Providers, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	var (
		openai *OpenAI
		gemini *Gemini
		err    error
	)
	if cfg.OpenAIKey != "" {
		openai, err = NewOpenAI(OpenAIConfig{
			APIKey:          cfg.OpenAIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			EmbedModel:      cfg.EmbeddingModel,
			ChatModel:       cfg.LLMModel,
			TranscribeModel: cfg.TranscribeModel,
			TTSModel:        cfg.TTSModel,
			Voice:           cfg.TTSVoice,
		}, client)
		if err != nil {
			return nil, err
		}
	}
	if cfg.EmbeddingProvider == "gemini" || cfg.LLMProvider == "gemini" {
		gemini, err = NewGemini(ctx, cfg.GeminiKey, cfg.EmbeddingModel, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
	}
	ollama := NewOllama(cfg.OllamaURL, cfg.EmbeddingModel, cfg.LLMModel, client)

	p := &Providers{}
	switch cfg.EmbeddingProvider {
	case "openai":
		if openai == nil {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
		}
		p.Embedder = openai
	case "gemini":
		p.Embedder = gemini
	case "ollama":
		p.Embedder = ollama
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}

	switch cfg.LLMProvider {
	case "openai":
		if openai == nil {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai generation")
		}
		p.Generator = openai
	case "gemini":
		p.Generator = gemini
	case "ollama":
		p.Generator = ollama
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}

	// Speech only exists on OpenAI. Without a key the audio endpoint is disabled.
	if openai != nil {
		p.Transcriber = openai
		p.Synthesizer = openai
	}
	return p, nil
}
