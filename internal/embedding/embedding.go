package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/models"
)

// NewEmbedder creates an embedder for the configured provider
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		return NewOllamaEmbedder(cfg)
	case config.ProviderOpenAI:
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, &models.ConfigurationError{Key: "embed_llm.provider", Msg: "unknown provider " + cfg.Provider}
	}
}

// new ollama embedder
func NewOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
	}).Msg("Creating Ollama embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing ollama embedding client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// NewOpenAIEmbedder works with any OpenAI compatible server (OpenRouter, vLLM, LM Studio)
func NewOpenAIEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Interface("config", map[string]string{
		"base_url":        cfg.BaseURL,
		"embedding_model": cfg.Model,
	}).Msg("Creating OpenAI embedder")

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing openai embedding client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedRecords returns one vector per record, in record order.
func EmbedRecords(ctx context.Context, embedder embeddings.Embedder, records []models.Record) ([][]float32, error) {
	if len(records) == 0 {
		log.Info().Msg("No records to embed")
		return nil, nil
	}

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &models.EmbeddingServiceError{Op: "embed records", Err: err}
	}
	if len(vectors) != len(records) {
		return nil, &models.EmbeddingServiceError{
			Op:  "embed records",
			Err: fmt.Errorf("got %d vectors for %d records", len(vectors), len(records)),
		}
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, &models.EmbeddingServiceError{Op: "embed records", Err: fmt.Errorf("empty vector for row %d", records[i].Row)}
		}
	}
	return vectors, nil
}

// EmbedQuery embeds the text of a question.
func EmbedQuery(ctx context.Context, embedder embeddings.Embedder, text string) ([]float32, error) {
	vector, err := embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, &models.EmbeddingServiceError{Op: "embed query", Err: err}
	}
	if len(vector) == 0 {
		return nil, &models.EmbeddingServiceError{Op: "embed query", Err: errors.New("empty vector")}
	}
	return vector, nil
}
