package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/embedding"
	"oraculo-educacao/internal/llmservice"
	"oraculo-educacao/internal/models"
	"oraculo-educacao/internal/prompt"
	"oraculo-educacao/internal/rag"
)

// newRAG wires the embedder, index cache, prompt composer and model client.
func newRAG(cfg *config.Config) (*rag.RAG, *rag.IndexCache, error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, nil, err
	}
	composer, err := prompt.NewComposer(cfg.RAG.PromptFile)
	if err != nil {
		return nil, nil, err
	}
	client, err := llmservice.NewClient(&cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	indexes := rag.NewIndexCache(rag.NewIndexBuilder(cfg, embedder))
	return rag.NewRAG(indexes, composer, client, cfg.RAG.TopK), indexes, nil
}

// warmIndex builds the index before a UI starts. A knowledge base that cannot
// be loaded stops startup. An unreachable embedding service only logs a
// warning: failed builds are not cached, so the first question tries again
// and shows the error in the conversation.
func warmIndex(ctx context.Context, indexes *rag.IndexCache) error {
	_, err := indexes.Get(ctx)
	var embedErr *models.EmbeddingServiceError
	if errors.As(err, &embedErr) {
		log.Warn().Err(err).Msg("Embedding service unavailable, the index will be built on the first question")
		return nil
	}
	return err
}
