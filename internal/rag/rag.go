package rag

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"oraculo-educacao/internal/llmservice"
	"oraculo-educacao/internal/models"
	"oraculo-educacao/internal/prompt"
)

// Inferencer starts a streamed generation for a prompt.
type Inferencer interface {
	Infer(ctx context.Context, prompt string) (llmservice.Stream, error)
}

// RAG ties retrieval, prompt composition and inference together.
type RAG struct {
	indexes  *IndexCache
	composer *prompt.Composer
	llm      Inferencer
	topK     int
}

func NewRAG(indexes *IndexCache, composer *prompt.Composer, llm Inferencer, topK int) *RAG {
	if topK < 1 {
		topK = models.DefaultTopK
	}
	return &RAG{indexes: indexes, composer: composer, llm: llm, topK: topK}
}

// Retrieve returns the records closest to question.
func (r *RAG) Retrieve(ctx context.Context, question string) ([]models.Record, error) {
	idx, err := r.indexes.Get(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Query(ctx, question, r.topK)
}

func (r *RAG) Compose(records []models.Record, question string) (string, error) {
	return r.composer.Compose(records, question)
}

func (r *RAG) Infer(ctx context.Context, prompt string) (llmservice.Stream, error) {
	return r.llm.Infer(ctx, prompt)
}

// Answer runs one question through the whole pipeline outside of a chat
// session. onChunk, when not nil, sees every fragment as it arrives.
func (r *RAG) Answer(ctx context.Context, question string, onChunk func(string)) (*models.PromptResponse, error) {
	records, err := r.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("sources", len(records)).Msg("Retrieved context")

	p, err := r.Compose(records, question)
	if err != nil {
		return nil, err
	}

	stream, err := r.Infer(ctx, p)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	var content strings.Builder
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		content.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}

	return &models.PromptResponse{
		Query:   question,
		Sources: records,
		Content: content.String(),
	}, nil
}
