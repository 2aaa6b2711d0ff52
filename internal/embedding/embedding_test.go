package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/embedding/embeddingtest"
	"oraculo-educacao/internal/models"
)

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(&config.LLMConfig{Provider: config.ProviderOllama, BaseURL: "http://localhost:11434", Model: "nomic-embed-text"})
	require.NoError(t, err)
	assert.NotNil(t, e)

	e, err = NewEmbedder(&config.LLMConfig{Provider: config.ProviderOpenAI, BaseURL: "https://openrouter.ai/api/v1", Model: "text-embedding-3-small", Key: "Bearer sk-test"})
	require.NoError(t, err)
	assert.NotNil(t, e)

	_, err = NewEmbedder(&config.LLMConfig{Provider: "bedrock"})
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestEmbedRecords(t *testing.T) {
	ctx := context.Background()
	vocab := embeddingtest.NewVocabulary("escola", "alunos")
	records := []models.Record{{Row: 0, Text: "Escola A tem 200 alunos"}, {Row: 1, Text: "Orçamento"}}

	vectors, err := EmbedRecords(ctx, vocab, records)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 1, 1}, vectors[0])
	assert.Equal(t, []float32{1, 0, 0}, vectors[1])

	vectors, err = EmbedRecords(ctx, vocab, nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedRecords_BackendDown(t *testing.T) {
	_, err := EmbedRecords(context.Background(), embeddingtest.Failing(), []models.Record{{Text: "x"}})
	var embErr *models.EmbeddingServiceError
	require.ErrorAs(t, err, &embErr)
	assert.ErrorIs(t, err, embeddingtest.ErrUnavailable)
}

func TestEmbedRecords_CountMismatch(t *testing.T) {
	short, err := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}))
	require.NoError(t, err)

	_, err = EmbedRecords(context.Background(), short, []models.Record{{Text: "a"}, {Text: "b"}})
	var embErr *models.EmbeddingServiceError
	require.ErrorAs(t, err, &embErr)
}

func TestEmbedQuery(t *testing.T) {
	vocab := embeddingtest.NewVocabulary("escola")
	vector, err := EmbedQuery(context.Background(), vocab, "qual escola?")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1}, vector)

	_, err = EmbedQuery(context.Background(), embeddingtest.Failing(), "qual escola?")
	var embErr *models.EmbeddingServiceError
	require.ErrorAs(t, err, &embErr)
}
