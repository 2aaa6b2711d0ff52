package chromemdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/embedding/embeddingtest"
	"oraculo-educacao/internal/helper"
	"oraculo-educacao/internal/models"
)

var schoolRecords = []models.Record{
	{Row: 0, Source: "kb.csv", Text: "texto: Escola A tem 200 alunos"},
	{Row: 1, Source: "kb.csv", Text: "texto: Escola B tem 150 alunos"},
	{Row: 2, Source: "kb.csv", Text: "texto: Orçamento 2024: R$1M"},
}

func schoolVocabulary() *embeddingtest.Vocabulary {
	return embeddingtest.NewVocabulary("texto", "escola", "a", "b", "tem", "alunos", "quantos", "orçamento", "2024")
}

func newManager(t *testing.T, cfg config.IndexConfig, vocab *embeddingtest.Vocabulary) *VectorDBManager {
	t.Helper()
	if cfg.Collection == "" {
		cfg.Collection = "knowledge_base"
	}
	m, err := NewVectorDBManager(&cfg, vocab)
	require.NoError(t, err)
	return m
}

func TestQuery_TopMatch(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, config.IndexConfig{}, schoolVocabulary())
	require.NoError(t, m.Build(ctx, schoolRecords, "fp"))
	assert.Equal(t, 3, m.Len())

	results, err := m.Query(ctx, "quantos alunos tem a Escola A", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, schoolRecords[0], results[0])

	results, err = m.Query(ctx, "orçamento de 2024", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 2, results[0].Row)
}

func TestQuery_NeverMoreThanKNorUnknownRecords(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, config.IndexConfig{}, schoolVocabulary())
	require.NoError(t, m.Build(ctx, schoolRecords, "fp"))

	for k := 1; k <= 5; k++ {
		results, err := m.Query(ctx, "escola", k)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), k)
		for _, r := range results {
			assert.Contains(t, schoolRecords, r)
		}
	}

	_, err := m.Query(ctx, "escola", 0)
	assert.Error(t, err)
}

func TestQuery_TiesBrokenByRow(t *testing.T) {
	ctx := context.Background()
	records := []models.Record{
		{Row: 0, Text: "Orçamento"},
		{Row: 1, Text: "Escola"},
		{Row: 2, Text: "Escola"},
		{Row: 3, Text: "Escola"},
	}
	m := newManager(t, config.IndexConfig{}, schoolVocabulary())
	require.NoError(t, m.Build(ctx, records, "fp"))

	for i := 0; i < 10; i++ {
		results, err := m.Query(ctx, "escola", 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, 1, results[0].Row)
		assert.Equal(t, 2, results[1].Row)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	ctx := context.Background()
	first := newManager(t, config.IndexConfig{}, schoolVocabulary())
	second := newManager(t, config.IndexConfig{}, schoolVocabulary())
	require.NoError(t, first.Build(ctx, schoolRecords, "fp"))
	require.NoError(t, second.Build(ctx, schoolRecords, "fp"))

	for _, q := range []string{"quantos alunos tem a Escola B", "orçamento", "escola"} {
		a, err := first.Query(ctx, q, 2)
		require.NoError(t, err)
		b, err := second.Query(ctx, q, 2)
		require.NoError(t, err)
		assert.Equal(t, a, b, q)
	}
}

func TestBuild_Empty(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, config.IndexConfig{}, schoolVocabulary())
	require.NoError(t, m.Build(ctx, nil, "fp"))

	results, err := m.Query(ctx, "escola", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBuild_EmbeddingServiceDown(t *testing.T) {
	vocab := schoolVocabulary()
	vocab.SetFailing(true)
	m := newManager(t, config.IndexConfig{}, vocab)

	err := m.Build(context.Background(), schoolRecords, "fp")
	var embErr *models.EmbeddingServiceError
	require.ErrorAs(t, err, &embErr)
}

func TestQuery_EmbeddingServiceDown(t *testing.T) {
	ctx := context.Background()
	vocab := schoolVocabulary()
	m := newManager(t, config.IndexConfig{}, vocab)
	require.NoError(t, m.Build(ctx, schoolRecords, "fp"))

	vocab.SetFailing(true)
	_, err := m.Query(ctx, "escola", 1)
	var embErr *models.EmbeddingServiceError
	require.ErrorAs(t, err, &embErr)
}

func TestSnapshot_ReusedWhenFingerprintMatches(t *testing.T) {
	ctx := context.Background()
	cfg := config.IndexConfig{
		SnapshotPath:  filepath.Join(t.TempDir(), "index", "kb.gob"),
		Compress:      true,
		EncryptionKey: "0123456789abcdef0123456789abcdef",
	}
	fp := helper.Fingerprint("vocab", schoolRecords)

	writer := newManager(t, cfg, schoolVocabulary())
	require.NoError(t, writer.Build(ctx, schoolRecords, fp))
	require.NoError(t, writer.Export())
	assert.FileExists(t, cfg.SnapshotPath)

	vocab := schoolVocabulary()
	reader := newManager(t, cfg, vocab)
	require.NoError(t, reader.Build(ctx, schoolRecords, fp))
	assert.Equal(t, int64(0), vocab.Calls(), "snapshot should avoid embedding records again")
	assert.Equal(t, 3, reader.Len())

	results, err := reader.Query(ctx, "quantos alunos tem a Escola A", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, schoolRecords[0], results[0])
}

func TestSnapshot_RebuiltWhenStale(t *testing.T) {
	ctx := context.Background()
	cfg := config.IndexConfig{SnapshotPath: filepath.Join(t.TempDir(), "kb.gob")}

	writer := newManager(t, cfg, schoolVocabulary())
	require.NoError(t, writer.Build(ctx, schoolRecords, "old"))
	require.NoError(t, writer.Export())

	vocab := schoolVocabulary()
	reader := newManager(t, cfg, vocab)
	updated := append([]models.Record{}, schoolRecords[:2]...)
	require.NoError(t, reader.Build(ctx, updated, "new"))
	assert.Equal(t, int64(1), vocab.Calls())
	assert.Equal(t, 2, reader.Len())
}

func TestSnapshot_RebuiltWhenSourceMoved(t *testing.T) {
	ctx := context.Background()
	cfg := config.IndexConfig{SnapshotPath: filepath.Join(t.TempDir(), "kb.gob")}

	writer := newManager(t, cfg, schoolVocabulary())
	require.NoError(t, writer.Build(ctx, schoolRecords, helper.Fingerprint("vocab", schoolRecords)))
	require.NoError(t, writer.Export())

	moved := make([]models.Record, len(schoolRecords))
	for i, r := range schoolRecords {
		r.Source = "dados/kb.csv"
		moved[i] = r
	}
	vocab := schoolVocabulary()
	reader := newManager(t, cfg, vocab)
	require.NoError(t, reader.Build(ctx, moved, helper.Fingerprint("vocab", moved)))
	assert.Equal(t, int64(1), vocab.Calls())

	results, err := reader.Query(ctx, "quantos alunos tem a Escola A", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, moved[0], results[0])
}

func TestExport_RequiresPath(t *testing.T) {
	m := newManager(t, config.IndexConfig{}, schoolVocabulary())
	assert.Error(t, m.Export())
}
