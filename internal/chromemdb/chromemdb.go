package chromemdb

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/embedding"
	"oraculo-educacao/internal/helper"
	"oraculo-educacao/internal/models"
)

// metadata keys stored with every document
const (
	metaRow         = "row"
	metaSource      = "source"
	metaFingerprint = "fingerprint"
)

// VectorDBManager keeps the knowledge records in an in-memory chromem-go
// collection, optionally backed by a snapshot file.
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	embedder       embeddings.Embedder
	collectionName string
	snapshotPath   string
	compress       bool
	encryptionKey  string
}

// NewVectorDBManager initializes a new vector database manager
func NewVectorDBManager(cfg *config.IndexConfig, embedder embeddings.Embedder) (*VectorDBManager, error) {
	if cfg.Collection == "" {
		return nil, errors.New("collection name is required")
	}
	m := &VectorDBManager{
		db:             chromem.NewDB(),
		embedder:       embedder,
		collectionName: cfg.Collection,
		snapshotPath:   cfg.SnapshotPath,
		compress:       cfg.Compress,
		encryptionKey:  cfg.EncryptionKey,
	}
	if _, err := m.GetOrCreateCollection(); err != nil {
		return nil, err
	}
	return m, nil
}

// create or read collection
func (m *VectorDBManager) GetOrCreateCollection() (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(m.collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// Build fills the collection with the records. When a snapshot with the same
// fingerprint exists it is imported instead of embedding again.
func (m *VectorDBManager) Build(ctx context.Context, records []models.Record, fingerprint string) error {
	if m.snapshotPath != "" {
		reused, err := m.importIfCurrent(ctx, records, fingerprint)
		if err != nil {
			log.Warn().Err(err).Str("snapshot", m.snapshotPath).Msg("Ignoring index snapshot")
		}
		if reused {
			log.Info().Str("snapshot", m.snapshotPath).Int("documents", m.collection.Count()).Msg("Reusing index snapshot")
			return nil
		}
	}

	if err := m.DeleteCollection(); err != nil {
		return err
	}
	if _, err := m.GetOrCreateCollection(); err != nil {
		return err
	}

	vectors, err := embedding.EmbedRecords(ctx, m.embedder, records)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:      r.ID(),
			Content: r.Text,
			Metadata: map[string]string{
				metaRow:         strconv.Itoa(r.Row),
				metaSource:      r.Source,
				metaFingerprint: fingerprint,
			},
			Embedding: vectors[i],
		}
	}

	log.Info().Msgf("Adding %d documents to vector database", len(docs))
	if len(docs) == 0 {
		return nil
	}
	if err := m.CreateDocs(ctx, docs); err != nil {
		return err
	}
	return nil
}

// add multiple documents
func (m *VectorDBManager) CreateDocs(ctx context.Context, documents []chromem.Document) error {
	err := m.collection.AddDocuments(ctx, documents, runtime.NumCPU())
	if err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query returns at most k records ordered by similarity, ties broken by row.
func (m *VectorDBManager) Query(ctx context.Context, text string, k int) ([]models.Record, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	n := m.collection.Count()
	if n == 0 {
		return nil, nil
	}

	vector, err := embedding.EmbedQuery(ctx, m.embedder, text)
	if err != nil {
		return nil, err
	}

	// chromem's top-n heap has no stable order for equal similarities, so rank
	// every document and apply the row tie-break here.
	results, err := m.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	type ranked struct {
		record     models.Record
		similarity float32
	}
	ranking := make([]ranked, 0, len(results))
	for _, res := range results {
		row, err := strconv.Atoi(res.Metadata[metaRow])
		if err != nil {
			return nil, fmt.Errorf("document %s has invalid row metadata: %w", res.ID, err)
		}
		ranking = append(ranking, ranked{
			record:     models.Record{Row: row, Source: res.Metadata[metaSource], Text: res.Content},
			similarity: res.Similarity,
		})
	}
	slices.SortStableFunc(ranking, func(a, b ranked) int {
		if c := cmp.Compare(b.similarity, a.similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.record.Row, b.record.Row)
	})

	if len(ranking) > k {
		ranking = ranking[:k]
	}
	records := make([]models.Record, len(ranking))
	for i, r := range ranking {
		records[i] = r.record
	}
	return records, nil
}

// Len reports the number of indexed documents.
func (m *VectorDBManager) Len() int {
	return m.collection.Count()
}

// delete collection
func (m *VectorDBManager) DeleteCollection() error {
	err := m.db.DeleteCollection(m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	m.collection = nil
	return nil
}

// export to file
func (m *VectorDBManager) Export() error {
	if m.snapshotPath == "" {
		return errors.New("snapshot path is required")
	}
	if m.collection == nil {
		return errors.New("collection is required")
	}
	if err := helper.CreateFolder(filepath.Dir(m.snapshotPath)); err != nil {
		return err
	}

	log.Debug().
		Str("collection", m.collectionName).
		Str("path", m.snapshotPath).
		Bool("compress", m.compress).
		Bool("encrypted", m.encryptionKey != "").
		Msg("Exporting collection")

	err := m.db.ExportToFile(m.snapshotPath, m.compress, m.encryptionKey, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// import from file
func (m *VectorDBManager) Import() error {
	err := m.db.ImportFromFile(m.snapshotPath, m.encryptionKey, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	c := m.db.GetCollection(m.collectionName, nil)
	if c == nil {
		return fmt.Errorf("snapshot has no collection %q", m.collectionName)
	}
	m.collection = c
	return nil
}

func (m *VectorDBManager) importIfCurrent(ctx context.Context, records []models.Record, fingerprint string) (bool, error) {
	if _, err := os.Stat(m.snapshotPath); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := m.Import(); err != nil {
		return false, err
	}
	if m.collection.Count() != len(records) {
		return false, nil
	}
	for _, r := range records {
		doc, err := m.collection.GetByID(ctx, r.ID())
		if err != nil {
			return false, nil
		}
		if doc.Metadata[metaFingerprint] != fingerprint || doc.Metadata[metaSource] != r.Source || doc.Content != r.Text {
			return false, nil
		}
	}
	return true, nil
}
