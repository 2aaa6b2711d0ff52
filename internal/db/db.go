package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/embedding"
	"oraculo-educacao/internal/models"
)

// Document is one knowledge record stored with its embedding.
type Document struct {
	bun.BaseModel `bun:"table:knowledge_records,alias:d"`
	ID            int64           `bun:"id,pk,autoincrement"`
	RowIndex      int             `bun:"row_index,notnull"`
	Source        string          `bun:"source,notnull"`
	Content       string          `bun:"content,notnull"`
	Fingerprint   string          `bun:"fingerprint,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens a pool for the configured DSN. No connection is made until
// the first query.
func ConnectDB(cfg *config.DatabaseConfig) *sql.DB {
	opts := []pgdriver.Option{pgdriver.WithDSN(withSSLMode(cfg.DSN))}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...))
}

// withSSLMode disables TLS unless the DSN chooses a mode itself.
func withSSLMode(dsn string) string {
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&sslmode=disable"
	}
	return dsn + "?sslmode=disable"
}

func InitDB(ctx context.Context, db bun.IDB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enabling pgvector: %w", err)
	}
	_, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

func StoreDocuments(ctx context.Context, db bun.IDB, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

func ClearDocuments(ctx context.Context, db bun.IDB) error {
	_, err := db.NewTruncateTable().Model((*Document)(nil)).Exec(ctx)
	return err
}

func DropDocuments(ctx context.Context, db bun.IDB) error {
	_, err := db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

// searchQuery ranks by cosine distance, then by original row.
func searchQuery(db bun.IDB, queryEmbedding []float32, limit int) *bun.SelectQuery {
	return db.NewSelect().
		Model((*Document)(nil)).
		Column("id", "row_index", "source", "content").
		OrderExpr("embedding <=> ?", pgvector.NewVector(queryEmbedding)).
		Order("row_index ASC").
		Limit(limit)
}

func SearchDocuments(ctx context.Context, db bun.IDB, queryEmbedding []float32, limit int) ([]Document, error) {
	var docs []Document
	err := searchQuery(db, queryEmbedding, limit).Scan(ctx, &docs)
	return docs, err
}

// VectorIndex serves retrieval from the knowledge_records table.
type VectorIndex struct {
	db       *bun.DB
	embedder embeddings.Embedder
	size     int
}

func NewVectorIndex(db *bun.DB, embedder embeddings.Embedder) *VectorIndex {
	return &VectorIndex{db: db, embedder: embedder}
}

// Build makes the table hold exactly records. Rows already stored under the
// same fingerprint are kept without embedding them again.
func (x *VectorIndex) Build(ctx context.Context, records []models.Record, fingerprint string) error {
	if err := InitDB(ctx, x.db); err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}

	total, err := x.db.NewSelect().Model((*Document)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("counting documents: %w", err)
	}
	current, err := x.db.NewSelect().Model((*Document)(nil)).Where("fingerprint = ?", fingerprint).Count(ctx)
	if err != nil {
		return fmt.Errorf("counting documents: %w", err)
	}
	if total == len(records) && current == total {
		log.Info().Int("documents", total).Msg("Reusing stored embeddings")
		x.size = total
		return nil
	}

	vectors, err := embedding.EmbedRecords(ctx, x.embedder, records)
	if err != nil {
		return err
	}
	docs := toDocuments(records, vectors, fingerprint)

	log.Info().Msgf("Storing %d documents in postgres", len(docs))
	err = x.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := ClearDocuments(ctx, tx); err != nil {
			return err
		}
		return StoreDocuments(ctx, tx, docs)
	})
	if err != nil {
		return fmt.Errorf("storing documents: %w", err)
	}
	x.size = len(docs)
	return nil
}

func (x *VectorIndex) Query(ctx context.Context, text string, k int) ([]models.Record, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if x.size == 0 {
		return nil, nil
	}
	vector, err := embedding.EmbedQuery(ctx, x.embedder, text)
	if err != nil {
		return nil, err
	}
	docs, err := SearchDocuments(ctx, x.db, vector, k)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	return toRecords(docs), nil
}

func (x *VectorIndex) Len() int {
	return x.size
}

func (x *VectorIndex) Close() error {
	return x.db.Close()
}

func toDocuments(records []models.Record, vectors [][]float32, fingerprint string) []Document {
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = Document{
			RowIndex:    r.Row,
			Source:      r.Source,
			Content:     r.Text,
			Fingerprint: fingerprint,
			Embedding:   pgvector.NewVector(vectors[i]),
		}
	}
	return docs
}

func toRecords(docs []Document) []models.Record {
	records := make([]models.Record, len(docs))
	for i, d := range docs {
		records[i] = models.Record{Row: d.RowIndex, Source: d.Source, Text: d.Content}
	}
	return records
}
