package rag

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"golang.org/x/sync/singleflight"

	"oraculo-educacao/internal/chromemdb"
	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/db"
	"oraculo-educacao/internal/helper"
	"oraculo-educacao/internal/models"
	"oraculo-educacao/internal/parser"
)

// Index answers nearest-neighbour queries over the knowledge records.
type Index interface {
	Query(ctx context.Context, text string, k int) ([]models.Record, error)
	Len() int
}

// Builder loads the knowledge base and builds an Index from it.
type Builder func(ctx context.Context) (Index, error)

// IndexCache builds the index once per process and shares it between callers.
type IndexCache struct {
	build Builder
	group singleflight.Group

	mu    sync.RWMutex
	index Index
}

func NewIndexCache(build Builder) *IndexCache {
	return &IndexCache{build: build}
}

// Get returns the cached index, building it if needed. Concurrent callers
// wait for the same build. A failed build is not kept, so the next call
// tries again.
func (c *IndexCache) Get(ctx context.Context) (Index, error) {
	if idx := c.cached(); idx != nil {
		return idx, nil
	}

	v, err, shared := c.group.Do("index", func() (any, error) {
		if idx := c.cached(); idx != nil {
			return idx, nil
		}
		// the build outlives the request that triggered it
		idx, err := c.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.index = idx
		c.mu.Unlock()
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug().Msg("Shared in-flight index build")
	}
	return v.(Index), nil
}

func (c *IndexCache) cached() Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// NewIndexBuilder returns a Builder for the backend selected in cfg.
func NewIndexBuilder(cfg *config.Config, embedder embeddings.Embedder) Builder {
	return func(ctx context.Context) (Index, error) {
		started := time.Now()
		records, err := parser.LoadRecords(&cfg.Knowledge)
		if err != nil {
			return nil, err
		}
		fingerprint := helper.Fingerprint(cfg.EmbedLLM.Model, records)

		var idx interface {
			Index
			Build(ctx context.Context, records []models.Record, fingerprint string) error
		}
		switch cfg.Index.Backend {
		case config.BackendMemory, "":
			m, err := chromemdb.NewVectorDBManager(&cfg.Index, embedder)
			if err != nil {
				return nil, err
			}
			idx = m
		case config.BackendPgvector:
			idx = db.NewVectorIndex(db.NewDB(db.ConnectDB(&cfg.Database), cfg.Database.Debug), embedder)
		default:
			return nil, &models.ConfigurationError{Key: "index.backend", Msg: "unknown backend " + cfg.Index.Backend}
		}

		if err := idx.Build(ctx, records, fingerprint); err != nil {
			if closer, ok := idx.(io.Closer); ok {
				closer.Close()
			}
			return nil, fmt.Errorf("building %s index: %w", cfg.Index.Backend, err)
		}
		log.Info().
			Str("backend", cfg.Index.Backend).
			Int("records", idx.Len()).
			Dur("elapsed", time.Since(started)).
			Msg("Index ready")
		return idx, nil
	}
}
