package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"oraculo-educacao/internal/chromemdb"
	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/db"
	"oraculo-educacao/internal/embedding"
	"oraculo-educacao/internal/models"
	"oraculo-educacao/internal/rag"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the knowledge base and persist the index",
	Long: `Embeds every record of the knowledge base and stores the result so later
runs start without embedding again. With the memory backend the index is
written to index.snapshot_path; with the pgvector backend it is written to
the knowledge_records table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Index.Backend == config.BackendMemory && cfg.Index.SnapshotPath == "" {
			return &models.ConfigurationError{Key: "index.snapshot_path", Msg: "required to persist the memory index"}
		}

		embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
		if err != nil {
			return err
		}
		idx, err := rag.NewIndexBuilder(cfg, embedder)(cmd.Context())
		if err != nil {
			return err
		}

		switch x := idx.(type) {
		case *chromemdb.VectorDBManager:
			if err := x.Export(); err != nil {
				return err
			}
			log.Info().Str("snapshot", cfg.Index.SnapshotPath).Msg("Snapshot written")
		case *db.VectorIndex:
			defer x.Close()
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d records indexed (%s backend)\n", idx.Len(), cfg.Index.Backend)
		return nil
	},
}
