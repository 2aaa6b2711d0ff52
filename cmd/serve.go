package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"oraculo-educacao/internal/session"
	"oraculo-educacao/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web chat UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		r, indexes, err := newRAG(cfg)
		if err != nil {
			return err
		}
		if err := warmIndex(ctx, indexes); err != nil {
			return err
		}

		store := session.NewStore(r, cfg.Server.SessionTTL)
		defer store.Close()

		chat, err := web.NewChatHandler(store, cfg.Server.SessionTTL)
		if err != nil {
			return err
		}
		server := web.NewServer(web.RouterConfig{
			ChatHandler:    chat,
			HealthHandler:  web.NewHealthHandler(),
			AllowedOrigins: cfg.Server.AllowedOrigins,
		})

		log.Info().Str("model", cfg.LLM.Model).Str("embedding_model", cfg.EmbedLLM.Model).Msg("Starting web UI")
		return server.Run(ctx, cfg.Server.Addr)
	},
}
