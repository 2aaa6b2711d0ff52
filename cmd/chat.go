package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oraculo-educacao/internal/helper"
	"oraculo-educacao/internal/session"
	"oraculo-educacao/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the terminal chat UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		r, indexes, err := newRAG(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Carregando a base de conhecimento...")
		if err := warmIndex(ctx, indexes); err != nil {
			return err
		}

		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		return tui.Run(ctx, session.New(id, r))
	},
}
