package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"oraculo-educacao/internal/helper"
	"oraculo-educacao/internal/models"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and print the sources used",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		r, _, err := newRAG(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var onChunk func(string)
		if !askJSON {
			onChunk = func(chunk string) { fmt.Fprint(out, chunk) }
		}

		resp, err := r.Answer(cmd.Context(), question, onChunk)
		if err != nil {
			return err
		}

		if askJSON {
			helper.PrettyPrint(out, resp)
			return nil
		}
		fmt.Fprintln(out)
		printSources(cmd, resp.Sources)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer and its sources as JSON")
}

func printSources(cmd *cobra.Command, sources []models.Record) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nFontes (%d):\n", len(sources))
	for _, s := range sources {
		fmt.Fprintf(out, "--- %s, linha %d\n%s\n", s.Source, s.Row+1, s.Text)
	}
}
