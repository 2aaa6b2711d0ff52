package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"oraculo-educacao/internal/config"
	"oraculo-educacao/internal/logger"
)

const defaultConfigPath = "./configs/config.yaml"

var (
	configPath string
	logLevel   string

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "oraculo",
	Short: "Oráculo da Educação: chat over the education department's knowledge base",
	Long: `Oráculo da Educação answers questions about the Secretaria de Educação de
Fraiburgo by retrieving the most relevant rows of its knowledge base and
passing them, with the question, to a language model served by Ollama.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !needsConfig(cmd) {
			return nil
		}

		path := configPath
		if !cmd.Flags().Changed("config") {
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				path = ""
			}
		}

		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		// the terminal UI owns the screen, so its logs go to a file or nowhere
		var out io.Writer = os.Stderr
		if cmd.Name() == chatCmd.Name() && cfg.Log.File == "" {
			out = io.Discard
		}
		logCloser, err = logger.Setup(cfg.Log, out)
		if err != nil {
			return err
		}
		log.Debug().Str("config", path).Msg("Loaded config")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

// needsConfig reports whether cmd does real work. Help and shell completion
// must run without a valid configuration.
func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}
	return cmd.Runnable()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, chatCmd, askCmd, indexCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
