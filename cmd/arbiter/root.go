package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Arbiter/internal/config"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arbiter",
		Short: "Arbiter - multi-criteria decision analysis service",
		Long: `Arbiter ranks the options of a decision against weighted criteria.

It supports weighted-sum, AHP and TOPSIS scoring, reports how sensitive a
ranking is to weight changes, and serves stored decisions over HTTP and NATS.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newAnalyzeCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}

// newLogger builds the process logger from the logging section. debug
// overrides the configured level.
func newLogger(cfg config.LoggingConfig, debug bool, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logging.level: %w", err)
		}
	}
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func debugFlag(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
