package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agentic-research/cascade/internal/logging"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	logLevel string
	logJSON  bool
	logFile  string

	logger *logging.Logger
}

func (g *globalOptions) slog() *slog.Logger {
	if g.logger == nil {
		return logging.Discard().Slog()
	}
	return g.logger.Slog()
}

// NewRootCmd builds the cascade command tree.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "cascade",
		Short:         "Cascade: budgeted summaries of hierarchical multidimensional data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(g.logLevel)
			if err != nil {
				return err
			}
			g.logger, err = logging.New(logging.Config{
				Level:   level,
				JSON:    g.logJSON,
				Output:  cmd.ErrOrStderr(),
				File:    g.logFile,
				Service: "cascade",
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if g.logger != nil {
				return g.logger.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "Log as JSON instead of text")
	root.PersistentFlags().StringVar(&g.logFile, "log-file", "", "Also append JSON logs to this file")

	root.AddCommand(newSummarizeCmd(g), newInspectCmd(g), newRunsCmd(g))
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// hostFS is the filesystem all CLI paths are resolved against. Paths are
// made absolute first so relative paths keep their usual meaning.
func hostFS() billy.Filesystem {
	return osfs.New("/")
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", p, err)
	}
	return abs, nil
}
