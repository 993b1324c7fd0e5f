package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/forumkit/editorbridge/internal/config"
)

const version = "0.3.0"

// newRootCmd creates the root editorbridge command with all subcommands
// attached.
func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "editorbridge",
		Short:         "Rich-text editor bridge for embedded document engines",
		Long:          "editorbridge hosts the message bridge between a composer host\nand an embedded rich-text document engine.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.SetVersionTemplate("editorbridge {{.Version}}\n")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newServeCmd(),
		newEchoCmd(),
	)

	return cmd
}

// loadConfig resolves configuration: explicit file, then the default path,
// then built-in defaults when no file exists at all.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	cfg, err := config.Load()
	if errors.Is(err, os.ErrNotExist) {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}
