// Package main provides the clerk command-line client. It drives one guided
// document-completion run against the collaborator API.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/clerk/internal/client"
	"github.com/JaimeStill/clerk/internal/config"
)

const (
	Version = "0.1.0"
	appName = "clerk"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Guided document completion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(fillCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func fillCmd() *cobra.Command {
	var (
		backend  string
		outPath  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "fill <template.docx>",
		Short: "Fill a template by answering the assistant's questions",
		Long: `Fill uploads a .docx template, asks for each placeholder value in turn,
and writes the completed document once every placeholder is answered.

Commands during the conversation:
  /generate  retry document generation after a failure
  /reset     discard answers and start over with the same template
  /quit      exit without writing a document`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(logLevel)

			cfg := config.ClientConfig{}
			if err := cfg.Finalize(); err != nil {
				return fmt.Errorf("client config: %w", err)
			}
			if backend != "" {
				cfg.BaseURL = backend
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := client.New(cfg.BaseURL, cfg.TimeoutDuration(), logger)
			logger.Debug("collaborator", "base_url", c.BaseURL())

			f := newFiller(c, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			return f.run(ctx, args[0], outPath)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Collaborator API base URL (default from CLERK_CLIENT_BASE_URL)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path for the completed document")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	return cmd
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
