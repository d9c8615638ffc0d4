package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trialctl",
		Short: "Advileads trial and notification tooling",
		Long: `trialctl evaluates the trial policy for a given user record, inspects
file-backed notification stores and issues bearer tokens for local testing.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newNotificationsCommand())
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func quietLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
