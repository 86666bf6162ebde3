package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandevgo/dialogkit/internal/config"
	"github.com/sandevgo/dialogkit/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "dialog",
	Short: "A retrieval-backed chat assistant with persistent history",
	Long: `dialog answers questions from an embedded knowledge base, keeps every
conversation in a local store, and falls back gracefully when it knows
nothing relevant.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
