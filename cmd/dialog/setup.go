package main

import (
	"context"
	"database/sql"

	"github.com/sandevgo/dialogkit/internal/config"
	"github.com/sandevgo/dialogkit/internal/providers/openai"
	"github.com/sandevgo/dialogkit/internal/storage/sqlite"
	"github.com/sandevgo/dialogkit/pkg/log"
	"github.com/sandevgo/dialogkit/pkg/retry"
)

// openDatabase opens the runtime store and brings the schema up to date.
func openDatabase(ctx context.Context) *sql.DB {
	appCfg := config.NewAppConfig(ctx)

	db, err := sqlite.Open(ctx, appCfg.GetDatabasePath())
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to open database")
	}
	return db
}

func newEmbeddingClient(ctx context.Context) (*openai.EmbeddingClient, *config.EmbeddingConfig) {
	cfg := config.NewEmbeddingConfig(ctx)
	return openai.NewEmbeddingClient(openai.EmbeddingConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Retrier: retry.NewDefaultRetrier(),
	}), cfg
}

func newChatClient(ctx context.Context) *openai.ChatClient {
	cfg := config.NewLLMConfig(ctx)
	return openai.NewChatClient(openai.ChatConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Retrier:     retry.NewDefaultRetrier(),
	})
}
