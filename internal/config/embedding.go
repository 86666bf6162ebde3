package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/dialogkit/pkg/log"
)

type EmbeddingConfig struct {
	BaseURL string `env:"DIALOG_EMBEDDING_BASE_URL" envDefault:"https://api.openai.com"`
	APIKey  string `env:"DIALOG_EMBEDDING_API_KEY,required,notEmpty"`
	Model   string `env:"DIALOG_EMBEDDING_MODEL" envDefault:"text-embedding-ada-002"`
	// Dimension must match the vector length stored in content_items for
	// the lifetime of a dataset.
	Dimension int `env:"DIALOG_EMBEDDING_DIMENSION" envDefault:"1536"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse embedding config")
	}
	return c
}
