package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/dialogkit/pkg/log"
)

type DialogConfig struct {
	SystemPrompt    string `env:"DIALOG_SYSTEM_PROMPT" envDefault:"You are a bot called Sara. Be nice to other human beings."`
	FallbackMessage string `env:"DIALOG_FALLBACK_MESSAGE"`
	// MemoryWindow bounds how many prior turns are replayed to the model.
	MemoryWindow     int     `env:"DIALOG_MEMORY_WINDOW" envDefault:"5"`
	TopK             int     `env:"DIALOG_TOP_K" envDefault:"5"`
	Threshold        float64 `env:"DIALOG_THRESHOLD" envDefault:"0.5"`
	MaxContextTokens int     `env:"DIALOG_MAX_CONTEXT_TOKENS" envDefault:"2048"`
	PersistFallback  bool    `env:"DIALOG_PERSIST_FALLBACK" envDefault:"true"`
	Dataset          string  `env:"DIALOG_DATASET"`
}

func NewDialogConfig(ctx context.Context) *DialogConfig {
	c := &DialogConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse dialog config")
	}
	return c
}
