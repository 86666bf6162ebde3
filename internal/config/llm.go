package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/dialogkit/pkg/log"
)

type LLMConfig struct {
	BaseURL     string  `env:"DIALOG_LLM_BASE_URL" envDefault:"https://api.openai.com"`
	APIKey      string  `env:"DIALOG_LLM_API_KEY,required,notEmpty"`
	Model       string  `env:"DIALOG_LLM_MODEL" envDefault:"gpt-3.5-turbo"`
	Temperature float64 `env:"DIALOG_LLM_TEMPERATURE" envDefault:"0.1"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}
