package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/dialogkit/internal/core"
	"github.com/sandevgo/dialogkit/pkg/retry"
)

// ChatClient is the generation provider: an OpenAI-compatible
// /v1/chat/completions endpoint.
type ChatClient struct {
	baseClient
	temperature float64
}

type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	// Retrier is optional; retry policy belongs to deployment wiring,
	// never to the answer pipeline itself.
	Retrier *retry.Retrier
}

func NewChatClient(cfg ChatConfig) *ChatClient {
	return &ChatClient{
		baseClient:  newBaseClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Retrier),
		temperature: cfg.Temperature,
	}
}

func (c *ChatClient) Chat(ctx context.Context, history []core.Message) (core.Message, error) {
	payload := map[string]any{
		"model":       c.model,
		"temperature": c.temperature,
		"messages":    history,
	}

	data, err := c.postJSON(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return core.Message{}, &core.ProviderError{Provider: "generation", Err: err}
	}

	var result struct {
		Choices []struct {
			Message core.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Message{}, &core.ProviderError{Provider: "generation", Err: fmt.Errorf("decode: %w", err)}
	}
	if len(result.Choices) == 0 {
		return core.Message{}, &core.ProviderError{Provider: "generation", Err: fmt.Errorf("empty choices: %s", string(data))}
	}
	return result.Choices[0].Message, nil
}
