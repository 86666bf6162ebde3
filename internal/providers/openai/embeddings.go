package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/dialogkit/pkg/retry"

	"github.com/sandevgo/dialogkit/internal/core"
)

// EmbeddingClient is the embedding provider: an OpenAI-compatible
// /v1/embeddings endpoint serving single and batch inputs.
type EmbeddingClient struct {
	baseClient
}

type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Retrier *retry.Retrier
}

func NewEmbeddingClient(cfg EmbeddingConfig) *EmbeddingClient {
	return &EmbeddingClient{
		baseClient: newBaseClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Retrier),
	}
}

func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := c.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, &core.ProviderError{
			Provider: "embedding",
			Err:      fmt.Errorf("got %d embeddings for %d inputs", len(vecs), len(texts)),
		}
	}
	return vecs, nil
}

func (c *EmbeddingClient) embed(ctx context.Context, input any) ([][]float32, error) {
	payload := map[string]any{
		"model": c.model,
		"input": input,
	}

	data, err := c.postJSON(ctx, "/v1/embeddings", payload)
	if err != nil {
		return nil, &core.ProviderError{Provider: "embedding", Err: err}
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &core.ProviderError{Provider: "embedding", Err: fmt.Errorf("decode: %w", err)}
	}
	if len(result.Data) == 0 {
		return nil, &core.ProviderError{Provider: "embedding", Err: fmt.Errorf("empty data: %s", string(data))}
	}

	vecs := make([][]float32, len(result.Data))
	for i := range result.Data {
		vecs[i] = result.Data[i].Embedding
	}
	return vecs, nil
}
