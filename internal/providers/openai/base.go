package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sandevgo/dialogkit/pkg/retry"
)

type baseClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	retrier *retry.Retrier
}

func newBaseClient(baseURL, apiKey, model string, retrier *retry.Retrier) baseClient {
	return baseClient{
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		retrier: retrier,
	}
}

// postJSON sends the payload and returns the raw response body. The
// retrier, when configured at deployment wiring, covers transport errors
// and 5xx responses; 4xx responses fail immediately.
func (b *baseClient) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	do := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if b.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+b.apiKey)
		}

		resp, err := b.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &httpError{status: resp.StatusCode, body: string(data)}
		}
		return data, nil
	}

	if b.retrier == nil {
		return do()
	}

	var data []byte
	var lastErr error
	err = b.retrier.Do(ctx, func() error {
		data, lastErr = do()
		var he *httpError
		if errors.As(lastErr, &he) && he.status < 500 {
			// A client error will not improve on retry.
			return nil
		}
		return lastErr
	})
	if err != nil {
		return nil, err
	}
	return data, lastErr
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, e.body)
}
