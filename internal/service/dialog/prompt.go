package dialog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sandevgo/dialogkit/internal/core"
)

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

const contextHeader = "Here is some relevant content:\n\n"

// buildContextBlock joins retrieved items in ranked order. A positive
// token budget cuts the block off before the item that would exceed it;
// items are never truncated mid-text.
func buildContextBlock(contents []core.ScoredContent, maxTokens int) (string, error) {
	if len(contents) == 0 {
		return "", nil
	}

	used := 0
	if maxTokens > 0 {
		var err error
		if used, err = countTokens(contextHeader); err != nil {
			return "", err
		}
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)
	written := 0
	for _, item := range contents {
		doc := item.Question + "\n\n" + item.Content
		if maxTokens > 0 {
			n, err := countTokens(doc)
			if err != nil {
				return "", err
			}
			if used+n > maxTokens && written > 0 {
				break
			}
			used += n
		}
		if written > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString(doc)
		written++
	}
	return sb.String(), nil
}

func countTokens(text string) (int, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	if tkErr != nil {
		return 0, fmt.Errorf("failed to load tokenizer: %w", tkErr)
	}
	return len(tk.Encode(text, nil, nil)), nil
}
