package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/dialogkit/internal/core"
)

type stubSearcher struct {
	contents []core.ScoredContent
	err      error
	calls    int
}

func (s *stubSearcher) Search(ctx context.Context, text, dataset string) ([]core.ScoredContent, error) {
	s.calls++
	return s.contents, s.err
}

type stubGenerator struct {
	reply  string
	err    error
	calls  int
	prompt []core.Message
}

func (g *stubGenerator) Chat(ctx context.Context, history []core.Message) (core.Message, error) {
	g.calls++
	g.prompt = history
	if g.err != nil {
		return core.Message{}, g.err
	}
	return core.Message{Role: core.RoleAssistant, Content: g.reply}, nil
}

type failingHistory struct {
	*LocalHistory
	failAppend bool
}

func (h *failingHistory) Append(ctx context.Context, msg core.Message) error {
	if h.failAppend {
		return &core.ConnError{Op: "insert message", Err: errors.New("store unreachable")}
	}
	return h.LocalHistory.Append(ctx, msg)
}

func scored(question, content string, distance float64) core.ScoredContent {
	return core.ScoredContent{
		ContentItem: core.ContentItem{Question: question, Content: content},
		Distance:    distance,
	}
}

func TestRunGeneratesFromRetrievedContent(t *testing.T) {
	ctx := context.Background()
	history := NewLocalHistory("s1")
	searcher := &stubSearcher{contents: []core.ScoredContent{
		scored("how to reset?", "press the red button", 0.1),
		scored("where is it?", "behind the panel", 0.2),
	}}
	gen := &stubGenerator{reply: "Press the red button behind the panel."}

	p, err := NewPipeline(history, searcher, gen, Config{SystemPrompt: "be nice"})
	require.NoError(t, err)

	res, err := p.Run(ctx, "how do I reset the device?")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, "Press the red button behind the panel.", res.Text)
	assert.Len(t, res.Contents, 2)

	// Prompt shape: system preamble, context block, current user text.
	require.Len(t, gen.prompt, 3)
	assert.Equal(t, core.RoleSystem, gen.prompt[0].Role)
	assert.Equal(t, "be nice", gen.prompt[0].Content)
	assert.Equal(t, core.RoleSystem, gen.prompt[1].Role)
	assert.Contains(t, gen.prompt[1].Content, "press the red button")
	assert.Equal(t, core.RoleUser, gen.prompt[2].Role)

	// Both turns are persisted, user first.
	msgs, err := history.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleUser, msgs[0].Message.Role)
	assert.Equal(t, core.RoleAssistant, msgs[1].Message.Role)
}

func TestRunContextBlockKeepsRankedOrder(t *testing.T) {
	ctx := context.Background()
	searcher := &stubSearcher{contents: []core.ScoredContent{
		scored("first", "closest item", 0.1),
		scored("second", "further item", 0.3),
	}}
	gen := &stubGenerator{reply: "ok"}

	p, err := NewPipeline(NewLocalHistory("s1"), searcher, gen, Config{})
	require.NoError(t, err)

	_, err = p.Run(ctx, "question")
	require.NoError(t, err)

	var block string
	for _, m := range gen.prompt {
		if m.Role == core.RoleSystem && strings.Contains(m.Content, "closest item") {
			block = m.Content
		}
	}
	require.NotEmpty(t, block)
	assert.Less(t, strings.Index(block, "closest item"), strings.Index(block, "further item"))
}

func TestRunFallbackBypassesGeneration(t *testing.T) {
	ctx := context.Background()
	history := NewLocalHistory("s1")
	gen := &stubGenerator{reply: "should never be produced"}

	p, err := NewPipeline(history, &stubSearcher{}, gen, Config{
		FallbackMessage: "Sorry, I don't know anything about that.",
		PersistFallback: true,
	})
	require.NoError(t, err)

	res, err := p.Run(ctx, "completely unrelated question")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, "Sorry, I don't know anything about that.", res.Text)
	assert.Zero(t, gen.calls, "the generation provider must not be invoked on the fallback path")

	msgs, err := history.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleAssistant, msgs[1].Message.Role)
	assert.Equal(t, res.Text, msgs[1].Message.Content)
}

func TestRunFallbackWithoutPersistence(t *testing.T) {
	ctx := context.Background()
	history := NewLocalHistory("s1")

	p, err := NewPipeline(history, &stubSearcher{}, &stubGenerator{}, Config{
		FallbackMessage: "nothing found",
		PersistFallback: false,
	})
	require.NoError(t, err)

	res, err := p.Run(ctx, "question")
	require.NoError(t, err)
	assert.True(t, res.Fallback)

	msgs, err := history.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleUser, msgs[0].Message.Role)
}

func TestRunNoFallbackConfiguredGeneratesAnyway(t *testing.T) {
	ctx := context.Background()
	gen := &stubGenerator{reply: "best effort answer"}

	p, err := NewPipeline(NewLocalHistory("s1"), &stubSearcher{}, gen, Config{})
	require.NoError(t, err)

	res, err := p.Run(ctx, "question")
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.Equal(t, "best effort answer", res.Text)
	assert.Equal(t, 1, gen.calls)
}

func TestRunMemoryWindowDropsOldTurns(t *testing.T) {
	ctx := context.Background()
	history := NewLocalHistory("s1")
	for i := 0; i < 8; i++ {
		require.NoError(t, history.Append(ctx, core.Message{
			Role:    core.RoleUser,
			Content: fmt.Sprintf("old turn %d", i),
		}))
	}
	gen := &stubGenerator{reply: "ok"}

	p, err := NewPipeline(history, &stubSearcher{}, gen, Config{MemoryWindow: 3})
	require.NoError(t, err)

	_, err = p.Run(ctx, "current question")
	require.NoError(t, err)

	// 3 prior turns + the current user text; turns 0..4 dropped silently.
	require.Len(t, gen.prompt, 4)
	assert.Equal(t, "old turn 5", gen.prompt[0].Content)
	assert.Equal(t, "old turn 7", gen.prompt[2].Content)
	assert.Equal(t, "current question", gen.prompt[3].Content)
}

func TestRunLoggingFailureAbortsEverything(t *testing.T) {
	ctx := context.Background()
	searcher := &stubSearcher{}
	gen := &stubGenerator{}
	history := &failingHistory{LocalHistory: NewLocalHistory("s1"), failAppend: true}

	p, err := NewPipeline(history, searcher, gen, Config{})
	require.NoError(t, err)

	_, err = p.Run(ctx, "question")
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseLogging, pe.Phase)
	assert.Zero(t, searcher.calls)
	assert.Zero(t, gen.calls)
}

func TestRunRetrievalFailureIsPhaseTagged(t *testing.T) {
	ctx := context.Background()
	history := NewLocalHistory("s1")
	searcher := &stubSearcher{err: &core.ProviderError{Provider: "embedding", Err: errors.New("down")}}

	p, err := NewPipeline(history, searcher, &stubGenerator{}, Config{})
	require.NoError(t, err)

	_, err = p.Run(ctx, "question")
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseRetrieval, pe.Phase)

	// The user turn was recorded before the failure and stays recorded.
	msgs, err := history.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestRunGenerationFailureKeepsUserTurn(t *testing.T) {
	ctx := context.Background()
	history := NewLocalHistory("s1")
	searcher := &stubSearcher{contents: []core.ScoredContent{scored("q", "c", 0.1)}}
	gen := &stubGenerator{err: &core.ProviderError{Provider: "generation", Err: errors.New("model down")}}

	p, err := NewPipeline(history, searcher, gen, Config{})
	require.NoError(t, err)

	_, err = p.Run(ctx, "question")
	var pe *PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PhaseGeneration, pe.Phase)

	msgs, err := history.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleUser, msgs[0].Message.Role)
}

func TestNewPipelineValidatesConfig(t *testing.T) {
	var ve *core.ValidationError

	_, err := NewPipeline(NewLocalHistory("s1"), &stubSearcher{}, &stubGenerator{}, Config{MemoryWindow: -1})
	assert.ErrorAs(t, err, &ve)

	_, err = NewPipeline(NewLocalHistory("s1"), &stubSearcher{}, &stubGenerator{}, Config{MaxContextTokens: -1})
	assert.ErrorAs(t, err, &ve)
}
