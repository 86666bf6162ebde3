package dialog

import (
	"context"
	"fmt"

	"github.com/sandevgo/dialogkit/internal/core"
	"github.com/sandevgo/dialogkit/pkg/log"
)

// Phase names the pipeline stage a failure happened in, so a caller can
// tell "your message was recorded but no answer was produced" apart from
// "nothing happened".
type Phase string

const (
	PhaseLogging    Phase = "logging"
	PhaseRetrieval  Phase = "retrieval"
	PhaseGeneration Phase = "generation"
)

type PipelineError struct {
	Phase Phase
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

type Searcher interface {
	Search(ctx context.Context, text, dataset string) ([]core.ScoredContent, error)
}

type Config struct {
	SystemPrompt string
	// FallbackMessage, when set, is returned directly whenever retrieval
	// comes back empty, bypassing the generation call entirely.
	FallbackMessage string
	Dataset         string
	// MemoryWindow bounds how many prior turns are replayed; older turns
	// are dropped silently. Zero means the default of 5.
	MemoryWindow int
	// MaxContextTokens bounds the retrieved-content block; zero disables
	// the bound.
	MaxContextTokens int
	// PersistFallback stores fallback replies as assistant turns so the
	// history reads as a complete conversation.
	PersistFallback bool
}

const DefaultMemoryWindow = 5

func (c Config) validate() (Config, error) {
	if c.MemoryWindow < 0 {
		return c, &core.ValidationError{Field: "memory_window", Reason: "must not be negative"}
	}
	if c.MemoryWindow == 0 {
		c.MemoryWindow = DefaultMemoryWindow
	}
	if c.MaxContextTokens < 0 {
		return c, &core.ValidationError{Field: "max_context_tokens", Reason: "must not be negative"}
	}
	return c, nil
}

// Pipeline turns one user message into one reply: log it, retrieve
// relevant content, route to fallback or generation, log the answer. The
// collaborators are fixed at construction and never rebuilt per call.
type Pipeline struct {
	history   core.HistoryRepository
	searcher  Searcher
	generator core.Generator
	cfg       Config
}

func NewPipeline(history core.HistoryRepository, searcher Searcher, generator core.Generator, cfg Config) (*Pipeline, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		history:   history,
		searcher:  searcher,
		generator: generator,
		cfg:       cfg,
	}, nil
}

type Result struct {
	Text     string
	Fallback bool
	Contents []core.ScoredContent
}

func (p *Pipeline) Run(ctx context.Context, input string) (Result, error) {
	logger := log.FromCtx(ctx)

	// The user turn is logged before anything else and never rolled back:
	// a later failure must not silently drop what the user said.
	userMsg := core.Message{Role: core.RoleUser, Content: input}
	if err := p.history.Append(ctx, userMsg); err != nil {
		return Result{}, &PipelineError{Phase: PhaseLogging, Err: err}
	}

	contents, err := p.searcher.Search(ctx, input, p.cfg.Dataset)
	if err != nil {
		return Result{}, &PipelineError{Phase: PhaseRetrieval, Err: err}
	}

	if len(contents) == 0 && p.cfg.FallbackMessage != "" {
		logger.Debug().Str("session", p.history.SessionID()).Msg("no relevant content, using fallback")
		if p.cfg.PersistFallback {
			fallback := core.Message{Role: core.RoleAssistant, Content: p.cfg.FallbackMessage}
			if err := p.history.Append(ctx, fallback); err != nil {
				return Result{}, &PipelineError{Phase: PhaseLogging, Err: err}
			}
		}
		return Result{Text: p.cfg.FallbackMessage, Fallback: true}, nil
	}

	prompt, err := p.buildPrompt(ctx, input, contents)
	if err != nil {
		return Result{}, err
	}

	reply, err := p.generator.Chat(ctx, prompt)
	if err != nil {
		return Result{}, &PipelineError{Phase: PhaseGeneration, Err: err}
	}
	reply.Role = core.RoleAssistant

	if err := p.history.Append(ctx, reply); err != nil {
		return Result{}, &PipelineError{Phase: PhaseLogging, Err: err}
	}

	return Result{Text: reply.Content, Contents: contents}, nil
}

// buildPrompt assembles: system preamble, retrieved content in ranked
// order, a sliding window of the most recent prior turns, and the current
// user text.
func (p *Pipeline) buildPrompt(ctx context.Context, input string, contents []core.ScoredContent) ([]core.Message, error) {
	var prompt []core.Message
	if p.cfg.SystemPrompt != "" {
		prompt = append(prompt, core.Message{Role: core.RoleSystem, Content: p.cfg.SystemPrompt})
	}

	block, err := buildContextBlock(contents, p.cfg.MaxContextTokens)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseGeneration, Err: err}
	}
	if block != "" {
		prompt = append(prompt, core.Message{Role: core.RoleSystem, Content: block})
	}

	stored, err := p.history.Messages(ctx)
	if err != nil {
		return nil, &PipelineError{Phase: PhaseLogging, Err: err}
	}
	// The tail of the log is the user turn appended above; everything
	// before it is prior conversation.
	if n := len(stored); n > 0 {
		stored = stored[:n-1]
	}
	if len(stored) > p.cfg.MemoryWindow {
		stored = stored[len(stored)-p.cfg.MemoryWindow:]
	}
	for _, m := range stored {
		prompt = append(prompt, m.Message)
	}

	prompt = append(prompt, core.Message{Role: core.RoleUser, Content: input})
	return prompt, nil
}
