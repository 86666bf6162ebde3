package dialog

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/dialogkit/internal/core"
)

// LocalHistory is an in-memory message log with the same ordering
// contract as the persisted one. It backs database-less experimentation
// and tests.
type LocalHistory struct {
	mu              sync.Mutex
	sessionID       string
	parentSessionID string
	tags            string
	nextID          int64
	msgs            []core.StoredMessage
}

func NewLocalHistory(sessionID string) *LocalHistory {
	return &LocalHistory{sessionID: sessionID, nextID: 1}
}

func NewLocalChildHistory(sessionID, parentSessionID string) *LocalHistory {
	h := NewLocalHistory(sessionID)
	h.parentSessionID = parentSessionID
	return h
}

func (h *LocalHistory) SessionID() string {
	return h.sessionID
}

func (h *LocalHistory) Append(ctx context.Context, msg core.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, core.StoredMessage{
		ID:              h.nextID,
		SessionID:       h.sessionID,
		ParentSessionID: h.parentSessionID,
		Message:         msg,
		Timestamp:       time.Now().UTC(),
	})
	h.nextID++
	return nil
}

func (h *LocalHistory) AppendMany(ctx context.Context, msgs []core.Message) error {
	for _, msg := range msgs {
		if err := h.Append(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (h *LocalHistory) Messages(ctx context.Context) ([]core.StoredMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]core.StoredMessage, len(h.msgs))
	copy(out, h.msgs)
	return out, nil
}

func (h *LocalHistory) SetTags(ctx context.Context, tags string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tags = tags
	return nil
}
