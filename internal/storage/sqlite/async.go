package sqlite

import (
	"context"

	"github.com/sandevgo/dialogkit/internal/core"
)

// AsyncHistory is the non-blocking message log for one session. Every
// call returns immediately with a result channel; the database round-trip
// runs on its own goroutine against the shared process-wide pool. It
// executes the same statements as History, so ordering and atomicity are
// identical across both paths.
type AsyncHistory struct {
	pool            *Pool
	sessionID       string
	parentSessionID string
}

func NewAsyncHistory(pool *Pool, sessionID string) *AsyncHistory {
	return NewChildAsyncHistory(pool, sessionID, "")
}

func NewChildAsyncHistory(pool *Pool, sessionID, parentSessionID string) *AsyncHistory {
	return &AsyncHistory{
		pool:            pool,
		sessionID:       sessionID,
		parentSessionID: parentSessionID,
	}
}

func (h *AsyncHistory) SessionID() string {
	return h.sessionID
}

type MessagesResult struct {
	Messages []core.StoredMessage
	Err      error
}

func (h *AsyncHistory) Append(ctx context.Context, msg core.Message) <-chan error {
	ch := make(chan error, 1)
	go func() {
		db, err := h.pool.DB(ctx)
		if err != nil {
			ch <- err
			return
		}
		ch <- insertMessage(ctx, db, h.sessionID, h.parentSessionID, msg)
	}()
	return ch
}

func (h *AsyncHistory) AppendMany(ctx context.Context, msgs []core.Message) <-chan error {
	ch := make(chan error, 1)
	go func() {
		db, err := h.pool.DB(ctx)
		if err != nil {
			ch <- err
			return
		}
		ch <- insertMessages(ctx, db, h.sessionID, h.parentSessionID, msgs)
	}()
	return ch
}

func (h *AsyncHistory) Messages(ctx context.Context) <-chan MessagesResult {
	ch := make(chan MessagesResult, 1)
	go func() {
		db, err := h.pool.DB(ctx)
		if err != nil {
			ch <- MessagesResult{Err: err}
			return
		}
		msgs, err := selectMessages(ctx, db, h.sessionID)
		ch <- MessagesResult{Messages: msgs, Err: err}
	}()
	return ch
}

func (h *AsyncHistory) SetTags(ctx context.Context, tags string) <-chan error {
	ch := make(chan error, 1)
	go func() {
		db, err := h.pool.DB(ctx)
		if err != nil {
			ch <- err
			return
		}
		ch <- setSessionTags(ctx, db, h.sessionID, tags)
	}()
	return ch
}
