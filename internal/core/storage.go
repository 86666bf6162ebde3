package core

import "context"

type SessionRepository interface {
	// GetOrCreate returns the canonical identifier for the session,
	// inserting a row when none exists. An empty id asks the store to
	// generate a fresh one.
	GetOrCreate(ctx context.Context, id string) (string, error)
	// SetTags updates an existing session. ErrNotFound when it does not
	// exist; never auto-creates.
	SetTags(ctx context.Context, id, tags string) error
}

// HistoryRepository is the append-only message log bound to one session.
type HistoryRepository interface {
	Append(ctx context.Context, msg Message) error
	AppendMany(ctx context.Context, msgs []Message) error
	Messages(ctx context.Context) ([]StoredMessage, error)
	SetTags(ctx context.Context, tags string) error
	SessionID() string
}

type ContentRepository interface {
	// Insert stores one knowledge-base row. ErrDuplicate when an exact
	// (dataset, question, content) row already exists.
	Insert(ctx context.Context, item ContentItem) (int64, error)
	// List returns items for a dataset in insertion order; an empty
	// dataset selects every row.
	List(ctx context.Context, dataset string) ([]ContentItem, error)
}
