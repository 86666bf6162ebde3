package core

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversational turn as it travels through the pipeline
// and as it is serialized into the chat_messages JSON column.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StoredMessage is a Message as persisted: immutable once written,
// totally ordered within a session by (Timestamp, ID).
type StoredMessage struct {
	ID              int64     `json:"id"`
	SessionID       string    `json:"session_id"`
	ParentSessionID string    `json:"parent_session_id,omitempty"`
	Message         Message   `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
}

type Session struct {
	SessionID string    `json:"session_id"`
	Tags      string    `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ContentItem is a knowledge-base row. The embedding length is fixed per
// dataset and must match the configured embedding provider's dimension.
type ContentItem struct {
	ID          int64     `json:"id"`
	Dataset     string    `json:"dataset,omitempty"`
	Category    string    `json:"category,omitempty"`
	Subcategory string    `json:"subcategory,omitempty"`
	Question    string    `json:"question"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"-"`
	Link        string    `json:"link,omitempty"`
}

// ScoredContent is a ContentItem ranked by similarity distance
// (lower = more similar).
type ScoredContent struct {
	ContentItem
	Distance float64 `json:"distance"`
}
