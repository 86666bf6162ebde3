package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/dialogkit/internal/core"
)

// History is the blocking message log for one session. It holds a
// dedicated connection for the lifetime of the handle; Close releases it
// back to the pool.
type History struct {
	conn            *sql.Conn
	sessionID       string
	parentSessionID string
}

func NewHistory(ctx context.Context, db *sql.DB, sessionID string) (*History, error) {
	return NewChildHistory(ctx, db, sessionID, "")
}

// NewChildHistory binds the log to a session and stamps every appended
// message with a link back to the originating thread.
func NewChildHistory(ctx context.Context, db *sql.DB, sessionID, parentSessionID string) (*History, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, &core.ConnError{Op: "acquire connection", Err: err}
	}
	return &History{
		conn:            conn,
		sessionID:       sessionID,
		parentSessionID: parentSessionID,
	}, nil
}

func (h *History) Close() error {
	return h.conn.Close()
}

func (h *History) SessionID() string {
	return h.sessionID
}

func (h *History) Append(ctx context.Context, msg core.Message) error {
	return insertMessage(ctx, h.conn, h.sessionID, h.parentSessionID, msg)
}

func (h *History) AppendMany(ctx context.Context, msgs []core.Message) error {
	return insertMessages(ctx, h.conn, h.sessionID, h.parentSessionID, msgs)
}

func (h *History) Messages(ctx context.Context) ([]core.StoredMessage, error) {
	return selectMessages(ctx, h.conn, h.sessionID)
}

func (h *History) SetTags(ctx context.Context, tags string) error {
	return setSessionTags(ctx, h.conn, h.sessionID, tags)
}

// insertMessage is the single write path shared by the blocking and
// non-blocking logs. One message, one transaction: the row either becomes
// fully visible or, on failure or cancellation, not at all.
func insertMessage(ctx context.Context, db txStarter, sessionID, parentSessionID string, msg core.Message) error {
	doc, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &core.ConnError{Op: "begin append", Err: err}
	}
	defer tx.Rollback()

	// Absent parent is stored as NULL, never as an empty string.
	var parent any
	if parentSessionID != "" {
		parent = parentSessionID
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, parent_session_id, message) VALUES (?, ?, ?)`,
		sessionID, parent, string(doc))
	if err != nil {
		return &core.ConnError{Op: "insert message", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &core.ConnError{Op: "commit append", Err: err}
	}
	return nil
}

// insertMessages appends in input order, one transaction per message.
// The AUTOINCREMENT sequence id preserves that order even when wall-clock
// timestamps collide.
func insertMessages(ctx context.Context, db txStarter, sessionID, parentSessionID string, msgs []core.Message) error {
	for i, msg := range msgs {
		if err := insertMessage(ctx, db, sessionID, parentSessionID, msg); err != nil {
			return fmt.Errorf("append %d of %d: %w", i+1, len(msgs), err)
		}
	}
	return nil
}

func selectMessages(ctx context.Context, db dbtx, sessionID string) ([]core.StoredMessage, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, session_id, parent_session_id, message, timestamp
		 FROM chat_messages
		 WHERE session_id = ?
		 ORDER BY timestamp, id`,
		sessionID)
	if err != nil {
		return nil, &core.ConnError{Op: "query messages", Err: err}
	}
	defer rows.Close()

	var messages []core.StoredMessage
	for rows.Next() {
		var m core.StoredMessage
		var parent sql.NullString
		var doc string

		if err := rows.Scan(&m.ID, &m.SessionID, &parent, &doc, &m.Timestamp); err != nil {
			return nil, &core.ConnError{Op: "scan message", Err: err}
		}
		m.ParentSessionID = parent.String

		if err := json.Unmarshal([]byte(doc), &m.Message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message %d: %w", m.ID, err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, &core.ConnError{Op: "iterate messages", Err: err}
	}
	return messages, nil
}
