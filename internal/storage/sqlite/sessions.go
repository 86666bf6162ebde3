package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/sandevgo/dialogkit/internal/core"
)

type SessionRepo struct {
	db dbtx
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// GetOrCreate returns the canonical identifier for a session, inserting
// the row when absent. Concurrent creators for the same identifier race
// on the primary key, not on a lock: the losing insert is a no-op and
// both callers observe the same row.
func (r *SessionRepo) GetOrCreate(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = NewSessionID()
	}
	return getOrCreateSession(ctx, r.db, id)
}

// Get looks up an existing session. Unlike GetOrCreate it reports
// core.ErrNotFound instead of creating.
func (r *SessionRepo) Get(ctx context.Context, id string) (core.Session, error) {
	row, err := r.db.QueryContext(ctx,
		`SELECT session_id, tags, created_at FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return core.Session{}, &core.ConnError{Op: "get session", Err: err}
	}
	defer row.Close()

	if !row.Next() {
		if err := row.Err(); err != nil {
			return core.Session{}, &core.ConnError{Op: "get session", Err: err}
		}
		return core.Session{}, core.ErrNotFound
	}

	var s core.Session
	var tags sql.NullString
	if err := row.Scan(&s.SessionID, &tags, &s.CreatedAt); err != nil {
		return core.Session{}, &core.ConnError{Op: "scan session", Err: err}
	}
	s.Tags = tags.String
	return s, nil
}

func (r *SessionRepo) SetTags(ctx context.Context, id, tags string) error {
	return setSessionTags(ctx, r.db, id, tags)
}

// NewSessionID generates a fresh opaque session identifier.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func getOrCreateSession(ctx context.Context, q dbtx, id string) (string, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO sessions (session_id) VALUES (?) ON CONFLICT (session_id) DO NOTHING`, id)
	if err != nil {
		return "", &core.ConnError{Op: "create session", Err: err}
	}

	// Re-fetch so every caller, winner or loser of the race, returns the
	// persisted identifier.
	rows, err := q.QueryContext(ctx,
		`SELECT session_id FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return "", &core.ConnError{Op: "fetch session", Err: err}
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", &core.ConnError{Op: "fetch session", Err: err}
		}
		return "", errors.New("session row missing after insert")
	}

	var canonical string
	if err := rows.Scan(&canonical); err != nil {
		return "", &core.ConnError{Op: "scan session", Err: err}
	}
	return canonical, nil
}

func setSessionTags(ctx context.Context, q dbtx, id, tags string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE sessions SET tags = ? WHERE session_id = ?`, tags, id)
	if err != nil {
		return &core.ConnError{Op: "set tags", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &core.ConnError{Op: "set tags", Err: err}
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}
