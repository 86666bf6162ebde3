package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by explicit lookups on identifiers that do
	// not exist. Get-or-create paths never return it.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate marks an exact-duplicate knowledge-base row. Batch
	// ingestion skips these; it is never raised for message appends.
	ErrDuplicate = errors.New("duplicate content")

	// ErrDimension marks an embedding whose length does not match the
	// configured provider dimension. This is a configuration error, not
	// something callers should retry around.
	ErrDimension = errors.New("embedding dimension mismatch")
)

// ConnError marks the store as unreachable or a query as failed at the
// connection level, so callers can tell "retry the connection" apart
// from "this row truly does not exist".
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// ProviderError marks a failed embedding or generation call.
type ProviderError struct {
	Provider string // "embedding" or "generation"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError marks malformed configuration detected at construction
// time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
