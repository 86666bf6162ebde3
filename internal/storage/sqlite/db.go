package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/sandevgo/dialogkit/internal/core"
	"github.com/sandevgo/dialogkit/pkg/log"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// dbtx is the slice of database/sql shared by *sql.DB, *sql.Conn and
// *sql.Tx. Everything in this package is written against it, so the
// blocking path (dedicated connection) and the non-blocking path (shared
// pool) run the exact same statements.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type txStarter interface {
	dbtx
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Open opens the database, verifies it is reachable and ensures the
// schema. Safe to call repeatedly: migrations are idempotent.
func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &core.ConnError{Op: "ping", Err: err}
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate provisions the sessions, chat_messages and content_items
// tables. Every statement uses IF NOT EXISTS semantics, so concurrent or
// repeated invocations never fail against an already-provisioned store.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(log.NewGooseLoggerFromCtx(ctx))

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// Pool is the single process-wide connection pool for the non-blocking
// path. It is constructed once at startup and passed through
// constructors; the underlying pool opens lazily on first use and is
// cached for the process lifetime.
type Pool struct {
	path string

	once sync.Once
	db   *sql.DB
	err  error
}

func NewPool(dbPath string) *Pool {
	return &Pool{path: dbPath}
}

func (p *Pool) DB(ctx context.Context) (*sql.DB, error) {
	p.once.Do(func() {
		p.db, p.err = Open(ctx, p.path)
	})
	return p.db, p.err
}

func (p *Pool) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
