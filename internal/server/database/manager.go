// Package database owns the process-wide connection pool. A Manager is
// built once at startup and injected wherever storage access is needed; the
// pool itself is opened and migrated lazily on first use.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"github.com/dmitrijs2005/cdn/internal/common"
	"github.com/dmitrijs2005/cdn/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"golang.org/x/sync/singleflight"
)

// MaxConns is the fixed capacity of the shared pool.
const MaxConns = 5

// Options describe how the pool is opened and migrated.
type Options struct {
	Driver     string
	DSN        string
	Dialect    goose.Dialect
	Migrations fs.FS
	MaxConns   int
}

// DefaultOptions returns PostgreSQL options for dsn. When migrationsDir is
// empty the embedded migrations are used.
func DefaultOptions(dsn, migrationsDir string) Options {
	var fsys fs.FS = migrations.Migrations
	if migrationsDir != "" {
		fsys = os.DirFS(migrationsDir)
	}
	return Options{
		Driver:     "pgx",
		DSN:        dsn,
		Dialect:    goose.DialectPostgres,
		Migrations: fsys,
		MaxConns:   MaxConns,
	}
}

// Manager hands out the shared pool. The zero value is not usable; use NewManager.
type Manager struct {
	opts  Options
	pool  atomic.Pointer[sql.DB]
	group singleflight.Group

	// seams for tests
	open    func(ctx context.Context) (*sql.DB, error)
	migrate func(ctx context.Context, db *sql.DB) error
}

// NewManager builds a Manager. No I/O happens until the first Acquire.
func NewManager(opts Options) *Manager {
	if opts.MaxConns <= 0 {
		opts.MaxConns = MaxConns
	}
	m := &Manager{opts: opts}
	m.open = m.openPool
	m.migrate = m.runMigrations
	return m
}

// Acquire returns the shared pool, creating and migrating it on first use.
//
// Concurrent first callers share a single bootstrap. The pool is published
// with a compare-and-swap, so at most one pool ever becomes the connection
// source; a pool that loses the swap is closed. A failed migration
// publishes nothing and the next call retries the whole bootstrap.
func (m *Manager) Acquire(ctx context.Context) (*sql.DB, error) {
	if db := m.pool.Load(); db != nil {
		return db, nil
	}

	v, err, _ := m.group.Do("bootstrap", func() (any, error) {
		if db := m.pool.Load(); db != nil {
			return db, nil
		}

		db, err := m.bootstrap(ctx)
		if err != nil {
			return nil, err
		}

		if !m.pool.CompareAndSwap(nil, db) {
			_ = db.Close()
		}
		return m.pool.Load(), nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*sql.DB), nil
}

func (m *Manager) bootstrap(ctx context.Context) (*sql.DB, error) {
	db, err := m.open(ctx)
	if err != nil {
		return nil, &common.ConnectionError{Kind: common.ConnectKind, Err: err}
	}

	if err := m.migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, &common.ConnectionError{Kind: common.MigrateKind, Err: err}
	}

	return db, nil
}

func (m *Manager) openPool(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(m.opts.Driver, m.opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	db.SetMaxOpenConns(m.opts.MaxConns)
	db.SetMaxIdleConns(m.opts.MaxConns)

	// sql.Open is lazy; make sure the DSN is usable before migrating.
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}

func (m *Manager) runMigrations(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(m.opts.Dialect, db, m.opts.Migrations)
	if err != nil {
		// an empty source has nothing pending
		if errors.Is(err, goose.ErrNoMigrations) {
			return nil
		}
		return fmt.Errorf("migration provider error: %w", err)
	}

	if _, err := p.Up(ctx); err != nil {
		return err
	}

	return nil
}

// Ping acquires the pool and checks that a connection can be used.
func (m *Manager) Ping(ctx context.Context) error {
	db, err := m.Acquire(ctx)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		return &common.ConnectionError{Kind: common.ConnectKind, Err: err}
	}

	return nil
}

// Stats reports pool statistics once the pool has been published.
func (m *Manager) Stats() (sql.DBStats, bool) {
	db := m.pool.Load()
	if db == nil {
		return sql.DBStats{}, false
	}
	return db.Stats(), true
}

// Close closes the published pool, if any. It is meant for process shutdown.
func (m *Manager) Close() error {
	db := m.pool.Swap(nil)
	if db == nil {
		return nil
	}
	return db.Close()
}
