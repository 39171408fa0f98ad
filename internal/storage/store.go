package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Options configures Open.
type Options struct {
	// Path is the SQLite file. Its directory must exist.
	Path string
	// IdleTimeout closes the connection after this long without use.
	IdleTimeout time.Duration
}

// Store is the passage index: a passages table plus a key/value config
// table, reached through a capacity-one Pool.
type Store struct {
	pool *Pool
	path string
}

// Open prepares the index at opts.Path, running the version gate and
// corruption recovery once up front. The connection is then managed by
// the pool and reopened on demand.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("index path is required")
	}
	s := &Store{path: opts.Path}
	s.pool = NewPool(func(ctx context.Context) (*sql.DB, error) {
		return openIndex(ctx, s.path)
	}, opts.IdleTimeout)

	lease, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	lease.Release()
	return s, nil
}

// Pool exposes the connection pool, mainly for close hooks.
func (s *Store) Pool() *Pool {
	return s.pool
}

// OnClose registers fn to run whenever the connection closes, idle or final.
func (s *Store) OnClose(fn func()) {
	s.pool.OnClose(fn)
}

// Close flushes and closes the index.
func (s *Store) Close(ctx context.Context) error {
	return s.pool.Close(ctx)
}

// withDB runs fn under a lease.
func (s *Store) withDB(ctx context.Context, fn func(db *sql.DB) error) error {
	lease, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire index connection: %w", err)
	}
	defer lease.Release()
	return fn(lease.DB())
}

// withTx runs fn in a transaction under a lease, committing when fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.withDB(ctx, func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()
		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}
