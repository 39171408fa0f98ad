package storage

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/bep/debounce"

	"notes-retrieval/internal/contextutil"
)

// DefaultIdleTimeout is how long the pool keeps an unused connection open.
const DefaultIdleTimeout = 3 * time.Minute

// OpenFunc opens a ready-to-use database.
type OpenFunc func(ctx context.Context) (*sql.DB, error)

// Pool hands out at most one lease on a lazily opened database. The
// connection is closed after IdleTimeout without a lease and reopened on
// the next Acquire.
type Pool struct {
	open      OpenFunc
	slot      chan struct{}
	debounced func(func())

	mu      sync.Mutex
	db      *sql.DB
	closed  bool
	onClose []func()
}

// NewPool creates a pool. idle <= 0 selects DefaultIdleTimeout.
func NewPool(open OpenFunc, idle time.Duration) *Pool {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Pool{
		open:      open,
		slot:      make(chan struct{}, 1),
		debounced: debounce.New(idle),
	}
}

// Lease is exclusive use of the pooled database until Release.
type Lease struct {
	pool *Pool
	db   *sql.DB
	once sync.Once
}

// DB returns the leased database.
func (l *Lease) DB() *sql.DB {
	return l.db
}

// Release returns the lease and re-arms the idle timer. Safe to call more than once.
func (l *Lease) Release() {
	l.once.Do(func() {
		<-l.pool.slot
		l.pool.debounced(l.pool.closeIfIdle)
	})
}

// Acquire waits for the single slot and opens the database if needed.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		<-p.slot
		return nil, ErrPoolClosed
	}
	if p.db == nil {
		db, err := p.open(ctx)
		if err != nil {
			<-p.slot
			return nil, err
		}
		p.db = db
	}
	return &Lease{pool: p, db: p.db}, nil
}

// OnClose registers fn to run every time the connection closes.
func (p *Pool) OnClose(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClose = append(p.onClose, fn)
}

// IsOpen reports whether a connection is currently held open.
func (p *Pool) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db != nil
}

// Close waits for any outstanding lease, closes the connection and rejects
// further Acquire calls.
func (p *Pool) Close(ctx context.Context) error {
	select {
	case p.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slot }()

	p.debounced(func() {})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeLocked(ctx)
}

// closeIfIdle runs from the debounce timer. If a lease is held or being
// acquired the slot is taken and the close is skipped.
func (p *Pool) closeIfIdle() {
	select {
	case p.slot <- struct{}{}:
	default:
		return
	}
	defer func() { <-p.slot }()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return
	}
	ctx := context.Background()
	contextutil.LoggerFromContext(ctx).Debug("closing idle index connection")
	_ = p.closeLocked(ctx)
}

func (p *Pool) closeLocked(ctx context.Context) error {
	if p.db == nil {
		return nil
	}
	_, _ = p.db.ExecContext(ctx, "PRAGMA optimize;")
	err := p.db.Close()
	p.db = nil
	for _, fn := range p.onClose {
		fn()
	}
	return err
}
