package sqlstore

import (
	"context"
	"errors"
	"sync"
)

// Pool caches open stores keyed by driver and DSN. It is created once per
// process and closed when the process stops.
type Pool struct {
	mu     sync.Mutex
	stores map[string]*Store
	closed bool
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{stores: make(map[string]*Store)}
}

// Open returns the store for driver and dsn, opening and migrating it on
// first use.
func (p *Pool) Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errors.New("store pool is closed")
	}
	key := string(driver) + "|" + dsn
	if s, ok := p.stores[key]; ok {
		return s, nil
	}

	s, err := New(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	p.stores[key] = s
	return s, nil
}

// Len reports how many stores are open.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stores)
}

// Close closes every store in the pool. Further Opens fail.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for key, s := range p.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.stores, key)
	}
	p.closed = true
	return errors.Join(errs...)
}

type poolKey struct{}

// WithPool returns a copy of ctx that carries p.
func WithPool(ctx context.Context, p *Pool) context.Context {
	return context.WithValue(ctx, poolKey{}, p)
}

// PoolFrom returns the pool stored in ctx by WithPool.
func PoolFrom(ctx context.Context) (*Pool, bool) {
	p, ok := ctx.Value(poolKey{}).(*Pool)
	return p, ok && p != nil
}
