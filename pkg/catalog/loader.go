package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/memorial/pkg/fetch"
	"github.com/chazu/memorial/pkg/logging"
)

var (
	// ErrUnavailable is the single fatal catalog condition: the source failed
	// and no earlier catalog is cached.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrProductNotFound is returned when a product id does not resolve.
	ErrProductNotFound = errors.New("product not found")
)

// Loader fetches catalogs from a Source and keeps the last good one.
// Concurrent loads are ordered by start: a load superseded by a newer one
// returns fetch.ErrSuperseded and never replaces the cache.
type Loader struct {
	src     Source
	timeout time.Duration
	guard   fetch.Guard

	mu     sync.RWMutex
	cached *Catalog
}

// NewLoader returns a loader reading from src with the given fetch timeout.
func NewLoader(src Source, timeout time.Duration) *Loader {
	return &Loader{src: src, timeout: timeout}
}

// Current returns the cached catalog, if any.
func (l *Loader) Current() (*Catalog, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cached, l.cached != nil
}

// Load fetches a fresh catalog. When the fetch fails but a catalog is cached,
// the cached one is returned and the failure is logged. When nothing is
// cached the error wraps ErrUnavailable.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	token := l.guard.Begin()
	records, err := fetch.Run(ctx, l.timeout, l.src.Fetch)

	if !l.guard.Current(token) {
		logging.Logger().Debug("discarding superseded catalog load", "token", uint64(token))
		return nil, fetch.ErrSuperseded
	}
	if err != nil {
		if c, ok := l.Current(); ok {
			logging.Logger().Warn("catalog reload failed, keeping cached catalog", "error", err)
			return c, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c := Build(records)
	if c.Skipped > 0 {
		logging.Logger().Warn("catalog records skipped", "count", c.Skipped)
	}
	committed := l.guard.Commit(token, func() {
		l.mu.Lock()
		l.cached = c
		l.mu.Unlock()
	})
	if !committed {
		return nil, fetch.ErrSuperseded
	}
	return c, nil
}

// Product resolves a product from the cached catalog, loading one first if
// nothing is cached.
func (l *Loader) Product(ctx context.Context, ref string) (Product, error) {
	c, ok := l.Current()
	if !ok {
		var err error
		c, err = l.Load(ctx)
		if errors.Is(err, fetch.ErrSuperseded) {
			// A concurrent load won; use whatever it cached.
			if c, ok = l.Current(); !ok {
				return Product{}, err
			}
		} else if err != nil {
			return Product{}, err
		}
	}
	p, ok := c.Product(ref)
	if !ok {
		return Product{}, fmt.Errorf("%w: %q", ErrProductNotFound, ref)
	}
	return p, nil
}
