// Package session owns one design and the price model of its product.
//
// All state access goes through the Session, which serializes it. The two
// asynchronous paths, switching product and applying a snapshot with a
// different product, fetch the product before touching the design and commit
// only if no newer switch, apply or reset has started meanwhile. A failed or
// timed-out fetch leaves the design and price model as they were.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chazu/memorial/pkg/catalog"
	"github.com/chazu/memorial/pkg/design"
	"github.com/chazu/memorial/pkg/fetch"
	"github.com/chazu/memorial/pkg/logging"
	"github.com/chazu/memorial/pkg/pricing"
	"github.com/chazu/memorial/pkg/snapshot"
)

// ErrNoProduct is returned by Quote before any product has been loaded.
var ErrNoProduct = errors.New("session: no product selected")

// Catalog is the product source a session reads from. *catalog.Loader
// implements it.
type Catalog interface {
	Product(ctx context.Context, ref string) (catalog.Product, error)
	Current() (*catalog.Catalog, bool)
}

// Session is safe for concurrent use.
type Session struct {
	cat     Catalog
	timeout time.Duration
	guard   fetch.Guard

	mu      sync.RWMutex
	state   *design.State
	options *catalog.Catalog
	product *catalog.Product
	model   *pricing.PriceModel
	meta    snapshot.Metadata
}

// New returns a session with an empty design. timeout bounds each product
// fetch; zero means fetch.DefaultTimeout.
func New(cat Catalog, limits design.Limits, timeout time.Duration) *Session {
	return &Session{cat: cat, timeout: timeout, state: design.New(limits)}
}

type loadedProduct struct {
	product catalog.Product
	model   pricing.PriceModel
	options *catalog.Catalog
}

func (s *Session) loadProduct(ctx context.Context, id string) (loadedProduct, error) {
	return fetch.Run(ctx, s.timeout, func(ctx context.Context) (loadedProduct, error) {
		p, err := s.cat.Product(ctx, id)
		if err != nil {
			return loadedProduct{}, err
		}
		m, err := pricing.ParseModel(p.PriceModel)
		if err != nil {
			return loadedProduct{}, fmt.Errorf("product %q: %w", id, err)
		}
		opts, _ := s.cat.Current()
		return loadedProduct{product: p, model: m, options: opts}, nil
	})
}

// install must be called with s.mu held.
func (s *Session) install(l loadedProduct) {
	p := l.product
	m := l.model
	s.product, s.model = &p, &m
	s.state.SetProductID(p.ID)
	s.state.SetAdditionPolicy(p.AdditionPolicy)
	if l.options != nil {
		s.options = l.options
		s.state.SetSizer(l.options)
	}
}

// SetProductID switches the product and reloads its price model. Elements
// are kept. If a newer switch, apply or reset starts before this one's fetch
// finishes, the result is discarded and fetch.ErrSuperseded is returned.
func (s *Session) SetProductID(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	token := s.guard.Begin()
	l, err := s.loadProduct(ctx, id)
	if err != nil {
		if !s.guard.Current(token) {
			return fetch.ErrSuperseded
		}
		return fmt.Errorf("set product %q: %w", id, err)
	}
	if !s.commit(token, func() { s.install(l) }) {
		return fetch.ErrSuperseded
	}
	logging.Logger().Debug("product switched", "product", l.product.ID, "quantity_type", string(l.model.QuantityType))
	return nil
}

// ApplySnapshot replaces the design with snap. When the snapshot names a
// different product, the product and its price model are fetched first and
// installed in the same step as the snapshot, so the design is never priced
// against a stale model.
func (s *Session) ApplySnapshot(ctx context.Context, snap snapshot.Snapshot) error {
	token := s.guard.Begin()

	var pending *loadedProduct
	if id := productOf(snap); id != "" && !s.isCurrentProduct(id) {
		l, err := s.loadProduct(ctx, id)
		if err != nil {
			if !s.guard.Current(token) {
				return fetch.ErrSuperseded
			}
			return fmt.Errorf("apply snapshot: %w", err)
		}
		pending = &l
	}

	ok := s.commit(token, func() {
		if pending != nil {
			s.install(*pending)
		}
		snapshot.Apply(snap, s.state)
		if s.product != nil {
			// The snapshot may name the product by slug.
			s.state.SetProductID(s.product.ID)
		}
		s.meta = snap.Metadata
	})
	if !ok {
		return fetch.ErrSuperseded
	}
	return nil
}

func productOf(snap snapshot.Snapshot) string {
	if snap.ProductID == nil {
		return ""
	}
	return strings.TrimSpace(*snap.ProductID)
}

// isCurrentProduct reports whether ref names the installed product by id,
// slug or display name.
func (s *Session) isCurrentProduct(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.product == nil {
		return false
	}
	_, ok := catalog.ResolveBySlug([]catalog.Product{*s.product}, ref)
	return ok
}

// commit runs fn under both the request guard and the state lock.
func (s *Session) commit(token fetch.Token, fn func()) bool {
	ok := s.guard.Commit(token, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		fn()
	})
	if !ok {
		logging.Logger().Debug("discarding superseded product load", "token", uint64(token))
	}
	return ok
}

// Reset starts a new design. Pending product fetches are superseded.
func (s *Session) Reset() {
	s.guard.Begin()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reset()
	s.product, s.model = nil, nil
	s.meta = snapshot.Metadata{}
}

// Capture snapshots the current design.
func (s *Session) Capture() snapshot.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot.Capture(s.state, s.meta)
}

// Metadata returns the saved-project identity of the design.
func (s *Session) Metadata() snapshot.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// SetMetadata records the saved-project identity, typically after a save.
func (s *Session) SetMetadata(m snapshot.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta = m
}

// View runs fn with read access to the design. fn must not mutate it.
func (s *Session) View(fn func(*design.State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Update runs fn with exclusive access to the design.
func (s *Session) Update(fn func(*design.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Product returns the active product, if one is loaded.
func (s *Session) Product() (catalog.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.product == nil {
		return catalog.Product{}, false
	}
	return *s.product, true
}
