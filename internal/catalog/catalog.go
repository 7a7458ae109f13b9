// Package catalog keeps the in-memory product snapshot and evaluates
// storefront queries against it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"pamazon/internal/domain"
	"pamazon/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// snapshot is never mutated after it is published
type snapshot struct {
	products   []*domain.Product
	categories []string
}

// change is a local edit made while a LoadAll was reading the store
type change struct {
	seq     uint64
	removed uuid.UUID
	added   *domain.Product
}

// Repository mediates all catalog reads against the product store and
// owns the cached snapshot plus its derived category set.
type Repository struct {
	store  repository.ProductRepository
	logger *zap.Logger

	current atomic.Pointer[snapshot]
	loaded  atomic.Bool

	// serializes snapshot swaps; store calls happen outside it
	mu sync.Mutex
	// guarded by mu
	seq      uint64
	inflight int
	journal  []change
}

// NewRepository creates an empty catalog backed by store
func NewRepository(store repository.ProductRepository, logger *zap.Logger) *Repository {
	r := &Repository{store: store, logger: logger}
	r.current.Store(&snapshot{})
	return r
}

// LoadAll fetches every product from the store and replaces the snapshot.
// Removes and appends that land while the store is being read are replayed
// onto the fetched list, so a slow load never resurrects or drops them.
// On failure the previous snapshot is kept and empty results are returned.
func (r *Repository) LoadAll(ctx context.Context) ([]*domain.Product, []string, error) {
	r.mu.Lock()
	start := r.seq
	r.inflight++
	r.mu.Unlock()

	products, err := r.store.List(ctx)

	r.mu.Lock()
	r.inflight--
	missed := r.changesSince(start)
	if r.inflight == 0 {
		r.journal = nil
	}
	if err != nil {
		r.mu.Unlock()
		r.logger.Error("Failed to load catalog", zap.Error(err))
		return []*domain.Product{}, []string{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	next := newSnapshot(replay(products, missed))
	r.current.Store(next)
	r.loaded.Store(true)
	r.mu.Unlock()

	r.logger.Info("Catalog loaded",
		zap.Int("products", len(next.products)),
		zap.Int("categories", len(next.categories)),
		zap.Int("replayed", len(missed)),
	)

	return cloneProducts(next.products), cloneStrings(next.categories), nil
}

// GetByID reads straight from the store so external changes are visible
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return product, nil
}

// Remove deletes the product from the store and then from the snapshot
func (r *Repository) Remove(ctx context.Context, id uuid.UUID) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return translateStoreError(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.record(change{removed: id})
	r.current.Store(newSnapshot(without(r.current.Load().products, id)))

	return nil
}

// Append adds a freshly created product to the end of the snapshot.
// It is a no-op if the product is already present.
func (r *Repository) Append(product *domain.Product) {
	if product == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.current.Load()
	for _, p := range prev.products {
		if p.ID == product.ID {
			return
		}
	}

	r.record(change{added: product})
	r.current.Store(newSnapshot(withAppended(prev.products, product)))
}

// Snapshot returns the currently cached products in catalog order
func (r *Repository) Snapshot() []*domain.Product {
	return cloneProducts(r.current.Load().products)
}

// Categories returns the distinct non-empty categories of the snapshot
func (r *Repository) Categories() []string {
	return cloneStrings(r.current.Load().categories)
}

// Loaded reports whether LoadAll has ever succeeded
func (r *Repository) Loaded() bool {
	return r.loaded.Load()
}

// record must be called with mu held
func (r *Repository) record(c change) {
	r.seq++
	if r.inflight == 0 {
		return
	}
	c.seq = r.seq
	r.journal = append(r.journal, c)
}

// changesSince must be called with mu held
func (r *Repository) changesSince(seq uint64) []change {
	var out []change
	for _, c := range r.journal {
		if c.seq > seq {
			out = append(out, c)
		}
	}
	return out
}

// replay applies local changes, in order, to a list fetched from the store
func replay(products []*domain.Product, changes []change) []*domain.Product {
	for _, c := range changes {
		if c.added != nil {
			products = withAppended(products, c.added)
			continue
		}
		products = without(products, c.removed)
	}
	return products
}

func without(products []*domain.Product, id uuid.UUID) []*domain.Product {
	kept := make([]*domain.Product, 0, len(products))
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return kept
}

// withAppended leaves products untouched when the ID is already present
func withAppended(products []*domain.Product, product *domain.Product) []*domain.Product {
	for _, p := range products {
		if p.ID == product.ID {
			return products
		}
	}
	next := make([]*domain.Product, 0, len(products)+1)
	next = append(next, products...)
	return append(next, product)
}

func newSnapshot(products []*domain.Product) *snapshot {
	return &snapshot{
		products:   products,
		categories: deriveCategories(products),
	}
}

// deriveCategories keeps first-seen order so facet lists are stable
func deriveCategories(products []*domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	categories := []string{}
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}

func translateStoreError(err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func cloneProducts(in []*domain.Product) []*domain.Product {
	out := make([]*domain.Product, len(in))
	copy(out, in)
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
