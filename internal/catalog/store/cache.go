package store

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/Simplici0/quoteengine/internal/catalog"
)

// Cached keeps recently loaded products in memory. Writes through Cached evict the
// affected entry. Cached products are shared between callers and must not be mutated.
type Cached struct {
	*Store
	products *lru.Cache

	// generation changes on every write. A load that overlapped a write is
	// returned but not cached.
	mu         sync.Mutex
	generation uint64
}

func NewCached(s *Store, size int) (*Cached, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create product cache: %w", err)
	}
	return &Cached{Store: s, products: c}, nil
}

func (c *Cached) Get(ctx context.Context, id string) (*catalog.Product, error) {
	if v, ok := c.products.Get(id); ok {
		return v.(*catalog.Product), nil
	}

	gen := c.currentGeneration()
	p, err := c.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.addIfCurrent(id, p, gen)
	return p, nil
}

func (c *Cached) Update(ctx context.Context, p *catalog.Product) error {
	defer c.invalidate(p.ID)
	return c.Store.Update(ctx, p)
}

func (c *Cached) Delete(ctx context.Context, id string) error {
	defer c.invalidate(id)
	return c.Store.Delete(ctx, id)
}

// Len reports how many products are cached.
func (c *Cached) Len() int {
	return c.products.Len()
}

func (c *Cached) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Cached) addIfCurrent(id string, p *catalog.Product, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == gen {
		c.products.Add(id, p)
	}
}

func (c *Cached) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.products.Remove(id)
}
