// Package store keeps the entity collections a page works on.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/resource"
)

// Collection is the client side copy of one backend collection. It is loaded
// on first use and refetched after Invalidate.
type Collection[T any] struct {
	res  *resource.Resource[[]T]
	path string

	mu    sync.Mutex
	stale bool
}

// NewCollection creates a collection read from path with fetch
func NewCollection[T any](fetch resource.Fetcher[[]T], path string, logger *zap.Logger) *Collection[T] {
	return &Collection[T]{
		res:  resource.New(fetch, logger),
		path: path,
	}
}

// FromBackend creates a collection read from path on the catalog backend
func FromBackend[T any](c *backend.Client, path string, logger *zap.Logger) *Collection[T] {
	return NewCollection(resource.BackendFetcher[[]T](c), path, logger)
}

// Items returns a copy of the collection, fetching it when it has not been
// loaded yet or was invalidated.
func (c *Collection[T]) Items(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	stale := c.stale
	c.stale = false
	c.mu.Unlock()

	if !stale || !c.res.Reload(ctx) {
		c.res.Load(ctx, c.path)
	}

	st, err := c.res.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if st.Err != nil {
		return nil, st.Err
	}
	return append([]T(nil), st.Data...), nil
}

// Invalidate marks the collection stale; the next Items call refetches it
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// Loaded reports whether a successful load has completed
func (c *Collection[T]) Loaded() bool {
	st := c.res.Snapshot()
	return c.res.URL() != "" && !st.Loading && st.Err == nil
}

// Len returns the number of items of the last successful load
func (c *Collection[T]) Len() int {
	return len(c.res.Snapshot().Data)
}

// Path returns the backend path the collection is read from
func (c *Collection[T]) Path() string {
	return c.path
}

// Close cancels a load in progress
func (c *Collection[T]) Close() {
	c.res.Close()
}
