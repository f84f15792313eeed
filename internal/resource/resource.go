// Package resource loads remote data in the background and exposes it as a
// {data, loading, error} triple.
package resource

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
)

// Fetcher retrieves the value stored at url
type Fetcher[T any] func(ctx context.Context, url string) (T, error)

// BackendFetcher decodes GET responses of the catalog backend into T
func BackendFetcher[T any](c *backend.Client) Fetcher[T] {
	return func(ctx context.Context, url string) (T, error) {
		var out T
		err := c.Get(ctx, url, &out)
		return out, err
	}
}

// State is a snapshot of a resource
type State[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// Resource tracks the latest load of a URL. A load only starts when the URL
// changes or Reload is called; results of superseded or closed loads are
// dropped.
type Resource[T any] struct {
	fetch  Fetcher[T]
	logger *zap.Logger

	mu     sync.Mutex
	state  State[T]
	url    string
	hasURL bool
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// New creates an idle resource
func New[T any](fetch Fetcher[T], logger *zap.Logger) *Resource[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resource[T]{fetch: fetch, logger: logger}
}

// Load starts fetching url unless it is already the loaded URL.
// It reports whether a fetch was started.
func (r *Resource[T]) Load(ctx context.Context, url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || (r.hasURL && r.url == url) {
		return false
	}
	r.startLocked(ctx, url)
	return true
}

// Reload fetches the current URL again
func (r *Resource[T]) Reload(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || !r.hasURL {
		return false
	}
	r.startLocked(ctx, r.url)
	return true
}

func (r *Resource[T]) startLocked(ctx context.Context, url string) {
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	r.url = url
	r.hasURL = true
	r.state.Loading = true

	fetchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(done)
		defer cancel()

		data, err := r.fetch(fetchCtx, url)

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || gen != r.gen {
			r.logger.Debug("discarding stale fetch result", zap.String("url", url))
			return
		}
		if err != nil {
			r.state.Err = err
		} else {
			r.state.Data = data
			r.state.Err = nil
		}
		r.state.Loading = false
	}()
}

// Snapshot returns the current state
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// URL returns the URL of the latest load
func (r *Resource[T]) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// Wait blocks until the latest load settles and returns the resulting state.
// A newer load started while waiting is waited for too.
func (r *Resource[T]) Wait(ctx context.Context) (State[T], error) {
	for {
		r.mu.Lock()
		done := r.done
		settled := !r.state.Loading || r.closed
		r.mu.Unlock()

		if done == nil || settled {
			return r.Snapshot(), nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return r.Snapshot(), ctx.Err()
		}
	}
}

// Close cancels the in-flight load and waits for its goroutine to exit.
// The resource keeps its last state and ignores further loads.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.state.Loading = false
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	r.wg.Wait()
}
