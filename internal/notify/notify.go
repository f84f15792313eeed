// Package notify queues the toast notifications shown on the next page a
// session renders.
package notify

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Kind of toast
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Bounds of a toast's lifetime
const (
	MinTTL = 2 * time.Second
	MaxTTL = 4 * time.Second
)

// Toast is one notification
type Toast struct {
	Kind    Kind
	Message string
	TTL     time.Duration

	seq uint64
}

// Color is green for success and red for errors
func (t Toast) Color() string {
	if t.Kind == Success {
		return "green"
	}
	return "red"
}

// Class is the CSS class of the toast
func (t Toast) Class() string {
	return "toast toast-" + t.Color()
}

// Millis is the TTL in milliseconds, for the dismiss timer of the page
func (t Toast) Millis() int64 {
	return t.TTL.Milliseconds()
}

// Center stores toasts per session until they are shown or expire
type Center struct {
	cache      *cache.Cache
	successTTL time.Duration
	errorTTL   time.Duration

	mu  sync.Mutex
	seq uint64
}

// NewCenter creates a notification center. TTLs are clamped to [MinTTL, MaxTTL].
func NewCenter(successTTL, errorTTL time.Duration) *Center {
	return &Center{
		cache:      cache.New(MaxTTL, time.Minute),
		successTTL: clamp(successTTL),
		errorTTL:   clamp(errorTTL),
	}
}

func clamp(d time.Duration) time.Duration {
	if d < MinTTL {
		return MinTTL
	}
	if d > MaxTTL {
		return MaxTTL
	}
	return d
}

// Push queues a toast of kind for the session
func (c *Center) Push(sid string, kind Kind, message string) {
	ttl := c.errorTTL
	if kind == Success {
		ttl = c.successTTL
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	t := Toast{Kind: kind, Message: message, TTL: ttl, seq: seq}
	c.cache.Set(fmt.Sprintf("%s/%020d", sid, seq), t, ttl)
}

// Success queues a green toast
func (c *Center) Success(sid, message string) {
	c.Push(sid, Success, message)
}

// Error queues a red toast
func (c *Center) Error(sid, message string) {
	c.Push(sid, Error, message)
}

// Drain returns the session's live toasts in push order and removes them
func (c *Center) Drain(sid string) []Toast {
	prefix := sid + "/"
	var out []Toast
	for k, item := range c.cache.Items() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out = append(out, item.Object.(Toast))
		c.cache.Delete(k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
