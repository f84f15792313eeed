package auth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// IPRateLimiter stores a rate limiter for each client IP address. Limiters
// idle for longer than it takes to refill their bucket are evicted.
type IPRateLimiter struct {
	ips *cache.Cache
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return newIPRateLimiter(r, b, refillTime(r, b))
}

func newIPRateLimiter(r rate.Limit, b int, idle time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		ips: cache.New(idle, idle),
		r:   r,
		b:   b,
	}
}

// refillTime is how long an unused limiter takes to get a full bucket back.
// An evicted limiter is then indistinguishable from a new one.
func refillTime(r rate.Limit, b int) time.Duration {
	const floor = time.Minute
	if r <= 0 || r == rate.Inf {
		return floor
	}
	d := time.Duration(float64(b) / float64(r) * float64(time.Second))
	if d < floor {
		return floor
	}
	return d
}

// GetLimiter returns the rate limiter for an IP address and restarts its
// idle timer.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, ok := i.ips.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(i.r, i.b)
	}
	i.ips.SetDefault(ip, limiter)
	return limiter.(*rate.Limiter)
}

// Len returns the number of tracked clients, expired ones included until the
// next cleanup.
func (i *IPRateLimiter) Len() int {
	return i.ips.ItemCount()
}

// Allow reports whether the client of r may make another attempt now
func (i *IPRateLimiter) Allow(r *http.Request) bool {
	return i.GetLimiter(ClientIP(r)).Allow()
}

// ClientIP returns the remote IP of r without its port
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit is a middleware that answers 429 once a client exceeds the limit.
func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r) {
				http.Error(w, "Te veel inlogpogingen, probeer het later opnieuw.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
