package middleware

import (
	"net/http"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter applies per-IP request limits using token buckets. Buckets
// for idle clients are dropped by a background sweep; call Stop on
// shutdown.
type RateLimiter struct {
	limiters sync.Map // map[string]*client
	stop     chan struct{}
	stopOnce sync.Once
}

type client struct {
	limiter *rate.Limiter

	mu       sync.Mutex
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter with background cleanup every
// cleanupInterval.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{stop: make(chan struct{})}
	go rl.sweep(cleanupInterval)
	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Limit returns middleware enforcing maxPerMinute requests per client IP,
// with a burst of the same size.
func (rl *RateLimiter) Limit(maxPerMinute int) Middleware {
	perSecond := rate.Limit(float64(maxPerMinute) / 60.0)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := rl.client(clientKey(r), perSecond, maxPerMinute)
			if !c.limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) client(key string, limit rate.Limit, burst int) *client {
	val, _ := rl.limiters.LoadOrStore(key, &client{
		limiter:  rate.NewLimiter(limit, burst),
		lastSeen: time.Now(),
	})
	c := val.(*client)
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
	return c
}

// clientKey strips the port so every connection from one host shares a
// bucket.
func clientKey(r *http.Request) string {
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().String()
	}
	return r.RemoteAddr
}

func (rl *RateLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			now := time.Now()
			rl.limiters.Range(func(key, value any) bool {
				c := value.(*client)
				c.mu.Lock()
				idle := now.Sub(c.lastSeen)
				c.mu.Unlock()
				if idle > 10*time.Minute {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}
