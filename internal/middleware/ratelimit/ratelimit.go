// Package ratelimit throttles requests per client IP with a fixed window
// that opens on the client's first request.
package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"pelotero/internal/log"
	"pelotero/internal/metrics"
)

type Config struct {
	// Limit is the number of requests admitted per window.
	Limit  int
	Window time.Duration
	// IdleAfter drops a client's counter once it has been quiet this long.
	IdleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		Limit:     10,
		Window:    time.Minute,
		IdleAfter: 10 * time.Minute,
	}
}

type window struct {
	start time.Time
	last  time.Time
	count int
}

// Limiter counts requests per key. Call Stop to end its janitor.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	stop     chan struct{}
	stopOnce sync.Once
}

func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Limit < 1 {
		cfg.Limit = def.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.IdleAfter < cfg.Window {
		cfg.IdleAfter = max(def.IdleAfter, cfg.Window)
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Take admits one request for key. When the budget is spent it returns
// false and the time left until the window resets.
func (l *Limiter) Take(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		l.windows[key] = &window{start: now, last: now, count: 1}
		return true, 0
	}
	w.count++
	w.last = now
	if w.count <= l.cfg.Limit {
		return true, 0
	}
	return false, w.start.Add(l.cfg.Window).Sub(now)
}

// Forgive clears key's counter, e.g. after a successful login.
func (l *Limiter) Forgive(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Tracked returns the number of keys with a live counter.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) janitor() {
	ticker := time.NewTicker(l.cfg.IdleAfter / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.dropIdle()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) dropIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.cfg.IdleAfter)
	for k, w := range l.windows {
		if w.last.Before(cutoff) {
			delete(l.windows, k)
		}
	}
}

// Middleware rejects requests over budget with 429 and Retry-After.
// onLimit writes the body; nil falls back to plain text.
func (l *Limiter) Middleware(keyOf func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyOf(r)
			ok, wait := l.Take(key)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			metrics.RateLimited.Inc()
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldClientIP, key,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		})
	}
}
