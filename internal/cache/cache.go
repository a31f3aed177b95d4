// Package cache holds the in-process LRU used for short-lived lookups
// such as revoked session ids. Aggregates are never cached.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"pelotero/internal/log"
	"pelotero/internal/metrics"
)

// Cache is a bounded set of entries that each carry their own expiry.
type Cache[T any] interface {
	Lookup(key string) (T, bool)
	Put(key string, data T, until time.Time)
	Forget(key string)
	Len() int
}

// Sweeper is a cache the Manager can purge.
type Sweeper interface {
	Name() string
	// Sweep drops entries expired at now and returns how many it dropped.
	Sweep(now time.Time) int
	Len() int
}

// Manager sweeps registered caches on a ticker and exports their sizes.
type Manager struct {
	mu     sync.Mutex
	caches []Sweeper
	now    func() time.Time
	stop   chan struct{}
	done   chan struct{}
}

func NewManager() *Manager {
	return &Manager{now: time.Now}
}

func (m *Manager) Register(c Sweeper) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// StartCleanup sweeps every interval until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.SweepNow(); n > 0 {
					slog.Debug("Expired cache entries removed", log.FieldComponent, log.ComponentCache, "removed", n)
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// SweepNow purges every registered cache once and returns the number of
// entries removed.
func (m *Manager) SweepNow() int {
	m.mu.Lock()
	caches := append([]Sweeper(nil), m.caches...)
	m.mu.Unlock()

	now := m.now()
	total := 0
	for _, c := range caches {
		total += c.Sweep(now)
		metrics.CacheEntries.WithLabelValues(c.Name()).Set(float64(c.Len()))
	}
	return total
}

// Stop ends the cleanup loop. Calling it without StartCleanup is a no-op.
func (m *Manager) Stop() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.stop = nil
}
