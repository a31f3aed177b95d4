package cache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"

	"pelotero/internal/log"
	"pelotero/internal/metrics"
)

// LRU keeps at most capacity entries. Past that, the least recently used
// one goes even if it has not expired yet.
type LRU[T any] struct {
	name     string
	capacity int
	now      func() time.Time

	mu    sync.Mutex
	index map[string]*list.Element
	order *list.List // front is most recent
}

var (
	_ Cache[struct{}] = (*LRU[struct{}])(nil)
	_ Sweeper         = (*LRU[struct{}])(nil)
)

type entry[T any] struct {
	key   string
	data  T
	until time.Time
}

// NewLRU builds an empty cache. name labels its metrics and log lines.
func NewLRU[T any](name string, capacity int) *LRU[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[T]{
		name:     name,
		capacity: capacity,
		now:      time.Now,
		index:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *LRU[T]) Name() string { return c.name }

// Lookup returns the live entry for key. An expired entry is dropped.
func (c *LRU[T]) Lookup(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.index[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[T])
	if !c.now().Before(e.until) {
		c.unlink(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.data, true
}

// Put stores data until the given instant, replacing any entry for key.
func (c *LRU[T]) Put(key string, data T, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value = &entry[T]{key: key, data: data, until: until}
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(&entry[T]{key: key, data: data, until: until})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if c.now().Before(oldest.Value.(*entry[T]).until) {
			metrics.CacheEvictions.WithLabelValues(c.name).Inc()
			slog.Warn("Live cache entry evicted at capacity",
				log.FieldComponent, log.ComponentCache, "cache", c.name, "capacity", c.capacity)
		}
		c.unlink(oldest)
	}
}

func (c *LRU[T]) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.unlink(el)
	}
}

func (c *LRU[T]) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if !now.Before(el.Value.(*entry[T]).until) {
			c.unlink(el)
			n++
		}
		el = next
	}
	return n
}

func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[T]) unlink(el *list.Element) {
	delete(c.index, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}
