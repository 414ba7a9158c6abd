// Package dedupe tracks detection keys so a resubmitted estimator result is
// applied at most once.
package dedupe

import (
	"context"
	"sync"

	"github.com/golang/groupcache/lru"
)

// Deduper records seen detection keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already seen and records it if not.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a rejected detection (e.g. queue backpressure)
	// can be resubmitted.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// Key joins a session and detection id into a dedupe key.
func Key(sessionID, detectionID string) string {
	return sessionID + "/" + detectionID
}

// inMemoryDeduper keeps the most recently used keys. With maxSize <= 0 the
// cache never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	cache   *lru.Cache
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: 50000}
	for _, opt := range opts {
		opt(d)
	}
	n := d.maxSize
	if n < 0 {
		n = 0
	}
	d.cache = lru.New(n)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.cache.Get(key); ok {
		return true
	}
	d.cache.Add(key, struct{}{})
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Remove(key)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.cache.Len())
}
