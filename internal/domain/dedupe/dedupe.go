// Package dedupe provides idempotency tracking for result ingestion.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen match IDs so a result event is applied at most once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing a retry. Use only
	// when an event was recorded but could not be processed (e.g. queue
	// backpressure).
	Unrecord(ctx context.Context, id string)

	Size() int64
}

const defaultMaxSize = 50000

// ringDeduper implements Deduper with a fixed-size FIFO ring: once the ring
// is full, recording a new id evicts the oldest. With maxSize <= 0 the ring
// is disabled and the set grows without bound.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> ring slot, or -1 in unbounded mode
	ring    []string
	next    int
	maxSize int
	size    int64
}

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		// Evict whatever occupied this slot a full revolution ago. Slots
		// cleared by Unrecord hold the empty string and evict nothing.
		if old := d.ring[d.next]; old != "" {
			delete(d.seen, old)
			d.size--
		}
		d.ring[d.next] = id
		d.seen[id] = d.next
		d.next = (d.next + 1) % d.maxSize
	} else {
		d.seen[id] = -1
	}
	d.size++
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, exists := d.seen[id]
	if !exists {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.ring[slot] = ""
	}
	d.size--
}

// Size returns the current number of tracked IDs.
func (d *ringDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}
