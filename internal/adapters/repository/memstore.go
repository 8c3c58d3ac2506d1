// Package repository provides the default in-memory rating storage.
//
// The rating store only requires the small rating.Repository contract, so the
// engine can later be backed by a key-value store without touching the Elo
// logic. This implementation shards records across locked maps to keep writer
// contention low while predictions read concurrently.
package repository

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/playsight/prophet/internal/domain/rating"
	"github.com/playsight/prophet/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultShardCount = 8
)

// MemoryStore is a sharded in-memory rating.Repository.
type MemoryStore struct {
	shards []*shard
}

type shard struct {
	mu      sync.RWMutex
	records map[string]rating.Rating
}

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithShardCount sets the number of map shards.
func WithShardCount(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// NewMemoryStore creates an empty sharded store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		shards: make([]*shard, defaultShardCount),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]rating.Rating)}
	}
	metrics.UpdateRepositoryShardCount(len(s.shards))
	return s
}

func (s *MemoryStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Get returns the rating for id and whether it exists.
func (s *MemoryStore) Get(_ context.Context, id string) (rating.Rating, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	r, ok := sh.records[id]
	return r, ok
}

// Put stores or replaces a rating.
func (s *MemoryStore) Put(ctx context.Context, r rating.Rating) {
	sh := s.shardFor(r.EntityID)
	sh.mu.Lock()
	sh.records[r.EntityID] = r
	sh.mu.Unlock()
	metrics.UpdateRepositoryRecordsTotal(s.Count(ctx))
}

// All returns a copy of every stored rating in unspecified order.
func (s *MemoryStore) All(_ context.Context) []rating.Rating {
	var out []rating.Rating
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, r := range sh.records {
			out = append(out, r)
		}
		sh.mu.RUnlock()
	}
	return out
}

// Reset removes all stored ratings.
func (s *MemoryStore) Reset(_ context.Context) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.records = make(map[string]rating.Rating)
		sh.mu.Unlock()
	}
	metrics.UpdateRepositoryRecordsTotal(0)
}

// Count returns the number of stored ratings.
func (s *MemoryStore) Count(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.records)
		sh.mu.RUnlock()
	}
	return total
}
