package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type Store interface {
	Get(key string) (count int, resetTime time.Time, exists bool)
	Increment(key string, resetTime time.Time) (count int, windowReset time.Time)
	Reset(key string)
}

// MemoryStore keeps fixed-window counters in a go-cache instance, which
// evicts each window once its reset time passes.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

type entry struct {
	count     int
	resetTime time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, time.Minute),
	}
}

func (s *MemoryStore) Get(key string) (count int, resetTime time.Time, exists bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.live(key); ok {
		return e.count, e.resetTime, true
	}

	return 0, time.Time{}, false
}

// Increment counts a hit in the live window, opening one that ends at
// resetTime when none exists, and returns the window's actual reset time.
func (s *MemoryStore) Increment(key string, resetTime time.Time) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		e = entry{resetTime: resetTime}
	}
	e.count++

	s.cache.Set(key, e, time.Until(e.resetTime))
	return e.count, e.resetTime
}

func (s *MemoryStore) Reset(key string) {
	s.cache.Delete(key)
}

func (s *MemoryStore) live(key string) (entry, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return entry{}, false
	}

	e := v.(entry)
	if !time.Now().Before(e.resetTime) {
		return entry{}, false
	}
	return e, true
}
